package phase

import "fmt"

// Phase is an identity token marking a synchronization point systems attach
// to. Equality is pointer identity, not label equality: two phases may carry
// the same label and remain distinct. A Phase is immutable after creation
// and lives as long as the scheduler that registered it.
type Phase struct {
	label string
	once  bool
}

// New creates a phase with the given debug label.
func New(label string) *Phase {
	return &Phase{label: label}
}

// NewStartup creates a phase whose systems execute at most once over the
// owning scheduler's lifetime, no matter how often the owning trigger fires.
func NewStartup(label string) *Phase {
	return &Phase{label: label, once: true}
}

// Label returns the debug label.
func (p *Phase) Label() string { return p.label }

// Once reports whether systems in this phase run at most once.
func (p *Phase) Once() bool { return p.once }

func (p *Phase) String() string { return p.label }

// Pipeline is an ordered bundle of phases, insertable into a scheduler
// wherever a single phase could be inserted. It is mutated only while being
// built, before registration; the builder methods panic on misuse (duplicate
// phase, unknown anchor) since both are programmer errors caught during
// development.
type Pipeline struct {
	label  string
	phases []*Phase
}

// NewPipeline creates an empty pipeline with the given debug label.
func NewPipeline(label string) *Pipeline {
	return &Pipeline{label: label}
}

// Label returns the debug label.
func (pl *Pipeline) Label() string { return pl.label }

func (pl *Pipeline) String() string { return pl.label }

// Phases returns the contained phases in order. The result is a copy.
func (pl *Pipeline) Phases() []*Phase {
	return append([]*Phase(nil), pl.phases...)
}

// Insert appends p to the end of the pipeline.
func (pl *Pipeline) Insert(p *Phase) *Pipeline {
	pl.check(p)
	pl.phases = append(pl.phases, p)
	return pl
}

// InsertAfter splices p immediately after anchor.
func (pl *Pipeline) InsertAfter(p, anchor *Phase) *Pipeline {
	pl.check(p)
	pl.splice(p, pl.indexOf(anchor)+1)
	return pl
}

// InsertBefore splices p immediately before anchor.
func (pl *Pipeline) InsertBefore(p, anchor *Phase) *Pipeline {
	pl.check(p)
	pl.splice(p, pl.indexOf(anchor))
	return pl
}

func (pl *Pipeline) check(p *Phase) {
	if p == nil {
		panic(fmt.Sprintf("phase: nil phase inserted into pipeline %q", pl.label))
	}
	for _, have := range pl.phases {
		if have == p {
			panic(fmt.Sprintf("phase: duplicate phase %q in pipeline %q", p, pl.label))
		}
	}
}

func (pl *Pipeline) indexOf(anchor *Phase) int {
	for i, have := range pl.phases {
		if have == anchor {
			return i
		}
	}
	panic(fmt.Sprintf("phase: anchor %q not in pipeline %q", anchor, pl.label))
}

func (pl *Pipeline) splice(p *Phase, at int) {
	pl.phases = append(pl.phases, nil)
	copy(pl.phases[at+1:], pl.phases[at:])
	pl.phases[at] = p
}
