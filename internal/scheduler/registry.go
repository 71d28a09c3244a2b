package scheduler

import (
	"fmt"

	"github.com/aristath/phasor/internal/phase"
)

// registry owns the per-phase ordered system lists and the identity index
// used to reference registrations without handles. It is not safe for
// concurrent use on its own; the owning Scheduler serializes access.
type registry[T any] struct {
	byPhase    map[*phase.Phase][]*entry[T]
	index      map[uintptr]*entry[T]
	phaseConds map[*phase.Phase][]Condition[T]
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{
		byPhase:    make(map[*phase.Phase][]*entry[T]),
		index:      make(map[uintptr]*entry[T]),
		phaseConds: make(map[*phase.Phase][]Condition[T]),
	}
}

// add appends e to its phase's list. Registering the same callable twice in
// one phase is left undefined (the index keeps the newest record); callers
// own that discipline.
func (r *registry[T]) add(e *entry[T]) {
	r.byPhase[e.phase] = append(r.byPhase[e.phase], e)
	r.index[e.key] = e
}

func (r *registry[T]) get(key uintptr) (*entry[T], bool) {
	e, ok := r.index[key]
	return e, ok
}

// snapshot copies the phase's system list so registry edits made from
// inside a running system only affect the next pass over the phase.
func (r *registry[T]) snapshot(p *phase.Phase) []*entry[T] {
	systems := r.byPhase[p]
	if len(systems) == 0 {
		return nil
	}
	return append([]*entry[T](nil), systems...)
}

// remove detaches the registration from whichever phase holds it and
// returns the removed entry.
func (r *registry[T]) remove(key uintptr) (*entry[T], bool) {
	e, ok := r.index[key]
	if !ok {
		return nil, false
	}
	delete(r.index, key)
	r.detach(e)
	return e, true
}

// move re-homes the registration at the end of newPhase's list.
func (r *registry[T]) move(key uintptr, newPhase *phase.Phase) error {
	e, ok := r.index[key]
	if !ok {
		return fmt.Errorf("edit: %w", ErrUnknownSystem)
	}
	r.detach(e)
	e.phase = newPhase
	r.byPhase[newPhase] = append(r.byPhase[newPhase], e)
	return nil
}

// replace swaps the registration at old's position for the new entry,
// preserving the index within the phase list. The new entry inherits old's
// conditions unless it declares its own; old's cleanup does not run.
func (r *registry[T]) replace(oldKey uintptr, repl *entry[T]) error {
	old, ok := r.index[oldKey]
	if !ok {
		return fmt.Errorf("replace: %w", ErrUnknownSystem)
	}

	repl.phase = old.phase
	if len(repl.conds) == 0 {
		repl.conds = old.conds
	}

	systems := r.byPhase[old.phase]
	for i, have := range systems {
		if have == old {
			systems[i] = repl
			break
		}
	}
	delete(r.index, oldKey)
	r.index[repl.key] = repl
	return nil
}

func (r *registry[T]) detach(e *entry[T]) {
	systems := r.byPhase[e.phase]
	for i, have := range systems {
		if have == e {
			r.byPhase[e.phase] = append(systems[:i], systems[i+1:]...)
			return
		}
	}
}

func (r *registry[T]) addPhaseCondition(p *phase.Phase, cond Condition[T]) {
	r.phaseConds[p] = append(r.phaseConds[p], cond)
}

func (r *registry[T]) conditionsFor(p *phase.Phase) []Condition[T] {
	return r.phaseConds[p]
}

// all returns every registration, for cleanup and inspection.
func (r *registry[T]) all() []*entry[T] {
	out := make([]*entry[T], 0, len(r.index))
	for _, e := range r.index {
		out = append(out, e)
	}
	return out
}

func (r *registry[T]) infos(p *phase.Phase) []Info {
	systems := r.byPhase[p]
	out := make([]Info, len(systems))
	for i, e := range systems {
		out[i] = e.info()
	}
	return out
}
