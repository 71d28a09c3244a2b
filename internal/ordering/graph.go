package ordering

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aristath/phasor/internal/phase"
)

// Sentinel errors for structural registration failures. Callers match with
// errors.Is; the wrapped message names the offending node.
var (
	ErrDuplicateRegistration   = errors.New("already registered")
	ErrDependencyNotRegistered = errors.New("dependency not registered")
)

// Graph maintains the single linear order of phases within one trigger
// group. The order is resolved once, at insertion time, so the per-tick
// execution path pays no graph cost.
//
// Nodes are *phase.Phase or *phase.Pipeline. Inserting a pipeline flattens
// it into its phases at the target position; the pipeline itself stays
// addressable as an anchor (after = after its last phase, before = before
// its first).
type Graph struct {
	mu      sync.RWMutex
	order   []*phase.Phase
	present map[*phase.Phase]bool // phases already in the order
	nodes   map[any]bool          // registered nodes, incl. pipelines
	pin     *phase.Phase          // plain inserts land before this phase
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		present: make(map[*phase.Phase]bool),
		nodes:   make(map[any]bool),
	}
}

// Insert appends node immediately before the pinned block, preserving the
// relative order of earlier insertions. Graphs without a pinned block
// append at the tail.
func (g *Graph) Insert(node any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	at := len(g.order)
	if g.pin != nil {
		at = g.indexOf(g.pin)
	}
	return g.splice(node, at)
}

// Pin appends node at the absolute tail and marks it as the sentinel block:
// from now on plain Insert calls land in front of it.
func (g *Graph) Pin(node any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.splice(node, len(g.order)); err != nil {
		return err
	}
	phases := flatten(node)
	if len(phases) > 0 {
		g.pin = phases[0]
	}
	return nil
}

// InsertAfter splices node immediately after anchor's current resolved
// position. The anchor must already be registered.
func (g *Graph) InsertAfter(node, anchor any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, err := g.anchorSpan(anchor)
	if err != nil {
		return err
	}
	return g.splice(node, last.end+1)
}

// InsertBefore splices node immediately before anchor's current resolved
// position.
func (g *Graph) InsertBefore(node, anchor any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	first, err := g.anchorSpan(anchor)
	if err != nil {
		return err
	}
	return g.splice(node, first.start)
}

// Ordered returns the fully resolved linear order. The result is a copy.
func (g *Graph) Ordered() []*phase.Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*phase.Phase(nil), g.order...)
}

// Contains reports whether node (phase or pipeline) is registered.
func (g *Graph) Contains(node any) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if p, ok := node.(*phase.Phase); ok {
		return g.present[p]
	}
	return g.nodes[node]
}

// ContainsPhase reports whether the phase itself is in the resolved order.
func (g *Graph) ContainsPhase(p *phase.Phase) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.present[p]
}

type span struct{ start, end int }

// anchorSpan resolves the positions currently occupied by anchor.
func (g *Graph) anchorSpan(anchor any) (span, error) {
	switch a := anchor.(type) {
	case *phase.Phase:
		if !g.present[a] {
			return span{}, fmt.Errorf("anchor %q: %w", a, ErrDependencyNotRegistered)
		}
		i := g.indexOf(a)
		return span{start: i, end: i}, nil
	case *phase.Pipeline:
		if !g.nodes[a] {
			return span{}, fmt.Errorf("anchor %q: %w", a, ErrDependencyNotRegistered)
		}
		phases := a.Phases()
		if len(phases) == 0 {
			return span{}, fmt.Errorf("anchor %q is empty: %w", a, ErrDependencyNotRegistered)
		}
		return span{
			start: g.indexOf(phases[0]),
			end:   g.indexOf(phases[len(phases)-1]),
		}, nil
	default:
		return span{}, fmt.Errorf("anchor %T: %w", anchor, ErrDependencyNotRegistered)
	}
}

// splice validates node and inserts its flattened phases at position at.
func (g *Graph) splice(node any, at int) error {
	switch node.(type) {
	case *phase.Phase, *phase.Pipeline:
	default:
		return fmt.Errorf("unsupported node type %T", node)
	}
	if g.nodes[node] {
		return fmt.Errorf("node %v: %w", node, ErrDuplicateRegistration)
	}
	phases := flatten(node)
	for _, p := range phases {
		if g.present[p] {
			return fmt.Errorf("phase %q: %w", p, ErrDuplicateRegistration)
		}
	}

	g.order = append(g.order, phases...)
	copy(g.order[at+len(phases):], g.order[at:])
	copy(g.order[at:], phases)

	g.nodes[node] = true
	for _, p := range phases {
		g.present[p] = true
	}
	return nil
}

func (g *Graph) indexOf(p *phase.Phase) int {
	for i, have := range g.order {
		if have == p {
			return i
		}
	}
	// Unreachable for registered phases; present map and order never drift.
	return len(g.order)
}

// flatten expands node into its phase sequence. A bare phase is a sequence
// of one; a pipeline contributes its phases in internal order.
func flatten(node any) []*phase.Phase {
	switch n := node.(type) {
	case *phase.Phase:
		return []*phase.Phase{n}
	case *phase.Pipeline:
		return n.Phases()
	default:
		return nil
	}
}
