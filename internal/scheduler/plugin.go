package scheduler

import (
	"fmt"

	"github.com/gammazero/toposort"
)

// Plugin bundles registration calls. Build runs synchronously with the
// same registration API any caller has; plugins are a convention, not a
// separate architectural layer.
type Plugin[T any] interface {
	Build(s *Scheduler[T]) error
}

// DependentPlugin optionally declares ordering constraints for AddPlugins.
// Requires lists the Names of plugins that must build first.
type DependentPlugin interface {
	Name() string
	Requires() []string
}

// AddPlugin invokes the plugin's Build immediately.
func (s *Scheduler[T]) AddPlugin(p Plugin[T]) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	s.mu.Unlock()

	if err := p.Build(s); err != nil {
		return fmt.Errorf("plugin build: %w", err)
	}
	return nil
}

// AddPlugins builds a batch of plugins in an order satisfying every
// declared Requires constraint, via topological sort. Plugins without
// declarations carry no constraints. An unknown requirement or a
// requirement cycle fails the whole batch before anything builds.
func (s *Scheduler[T]) AddPlugins(plugins []Plugin[T]) error {
	byName := make(map[string]int, len(plugins))
	for i, p := range plugins {
		if dp, ok := p.(DependentPlugin); ok {
			byName[dp.Name()] = i
		}
	}

	// Nodes are batch indices; an edge (a, b) means a builds before b.
	var edges []toposort.Edge
	for i, p := range plugins {
		dp, ok := p.(DependentPlugin)
		if !ok || len(dp.Requires()) == 0 {
			edges = append(edges, toposort.Edge{nil, i})
			continue
		}
		for _, req := range dp.Requires() {
			j, ok := byName[req]
			if !ok {
				return fmt.Errorf("plugin %q requires unknown plugin %q", dp.Name(), req)
			}
			edges = append(edges, toposort.Edge{j, i})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return fmt.Errorf("plugin ordering: %w", err)
	}

	for _, node := range sorted {
		if node == nil {
			continue
		}
		p := plugins[node.(int)]
		if err := s.AddPlugin(p); err != nil {
			return err
		}
	}
	return nil
}
