package scheduler

import (
	"errors"
	"testing"
)

// namedPlugin declares ordering constraints for AddPlugins.
type namedPlugin struct {
	name     string
	requires []string
	build    func(*Scheduler[*world]) error
}

func (p namedPlugin) Name() string                     { return p.name }
func (p namedPlugin) Requires() []string               { return p.requires }
func (p namedPlugin) Build(s *Scheduler[*world]) error { return p.build(s) }

// anonPlugin carries no constraints.
type anonPlugin struct {
	build func(*Scheduler[*world]) error
}

func (p anonPlugin) Build(s *Scheduler[*world]) error { return p.build(s) }

func TestAddPlugin(t *testing.T) {
	w := &world{}
	s := New(w)

	p := anonPlugin{build: func(s *Scheduler[*world]) error {
		return s.AddSystem(func(w *world) { w.mark("planted") })
	}}
	if err := s.AddPlugin(p); err != nil {
		t.Fatalf("AddPlugin: %v", err)
	}

	s.RunAll()
	if count(w, "planted") != 1 {
		t.Fatalf("plugin-registered system did not run: %v", w.log)
	}

	boom := anonPlugin{build: func(*Scheduler[*world]) error {
		return errors.New("broken wiring")
	}}
	if err := s.AddPlugin(boom); err == nil {
		t.Fatal("build error was swallowed")
	}
}

func TestAddPluginsOrdering(t *testing.T) {
	w := &world{}
	s := New(w)

	var built []string
	record := func(name string) func(*Scheduler[*world]) error {
		return func(*Scheduler[*world]) error {
			built = append(built, name)
			return nil
		}
	}

	// Declared out of dependency order on purpose.
	plugins := []Plugin[*world]{
		namedPlugin{name: "c", requires: []string{"a", "b"}, build: record("c")},
		namedPlugin{name: "b", requires: []string{"a"}, build: record("b")},
		namedPlugin{name: "a", build: record("a")},
	}
	if err := s.AddPlugins(plugins); err != nil {
		t.Fatalf("AddPlugins: %v", err)
	}

	if len(built) != 3 {
		t.Fatalf("built %v, want all three", built)
	}
	pos := map[string]int{}
	for i, name := range built {
		pos[name] = i
	}
	if pos["a"] > pos["b"] || pos["b"] > pos["c"] {
		t.Fatalf("build order %v violates requires constraints", built)
	}
}

func TestAddPluginsUnknownRequirement(t *testing.T) {
	w := &world{}
	s := New(w)

	built := false
	plugins := []Plugin[*world]{
		namedPlugin{name: "a", requires: []string{"ghost"}, build: func(*Scheduler[*world]) error {
			built = true
			return nil
		}},
	}
	if err := s.AddPlugins(plugins); err == nil {
		t.Fatal("unknown requirement was accepted")
	}
	if built {
		t.Fatal("plugin built despite failed batch validation")
	}
}

func TestAddPluginsCycle(t *testing.T) {
	w := &world{}
	s := New(w)

	noop := func(*Scheduler[*world]) error { return nil }
	plugins := []Plugin[*world]{
		namedPlugin{name: "a", requires: []string{"b"}, build: noop},
		namedPlugin{name: "b", requires: []string{"a"}, build: noop},
	}
	if err := s.AddPlugins(plugins); err == nil {
		t.Fatal("requirement cycle was accepted")
	}
}
