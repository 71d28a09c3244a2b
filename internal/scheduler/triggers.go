package scheduler

import (
	"fmt"
	"reflect"

	"github.com/aristath/phasor/internal/ordering"
	"github.com/aristath/phasor/internal/signal"
)

// InsertOn registers a phase or pipeline in the trigger group of the given
// event. The event must expose one of the connectable shapes recognized by
// signal.Resolve. The group and its subscription are created lazily the
// first time an event value is seen; presenting the same value again reuses
// them. Each firing executes the group's resolved order exactly once,
// synchronously inside the event's own callback.
func (s *Scheduler[T]) InsertOn(node, event any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSchedulerClosed
	}
	if err := validateNode(node); err != nil {
		s.mu.Unlock()
		return err
	}

	connect, err := signal.Resolve(event)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	key, err := eventKey(event)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.checkUnregistered(node); err != nil {
		s.mu.Unlock()
		return err
	}

	g, ok := s.eventGroups[key]
	created := !ok
	if created {
		g = &group{graph: ordering.New()}
		s.eventGroups[key] = g
		s.eventOrder = append(s.eventOrder, key)
	}
	err = g.graph.Insert(node)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if created {
		// Subscribing runs user code; a connector that fires its handler
		// synchronously would deadlock on the registration mutex if this
		// happened under the lock.
		disconnect := connect(func() { s.fireGroup(g) })
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			disconnect()
			return ErrSchedulerClosed
		}
		g.disconnect = disconnect
		s.mu.Unlock()
	}
	return nil
}

// fireGroup runs an event group's resolved order once. Delta time is owned
// by the default trigger and is not advanced here.
func (s *Scheduler[T]) fireGroup(g *group) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	order := g.graph.Ordered()
	s.mu.Unlock()

	for _, p := range order {
		s.runPhase(p)
	}
}

// eventKey derives the identity used to group registrations by event
// source. Function values key by code pointer (funcs are not comparable);
// everything else keys by value.
func eventKey(event any) (any, error) {
	rv := reflect.ValueOf(event)
	switch rv.Kind() {
	case reflect.Func:
		return rv.Pointer(), nil
	default:
		if !rv.IsValid() || !rv.Comparable() {
			return nil, fmt.Errorf("event %T is not comparable: %w", event, signal.ErrNoValidEventConnector)
		}
		return event, nil
	}
}
