// Package signal provides the in-process event source used to trigger
// scheduler groups, and the resolver that normalizes the accepted
// event-like shapes into a single subscription capability.
package signal

import (
	"errors"
	"fmt"
	"sync"
)

// Connector subscribes a handler to an event source and returns the
// function that disconnects it again. The handler carries no payload; a
// firing only means "this event happened".
type Connector func(handler func()) (disconnect func())

// ErrNoValidEventConnector is returned when an event-like value exposes
// none of the recognized subscribe shapes.
var ErrNoValidEventConnector = errors.New("no valid event connector")

// Resolve normalizes an event-like value into a Connector. The accepted
// shapes form a closed set, checked once at subscription time:
//
//   - a Connector (or any func(func()) func()) acting as its own subscribe
//   - a value with a Connect(func()) func() method
//   - a value with an On(func()) func() method
//   - a value with a Subscribe(func()) func() method
func Resolve(event any) (Connector, error) {
	switch ev := event.(type) {
	case Connector:
		return ev, nil
	case func(func()) func():
		return ev, nil
	case interface{ Connect(func()) func() }:
		return ev.Connect, nil
	case interface{ On(func()) func() }:
		return ev.On, nil
	case interface{ Subscribe(func()) func() }:
		return ev.Subscribe, nil
	default:
		return nil, fmt.Errorf("%T: %w", event, ErrNoValidEventConnector)
	}
}

// Signal is a minimal fanout event source. Fire invokes every connected
// handler synchronously, in connection order.
type Signal struct {
	mu       sync.RWMutex
	seq      uint64
	handlers map[uint64]func()
	order    []uint64
}

// NewSignal creates a signal with no handlers.
func NewSignal() *Signal {
	return &Signal{handlers: make(map[uint64]func())}
}

// Connect registers handler and returns its disconnect function.
// Disconnecting twice is a no-op.
func (s *Signal) Connect(handler func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := s.seq
	s.handlers[id] = handler
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.handlers, id)
			for i, have := range s.order {
				if have == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Fire invokes all connected handlers. Handlers are snapshotted first, so a
// handler connecting or disconnecting mid-fire affects the next firing.
func (s *Signal) Fire() {
	s.mu.RLock()
	snapshot := make([]func(), 0, len(s.order))
	for _, id := range s.order {
		if h, ok := s.handlers[id]; ok {
			snapshot = append(snapshot, h)
		}
	}
	s.mu.RUnlock()

	for _, h := range snapshot {
		h()
	}
}

// Count returns the number of connected handlers.
func (s *Signal) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}
