package scheduler

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/aristath/phasor/internal/phase"
)

// Condition is a run-condition: a predicate over the scheduler's argument
// value, free of scheduler-state side effects. It may keep internal state
// across calls (a deadline, a fired flag).
type Condition[T any] func(T) bool

// System is the configured registration form. Exactly one of Fn and Init
// must be set; everything else is optional.
type System[T any] struct {
	Name       string
	Phase      *phase.Phase
	Conditions []Condition[T]

	// Fn is a plain per-tick system.
	Fn func(T)

	// Init is an initializer: its single invocation returns the runtime
	// callable used from then on, plus an optional cleanup callable run
	// when the system is removed or the scheduler cleaned up.
	Init func(T) (func(T), func(T))
}

// Info is a read-only view of a registration, for inspection tooling.
type Info struct {
	Name        string
	Phase       *phase.Phase
	Initialized bool
	Ran         bool // meaningful only in once-phases
}

// entry is the internal registration record. Lifecycle: plain systems are
// born initialized with themselves as runtime callable; initializers flip
// to initialized on their first invocation.
type entry[T any] struct {
	key         uintptr
	name        string
	phase       *phase.Phase
	conds       []Condition[T]
	init        func(T) (func(T), func(T))
	run         func(T)
	cleanup     func(T)
	initialized bool
	ran         bool
}

// resolve normalizes any of the accepted system shapes into an entry.
// Accepted: func(T), func(T) func(T), func(T) (func(T), func(T)),
// System[T] and *System[T].
func resolve[T any](sys any, fallback *phase.Phase) (*entry[T], error) {
	switch fn := sys.(type) {
	case func(T):
		return &entry[T]{
			key:         callableKey(fn),
			name:        callableName(fn),
			phase:       fallback,
			run:         fn,
			initialized: true,
		}, nil
	case func(T) func(T):
		return &entry[T]{
			key:   callableKey(fn),
			name:  callableName(fn),
			phase: fallback,
			init: func(args T) (func(T), func(T)) {
				return fn(args), nil
			},
		}, nil
	case func(T) (func(T), func(T)):
		return &entry[T]{
			key:   callableKey(fn),
			name:  callableName(fn),
			phase: fallback,
			init:  fn,
		}, nil
	case System[T]:
		return resolveConfigured(fn, fallback)
	case *System[T]:
		return resolveConfigured(*fn, fallback)
	default:
		return nil, fmt.Errorf("system %T: %w", sys, ErrUnknownDependent)
	}
}

func resolveConfigured[T any](sys System[T], fallback *phase.Phase) (*entry[T], error) {
	if (sys.Fn == nil) == (sys.Init == nil) {
		return nil, fmt.Errorf("system %q: exactly one of Fn and Init must be set: %w", sys.Name, ErrUnknownDependent)
	}

	e := &entry[T]{
		name:  sys.Name,
		phase: sys.Phase,
		conds: append([]Condition[T](nil), sys.Conditions...),
	}
	if e.phase == nil {
		e.phase = fallback
	}
	if sys.Fn != nil {
		e.key = callableKey(sys.Fn)
		e.run = sys.Fn
		e.initialized = true
		if e.name == "" {
			e.name = callableName(sys.Fn)
		}
	} else {
		e.key = callableKey(sys.Init)
		e.init = sys.Init
		if e.name == "" {
			e.name = callableName(sys.Init)
		}
	}
	return e, nil
}

func (e *entry[T]) info() Info {
	return Info{
		Name:        e.name,
		Phase:       e.phase,
		Initialized: e.initialized,
		Ran:         e.ran,
	}
}

// keyOf extracts the identity key from any shape a caller may use to refer
// back to a registration.
func keyOf[T any](sys any) (uintptr, bool) {
	switch fn := sys.(type) {
	case func(T):
		return callableKey(fn), true
	case func(T) func(T):
		return callableKey(fn), true
	case func(T) (func(T), func(T)):
		return callableKey(fn), true
	case System[T]:
		return configuredKey(fn)
	case *System[T]:
		return configuredKey(*fn)
	default:
		return 0, false
	}
}

func configuredKey[T any](sys System[T]) (uintptr, bool) {
	if sys.Fn != nil {
		return callableKey(sys.Fn), true
	}
	if sys.Init != nil {
		return callableKey(sys.Init), true
	}
	return 0, false
}

// callableKey is the identity of the original callable: its code pointer.
// Distinct closures built from the same function literal share a key;
// callers needing distinct registrations use distinct literals.
func callableKey(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// callableName derives a debug name from the function symbol.
func callableName(fn any) string {
	pc := reflect.ValueOf(fn).Pointer()
	f := runtime.FuncForPC(pc)
	if f == nil {
		return fmt.Sprintf("system@%#x", pc)
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
