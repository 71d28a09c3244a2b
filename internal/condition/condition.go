// Package condition provides composable run-condition predicates. Every
// combinator returns a fresh closure owning its own state, so one
// combinator value is attached to exactly one target.
package condition

import (
	"time"

	"github.com/aristath/phasor/internal/signal"
)

// Not inverts a condition.
func Not[T any](cond func(T) bool) func(T) bool {
	return func(args T) bool { return !cond(args) }
}

// RunOnce passes exactly once, then never again.
func RunOnce[T any]() func(T) bool {
	fired := false
	return func(T) bool {
		if fired {
			return false
		}
		fired = true
		return true
	}
}

// TimeElapsed passes at most once per interval: true when at least d has
// passed since the last time it passed, counting from the first call.
func TimeElapsed[T any](d time.Duration) func(T) bool {
	var last time.Time
	return func(T) bool {
		now := time.Now()
		if !last.IsZero() && now.Sub(last) < d {
			return false
		}
		last = now
		return true
	}
}

// OnEvent passes when the event fired at least once since the previous
// check. The subscription is created immediately; the returned disconnect
// releases it.
func OnEvent[T any](event any) (cond func(T) bool, disconnect func(), err error) {
	connect, err := signal.Resolve(event)
	if err != nil {
		return nil, nil, err
	}

	fired := false
	disconnect = connect(func() { fired = true })
	cond = func(T) bool {
		if !fired {
			return false
		}
		fired = false
		return true
	}
	return cond, disconnect, nil
}
