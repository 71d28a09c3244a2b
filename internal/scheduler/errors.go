package scheduler

import "errors"

// Structural errors returned synchronously by registration and run calls.
// Ordering failures (duplicate registration, unknown anchor) surface as the
// sentinels of the ordering package and are matched the same way.
var (
	// ErrUnknownDependent reports an argument that is neither a recognized
	// phase, pipeline, nor system shape.
	ErrUnknownDependent = errors.New("unknown dependent")

	// ErrUnknownSystem reports a callable that has no registration.
	ErrUnknownSystem = errors.New("system not registered")

	// ErrSchedulerClosed reports use of a scheduler after Cleanup.
	ErrSchedulerClosed = errors.New("scheduler closed")
)
