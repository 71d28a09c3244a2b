package history

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/phasor/internal/phase"
	"github.com/aristath/phasor/internal/scheduler"
)

// Recorder is a scheduler plugin that writes frame and failure rows to a
// Store. It registers a frame-open system in First and a frame-close system
// in Last, and hooks failure reports. A write error never disturbs the
// frame: it is logged and dropped.
//
// The recorder shares the scheduler's single-threaded execution model and
// must not be attached to more than one scheduler.
type Recorder[T any] struct {
	store *Store
	log   zerolog.Logger

	seq   int64
	start time.Time
}

// NewRecorder creates a recorder writing to the given store.
func NewRecorder[T any](store *Store, log zerolog.Logger) *Recorder[T] {
	return &Recorder[T]{store: store, log: log}
}

// Build wires the recorder into the scheduler.
func (r *Recorder[T]) Build(s *scheduler.Scheduler[T]) error {
	s.OnSystemError(func(se scheduler.SystemError) {
		label := ""
		if se.Phase != nil {
			label = se.Phase.Label()
		}
		failure := Failure{
			Frame:  r.seq,
			System: se.System,
			Phase:  label,
			Stage:  se.Stage,
			Error:  se.Err.Error(),
		}
		if err := r.store.SaveFailure(context.Background(), failure); err != nil {
			r.log.Warn().Err(err).Msg("dropping failure record")
		}
	})

	open := func(T) {
		r.seq++
		r.start = time.Now()
	}
	if err := s.AddSystem(open, phase.First); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}

	finish := func(T) {
		frame := Frame{
			Seq:     r.seq,
			Delta:   s.DeltaTime(),
			Elapsed: time.Since(r.start),
		}
		if err := r.store.SaveFrame(context.Background(), frame); err != nil {
			r.log.Warn().Err(err).Msg("dropping frame record")
		}
	}
	if err := s.AddSystem(finish, phase.Last); err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	return nil
}
