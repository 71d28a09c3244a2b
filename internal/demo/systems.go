package demo

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/phasor/internal/condition"
	"github.com/aristath/phasor/internal/config"
	"github.com/aristath/phasor/internal/phase"
	"github.com/aristath/phasor/internal/resilience"
	"github.com/aristath/phasor/internal/scheduler"
)

// Integration clamps frame deltas so a paused or stalled scheduler does not
// teleport particles on resume.
const maxStep = 250 * time.Millisecond

// Install registers the demo systems. The pause flag gates the whole main
// block through a pipeline run-condition; the startup block is unaffected.
func Install(s *scheduler.Scheduler[*World], cfg config.DemoConfig, log zerolog.Logger) error {
	if err := s.AddRunCondition(phase.MainPipeline, func(w *World) bool { return w.Running() }); err != nil {
		return fmt.Errorf("demo: %w", err)
	}

	populate := scheduler.System[*World]{
		Name:  "populate",
		Phase: phase.Startup,
		Fn: func(w *World) {
			w.mu.Lock()
			defer w.mu.Unlock()
			for i := 0; i < cfg.Particles; i++ {
				w.spawn()
			}
		},
	}

	// The emitter tops the field back up, one particle per frame. It is
	// guarded: past the hard cap it panics, the breaker opens, and emission
	// pauses instead of flooding the frame with failure reports.
	capacity := cfg.Particles * 4
	guardCfg := resilience.DefaultConfig()
	guardCfg.Logger = log
	emit := resilience.Guard[*World]("emitter", func(w *World) {
		w.mu.Lock()
		defer w.mu.Unlock()
		if len(w.particles) >= capacity {
			panic(fmt.Sprintf("emitter: %d particles alive, cap %d", len(w.particles), capacity))
		}
		w.spawn()
	}, guardCfg)

	integrate := func(w *World) {
		dt := s.DeltaTime()
		if dt > maxStep {
			dt = maxStep
		}
		step := dt.Seconds()

		w.mu.Lock()
		defer w.mu.Unlock()
		for i := range w.particles {
			p := &w.particles[i]
			p.X += p.VX * step
			p.Y += p.VY * step
			if p.X < 0 || p.X > w.width {
				p.VX = -p.VX
			}
			if p.Y < 0 || p.Y > w.height {
				p.VY = -p.VY
			}
		}
	}

	age := func(w *World) {
		dt := s.DeltaTime()
		if dt > maxStep {
			dt = maxStep
		}
		step := dt.Seconds()

		w.mu.Lock()
		defer w.mu.Unlock()
		alive := w.particles[:0]
		for _, p := range w.particles {
			p.Life -= step
			if p.Life > 0 {
				alive = append(alive, p)
			} else {
				w.expired++
			}
		}
		w.particles = alive
	}

	// census is an initializer: setup captures the start time, the runtime
	// callable keeps the frame counter, cleanup logs the totals.
	census := func(w *World) (func(*World), func(*World)) {
		started := time.Now()
		run := func(w *World) {
			w.mu.Lock()
			defer w.mu.Unlock()
			w.frame++
			w.delta = s.DeltaTime()
		}
		cleanup := func(w *World) {
			snap := w.Snapshot()
			log.Info().
				Int64("frames", snap.Frame).
				Int64("spawned", snap.Spawned).
				Int64("expired", snap.Expired).
				Dur("uptime", time.Since(started)).
				Msg("demo finished")
		}
		return run, cleanup
	}

	stats := scheduler.System[*World]{
		Name:       "stats",
		Phase:      phase.Last,
		Conditions: []scheduler.Condition[*World]{condition.TimeElapsed[*World](5 * time.Second)},
		Fn: func(w *World) {
			snap := w.Snapshot()
			log.Debug().
				Int64("frame", snap.Frame).
				Int("alive", snap.Alive).
				Dur("delta", snap.Delta).
				Msg("demo stats")
		},
	}

	if err := s.AddSystems([]any{
		populate,
		scheduler.System[*World]{Name: "emitter", Phase: phase.PreUpdate, Fn: emit},
		integrate,
		scheduler.System[*World]{Name: "age", Phase: phase.PostUpdate, Fn: age},
		scheduler.System[*World]{Name: "census", Phase: phase.Last, Init: census},
		stats,
	}); err != nil {
		return fmt.Errorf("demo: %w", err)
	}
	return nil
}
