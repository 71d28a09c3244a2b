// Package demo is a small particle simulation driven entirely by the
// scheduler: spawning happens in the startup block, integration and aging
// in the main block, bookkeeping in Last. It exists to exercise the
// scheduler end to end and to feed the TUI something to draw.
package demo

import (
	"math/rand"
	"sync"
	"time"
)

// Particle is one simulated particle. Position and velocity are in cell
// units; Life counts down in seconds.
type Particle struct {
	X, Y   float64
	VX, VY float64
	Life   float64
}

// World is the scheduler argument value for the demo. The scheduler itself
// is single-threaded, but the TUI reads snapshots from another goroutine,
// so all access goes through the mutex.
type World struct {
	mu sync.Mutex

	rand      *rand.Rand
	width     float64
	height    float64
	particles []Particle

	frame   int64
	spawned int64
	expired int64
	paused  bool
	delta   time.Duration
}

// Snapshot is a read-only copy of the world for display.
type Snapshot struct {
	Frame     int64
	Alive     int
	Spawned   int64
	Expired   int64
	Paused    bool
	Delta     time.Duration
	Particles []Particle
}

// NewWorld creates a world with the given field size. A zero seed picks a
// time-based one.
func NewWorld(width, height float64, seed int64) *World {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &World{
		rand:   rand.New(rand.NewSource(seed)),
		width:  width,
		height: height,
	}
}

// TogglePause flips the pause flag and returns the new state.
func (w *World) TogglePause() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = !w.paused
	return w.paused
}

// Running reports whether the simulation should advance. Used as the
// run-condition on the simulation phases.
func (w *World) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.paused
}

// Snapshot copies the current state for display.
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		Frame:     w.frame,
		Alive:     len(w.particles),
		Spawned:   w.spawned,
		Expired:   w.expired,
		Paused:    w.paused,
		Delta:     w.delta,
		Particles: append([]Particle(nil), w.particles...),
	}
}

// spawn adds one particle with randomized velocity and lifetime.
func (w *World) spawn() {
	p := Particle{
		X:    w.rand.Float64() * w.width,
		Y:    w.rand.Float64() * w.height,
		VX:   (w.rand.Float64() - 0.5) * 20,
		VY:   (w.rand.Float64() - 0.5) * 20,
		Life: 2 + w.rand.Float64()*8,
	}
	w.particles = append(w.particles, p)
	w.spawned++
}
