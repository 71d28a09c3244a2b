package demo

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/phasor/internal/config"
	"github.com/aristath/phasor/internal/scheduler"
)

func testSetup(t *testing.T, particles int) (*scheduler.Scheduler[*World], *World) {
	t.Helper()
	w := NewWorld(80, 24, 42)
	s := scheduler.New(w)
	cfg := config.DemoConfig{TickRate: 30, Particles: particles, Seed: 42}
	if err := Install(s, cfg, zerolog.Nop()); err != nil {
		t.Fatalf("Install: %v", err)
	}
	return s, w
}

func TestSimulationAdvances(t *testing.T) {
	s, w := testSetup(t, 8)

	s.RunAll()
	time.Sleep(5 * time.Millisecond)
	s.RunAll()
	time.Sleep(5 * time.Millisecond)
	s.RunAll()

	snap := w.Snapshot()
	if snap.Spawned < 8 {
		t.Errorf("spawned = %d, want at least the startup population of 8", snap.Spawned)
	}
	if snap.Alive == 0 {
		t.Error("no particles alive after three frames")
	}
	// census initializes on the first frame and counts from the second.
	if snap.Frame != 2 {
		t.Errorf("frame = %d, want 2", snap.Frame)
	}
}

func TestPauseGatesMainBlock(t *testing.T) {
	s, w := testSetup(t, 4)

	s.RunAll() // initialize census
	s.RunAll()
	before := w.Snapshot()

	if !w.TogglePause() {
		t.Fatal("TogglePause did not pause")
	}
	s.RunAll()
	s.RunAll()
	paused := w.Snapshot()
	if paused.Frame != before.Frame || paused.Spawned != before.Spawned {
		t.Errorf("simulation advanced while paused: %+v vs %+v", paused, before)
	}

	w.TogglePause()
	s.RunAll()
	resumed := w.Snapshot()
	if resumed.Frame != before.Frame+1 {
		t.Errorf("frame = %d after resume, want %d", resumed.Frame, before.Frame+1)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s, w := testSetup(t, 4)
	s.RunAll()

	snap := w.Snapshot()
	if len(snap.Particles) == 0 {
		t.Fatal("no particles in snapshot")
	}
	snap.Particles[0].X = -9999

	again := w.Snapshot()
	if again.Particles[0].X == -9999 {
		t.Error("snapshot shares backing storage with the world")
	}
}

func TestCleanupRunsCensusTeardown(t *testing.T) {
	s, _ := testSetup(t, 4)
	s.RunAll()
	// The census cleanup logs totals; the only contract here is that
	// teardown completes without a failure report.
	var failures int
	s.OnSystemError(func(scheduler.SystemError) { failures++ })
	s.Cleanup()
	if failures != 0 {
		t.Errorf("cleanup reported %d failures", failures)
	}
}
