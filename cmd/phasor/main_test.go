package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/phasor/internal/config"
	"github.com/aristath/phasor/internal/demo"
	"github.com/aristath/phasor/internal/scheduler"
)

// TestPhaseStatuses verifies the display rows match the scheduler's
// resolved order and carry the registered system names.
func TestPhaseStatuses(t *testing.T) {
	world := demo.NewWorld(fieldWidth, fieldHeight, 1)
	sched := scheduler.New(world)
	if err := demo.Install(sched, config.DemoConfig{TickRate: 30, Particles: 4}, zerolog.Nop()); err != nil {
		t.Fatalf("Install: %v", err)
	}

	statuses := phaseStatuses(sched)
	if len(statuses) != 8 {
		t.Fatalf("got %d phases, want the 8 builtins", len(statuses))
	}
	if statuses[0].Label != "PreStartup" || !statuses[0].Once {
		t.Errorf("first phase = %+v, want once-phase PreStartup", statuses[0])
	}
	if statuses[len(statuses)-1].Label != "Last" {
		t.Errorf("last phase = %q, want Last", statuses[len(statuses)-1].Label)
	}

	byLabel := map[string][]string{}
	for _, st := range statuses {
		byLabel[st.Label] = st.Systems
	}
	if len(byLabel["Startup"]) != 1 {
		t.Errorf("Startup systems = %v, want the populate system", byLabel["Startup"])
	}
	if len(byLabel["Last"]) != 2 {
		t.Errorf("Last systems = %v, want census and stats", byLabel["Last"])
	}
}

// TestSignalContextCancellation verifies that signal.NotifyContext produces
// a context that cancels when a signal is received.
func TestSignalContextCancellation(t *testing.T) {
	// Use SIGUSR1 as a safe test signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGUSR1)
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("Failed to send SIGUSR1: %v", err)
	}

	select {
	case <-ctx.Done():
		// Success - context cancelled
	case <-time.After(1 * time.Second):
		t.Fatal("Context did not cancel after SIGUSR1")
	}

	if err := ctx.Err(); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// TestNewLoggerLevels verifies level parsing falls back to info.
func TestNewLoggerLevels(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(cwd) })

	if got := newLogger("debug").GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}
	if got := newLogger("nonsense").GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("fallback level = %v, want info", got)
	}
}
