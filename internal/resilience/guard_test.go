package resilience

import (
	"testing"
	"time"
)

// fastConfig keeps test runtimes short: no jitter, tiny cooldowns.
func fastConfig() Config {
	return Config{
		ConsecutiveFailures: 3,
		OpenTimeout:         50 * time.Millisecond,
		InitialInterval:     time.Millisecond,
		MaxInterval:         5 * time.Millisecond,
		Multiplier:          2.0,
		RandomizationFactor: 0.01,
	}
}

// TestGuardAbsorbsPanics tests that a panicking system never panics the
// caller.
func TestGuardAbsorbsPanics(t *testing.T) {
	guarded := Guard("boom", func(int) { panic("boom") }, fastConfig())

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped the guard: %v", r)
		}
	}()
	guarded(0)
}

// TestGuardOpensBreaker tests that consecutive failures trip the breaker
// and the system stops being attempted.
func TestGuardOpensBreaker(t *testing.T) {
	cfg := fastConfig()
	cfg.OpenTimeout = 5 * time.Second // stay open for the rest of the test

	attempts := 0
	guarded := Guard("flaky", func(int) {
		attempts++
		panic("down")
	}, cfg)

	// Drive well past the trip threshold, waiting out each cooldown so
	// every call is a real attempt until the breaker opens.
	for i := 0; i < 10; i++ {
		guarded(0)
		time.Sleep(10 * time.Millisecond)
	}

	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3 (breaker should absorb the rest)", attempts)
	}
}

// TestGuardCooldown tests that failed attempts are paced: a call inside
// the cooldown window does not reach the system.
func TestGuardCooldown(t *testing.T) {
	cfg := fastConfig()
	cfg.InitialInterval = 80 * time.Millisecond
	cfg.MaxInterval = 80 * time.Millisecond

	attempts := 0
	guarded := Guard("slow", func(int) {
		attempts++
		panic("down")
	}, cfg)

	guarded(0) // fails, starts the cooldown
	guarded(0) // inside the cooldown window
	guarded(0)
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1 during cooldown", attempts)
	}
}

// TestGuardRecovers tests that a success resets the failure counters and
// the system keeps running normally.
func TestGuardRecovers(t *testing.T) {
	fail := true
	runs := 0
	guarded := Guard("recovering", func(int) {
		runs++
		if fail {
			panic("down")
		}
	}, fastConfig())

	guarded(0) // one failure
	time.Sleep(5 * time.Millisecond)

	fail = false
	for i := 0; i < 5; i++ {
		guarded(0)
	}
	if runs != 6 {
		t.Fatalf("runs = %d, want 6 (recovered system runs every call)", runs)
	}
}
