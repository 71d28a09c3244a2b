package condition

import (
	"errors"
	"testing"
	"time"

	"github.com/aristath/phasor/internal/signal"
)

func TestNot(t *testing.T) {
	yes := func(int) bool { return true }
	if Not(yes)(0) {
		t.Fatal("Not(true) = true")
	}
	no := func(int) bool { return false }
	if !Not(no)(0) {
		t.Fatal("Not(false) = false")
	}
}

func TestRunOnce(t *testing.T) {
	once := RunOnce[int]()
	if !once(0) {
		t.Fatal("first call should pass")
	}
	for i := 0; i < 3; i++ {
		if once(0) {
			t.Fatal("subsequent call passed")
		}
	}

	// Independent state per combinator value.
	other := RunOnce[int]()
	if !other(0) {
		t.Fatal("fresh combinator should pass")
	}
}

func TestTimeElapsed(t *testing.T) {
	cond := TimeElapsed[int](30 * time.Millisecond)
	if !cond(0) {
		t.Fatal("first call should pass")
	}
	if cond(0) {
		t.Fatal("immediate second call passed before interval")
	}
	time.Sleep(40 * time.Millisecond)
	if !cond(0) {
		t.Fatal("call after interval should pass")
	}
}

func TestOnEvent(t *testing.T) {
	sig := signal.NewSignal()
	cond, disconnect, err := OnEvent[int](sig)
	if err != nil {
		t.Fatalf("OnEvent: %v", err)
	}
	defer disconnect()

	if cond(0) {
		t.Fatal("passed before any firing")
	}

	sig.Fire()
	if !cond(0) {
		t.Fatal("did not pass after firing")
	}
	if cond(0) {
		t.Fatal("fired flag not consumed")
	}

	// Two firings between checks still count as one.
	sig.Fire()
	sig.Fire()
	if !cond(0) {
		t.Fatal("did not pass after firings")
	}
	if cond(0) {
		t.Fatal("fired flag not consumed after double firing")
	}

	disconnect()
	sig.Fire()
	if cond(0) {
		t.Fatal("passed after disconnect")
	}
}

func TestOnEventRejectsBadSource(t *testing.T) {
	_, _, err := OnEvent[int]("not an event")
	if !errors.Is(err, signal.ErrNoValidEventConnector) {
		t.Fatalf("expected ErrNoValidEventConnector, got %v", err)
	}
}
