package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// testStore creates a file-backed store under a temp dir and registers
// cleanup. File-backed keeps tests isolated; the shared-cache memory store
// is one database per process.
func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestSaveAndQueryFrames(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for seq := int64(1); seq <= 3; seq++ {
		frame := Frame{
			Seq:     seq,
			Delta:   time.Duration(seq) * time.Millisecond,
			Elapsed: 500 * time.Microsecond,
		}
		if err := store.SaveFrame(ctx, frame); err != nil {
			t.Fatalf("failed to save frame %d: %v", seq, err)
		}
	}

	frames, err := store.RecentFrames(ctx, 2)
	if err != nil {
		t.Fatalf("failed to query frames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Seq != 3 || frames[1].Seq != 2 {
		t.Errorf("order = [%d, %d], want newest first", frames[0].Seq, frames[1].Seq)
	}
	if frames[0].Delta != 3*time.Millisecond {
		t.Errorf("delta = %v, want 3ms", frames[0].Delta)
	}
	if frames[0].RecordedAt.IsZero() {
		t.Error("recorded_at not populated")
	}

	// Duplicate sequence numbers violate the primary key.
	if err := store.SaveFrame(ctx, Frame{Seq: 3}); err == nil {
		t.Error("duplicate frame sequence was accepted")
	}
}

func TestSaveAndQueryFailures(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	failures := []Failure{
		{Frame: 7, System: "physics", Phase: "Update", Stage: "system", Error: "panic: divide by zero"},
		{Frame: 7, System: "render", Phase: "Last", Stage: "condition", Error: "panic: nil map"},
		{Frame: 8, System: "physics", Phase: "Update", Stage: "system", Error: "panic: again"},
	}
	for _, f := range failures {
		if err := store.SaveFailure(ctx, f); err != nil {
			t.Fatalf("failed to save failure: %v", err)
		}
	}

	got, err := store.Failures(ctx, 7)
	if err != nil {
		t.Fatalf("failed to query failures: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d failures for frame 7, want 2", len(got))
	}
	if got[0].System != "physics" || got[1].System != "render" {
		t.Errorf("insertion order not preserved: %+v", got)
	}
	if got[0].Stage != "system" || got[0].Error != "panic: divide by zero" {
		t.Errorf("failure fields mangled: %+v", got[0])
	}

	// A clean frame yields an empty slice, not nil.
	clean, err := store.Failures(ctx, 99)
	if err != nil {
		t.Fatalf("failed to query clean frame: %v", err)
	}
	if clean == nil || len(clean) != 0 {
		t.Errorf("clean frame = %v, want empty slice", clean)
	}
}
