package signal

import (
	"errors"
	"testing"
)

// onSource exposes an On-style connect method.
type onSource struct{ s *Signal }

func (o onSource) On(h func()) func() { return o.s.Connect(h) }

// subSource exposes a Subscribe-style connect method.
type subSource struct{ s *Signal }

func (o subSource) Subscribe(h func()) func() { return o.s.Connect(h) }

// TestResolve tests the closed set of accepted event shapes.
func TestResolve(t *testing.T) {
	sig := NewSignal()

	tests := []struct {
		name    string
		event   any
		wantErr bool
	}{
		{name: "native signal with Connect", event: sig},
		{name: "bare connector func", event: func(h func()) func() { return sig.Connect(h) }},
		{name: "Connector type", event: Connector(sig.Connect)},
		{name: "On method object", event: onSource{s: sig}},
		{name: "Subscribe method object", event: subSource{s: sig}},
		{name: "unrecognized value", event: 42, wantErr: true},
		{name: "wrong function shape", event: func() {}, wantErr: true},
		{name: "nil", event: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := Resolve(tt.event)
			if tt.wantErr {
				if !errors.Is(err, ErrNoValidEventConnector) {
					t.Fatalf("expected ErrNoValidEventConnector, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}

			// The resolved connector must actually subscribe.
			fired := 0
			disconnect := conn(func() { fired++ })
			sig.Fire()
			if fired != 1 {
				t.Fatalf("handler fired %d times, want 1", fired)
			}
			disconnect()
			sig.Fire()
			if fired != 1 {
				t.Fatalf("handler fired after disconnect")
			}
		})
	}
}

// TestSignalFireOrder tests that handlers run in connection order.
func TestSignalFireOrder(t *testing.T) {
	sig := NewSignal()
	var got []int
	sig.Connect(func() { got = append(got, 1) })
	sig.Connect(func() { got = append(got, 2) })
	sig.Connect(func() { got = append(got, 3) })

	sig.Fire()

	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("fired %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fired %v, want %v", got, want)
		}
	}
}

// TestSignalDisconnect tests disconnect idempotency and mid-fire mutation.
func TestSignalDisconnect(t *testing.T) {
	sig := NewSignal()

	fired := 0
	disconnect := sig.Connect(func() { fired++ })
	disconnect()
	disconnect() // second call is a no-op
	sig.Fire()
	if fired != 0 {
		t.Fatalf("disconnected handler fired %d times", fired)
	}

	// A handler disconnecting a later handler mid-fire does not affect the
	// current firing; the snapshot was taken up front.
	var later func()
	firstRan, laterRan := 0, 0
	sig.Connect(func() {
		firstRan++
		later()
	})
	later = sig.Connect(func() { laterRan++ })

	sig.Fire()
	if firstRan != 1 || laterRan != 1 {
		t.Fatalf("mid-fire disconnect altered current firing: first=%d later=%d", firstRan, laterRan)
	}

	sig.Fire()
	if laterRan != 1 {
		t.Fatalf("handler fired after mid-fire disconnect: %d", laterRan)
	}
	if sig.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", sig.Count())
	}
}
