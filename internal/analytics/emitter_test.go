package analytics

import (
	"testing"
	"time"
)

func TestRecordNeverBlocks(t *testing.T) {
	// No Redis client: every drained event counts as dropped, and Record
	// must return immediately regardless.
	e := NewEmitter(nil, nil, WithBufferSize(2))
	defer e.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			e.Record(Event{UserID: "u1", Query: "go developer"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked")
	}
}

func TestDroppedCountsWithoutBackend(t *testing.T) {
	e := NewEmitter(nil, nil)
	for i := 0; i < 10; i++ {
		e.Record(Event{Query: "test"})
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := e.Dropped(); got != 10 {
		t.Errorf("Dropped() = %d, want 10", got)
	}
}

func TestRecordSetsTimestamp(t *testing.T) {
	e := NewEmitter(nil, nil)
	defer e.Close()

	event := Event{Query: "test"}
	e.Record(event)
	// The original value is untouched; the emitter stamps its own copy.
	if !event.Timestamp.IsZero() {
		t.Error("Record mutated caller's event")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	e := NewEmitter(nil, nil)
	if err := e.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
