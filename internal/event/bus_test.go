package event

import (
	"testing"
	"time"
)

func TestBusOrder(t *testing.T) {
	b := &bus{q: make(chan Queueable, 4)}

	first := NewDeleteMessage(-100, 1)
	second := NewDeleteMessage(-100, 2)
	b.NQ(first)
	b.NQ(second)

	if got := b.DQ(); got != Queueable(first) {
		t.Fatalf("expected the first event back")
	}
	if got := b.DQ(); got != Queueable(second) {
		t.Fatalf("expected the second event back")
	}
	if got := b.DQ(); got != nil {
		t.Fatalf("empty queue must yield nil, got %v", got)
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	b := &bus{q: make(chan Queueable, 1)}

	b.NQ(NewDeleteMessage(-100, 1))
	// Must not block.
	b.NQ(NewDeleteMessage(-100, 2))

	got := b.DQ()
	if got == nil {
		t.Fatalf("expected the first event")
	}
	if dm := got.(*DeleteMessage); dm.MessageID != 1 {
		t.Fatalf("overflow must drop the newer event, got %d", dm.MessageID)
	}
}

func TestDeleteMessageLifecycle(t *testing.T) {
	dm := NewDeleteMessage(-100, 7)
	if dm.Type() != TypeDeleteMessage {
		t.Fatalf("unexpected type %q", dm.Type())
	}
	if dm.Expired() {
		t.Fatalf("fresh event must not be expired")
	}
	if dm.IsProcessed() || dm.IsDropped() {
		t.Fatalf("fresh event must be pending")
	}
	dm.Process()
	if !dm.IsProcessed() {
		t.Fatalf("processed flag must stick")
	}

	stale := &DeleteMessage{Base: CreateBase(TypeDeleteMessage, time.Now().Add(-time.Second))}
	if !stale.Expired() {
		t.Fatalf("past expiry must report expired")
	}
}
