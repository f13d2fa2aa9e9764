package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/rehearse/internal/domain/model"
)

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	event1 := model.FinishedSession{EventID: "evt1", SessionID: "sess1"}
	if !q.Enqueue(ctx, event1) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	eventChan := q.Dequeue(ctx)
	event := <-eventChan
	if event.SessionID != "sess1" {
		t.Errorf("expected sess1, got %v", event.SessionID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		e := model.FinishedSession{EventID: fmt.Sprintf("evt%d", i), SessionID: fmt.Sprintf("sess%d", i)}
		if !q.Enqueue(ctx, e) {
			t.Errorf("expected enqueue %d to succeed", i)
		}
	}

	// Enqueue when full must refuse without blocking.
	overflow := model.FinishedSession{EventID: "evt-overflow", SessionID: "sess-overflow"}
	if q.Enqueue(ctx, overflow) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	q.Enqueue(ctx, model.FinishedSession{EventID: "evt1", SessionID: "sess1"})

	if err := q.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}

	// Events already queued still drain after close.
	eventChan := q.Dequeue(ctx)
	select {
	case event, ok := <-eventChan:
		if !ok {
			t.Fatal("expected buffered event before channel close")
		}
		if event.SessionID != "sess1" {
			t.Errorf("expected sess1, got %v", event.SessionID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out draining queue")
	}

	select {
	case _, ok := <-eventChan:
		if ok {
			t.Error("expected channel to close after drain")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	if q.Enqueue(ctx, model.FinishedSession{EventID: "evt2", SessionID: "sess2"}) {
		t.Error("expected enqueue after close to fail")
	}
}

func TestInMemoryQueue_BufferAtLeastCapacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(8), WithBufferSize(2))
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		e := model.FinishedSession{EventID: fmt.Sprintf("evt%d", i), SessionID: fmt.Sprintf("sess%d", i)}
		if !q.Enqueue(ctx, e) {
			t.Fatalf("expected enqueue %d to succeed", i)
		}
	}
}
