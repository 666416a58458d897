package events

import (
	"sync"
	"testing"
	"time"
)

// captureSink records events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Emit(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureSink) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestNewStampsTime(t *testing.T) {
	before := time.Now()
	ev := New(TaskCreated, map[string]any{"task_id": int64(1)})
	after := time.Now()

	if ev.Name != TaskCreated {
		t.Errorf("name = %q, want %q", ev.Name, TaskCreated)
	}
	if ev.Time.Before(before) || ev.Time.After(after) {
		t.Errorf("timestamp %v outside [%v, %v]", ev.Time, before, after)
	}
	if ev.Attrs["task_id"] != int64(1) {
		t.Errorf("attrs = %v", ev.Attrs)
	}
}

func TestAsyncSinkDelivers(t *testing.T) {
	capture := &captureSink{}
	sink := NewAsyncSink(capture, 16)

	for i := 0; i < 10; i++ {
		sink.Emit(New(TaskCreated, nil))
	}
	sink.Close()

	if got := capture.len(); got != 10 {
		t.Errorf("delivered %d events, want 10", got)
	}
}

// blockingSink never returns from Emit until released, simulating a stuck
// downstream consumer.
type blockingSink struct{ release chan struct{} }

func (b *blockingSink) Emit(Event) { <-b.release }

func TestAsyncSinkDropsWhenFull(t *testing.T) {
	blocked := &blockingSink{release: make(chan struct{})}
	sink := NewAsyncSink(blocked, 2)

	// One event is taken by the dispatcher and blocks; two fill the buffer;
	// anything beyond that must drop without blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			sink.Emit(New(TaskUpdated, nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a stuck sink")
	}

	close(blocked.release)
	sink.Close()

	if sink.Dropped() == 0 {
		t.Error("expected some events to be dropped")
	}
}
