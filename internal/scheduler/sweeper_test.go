package scheduler

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/marcus/taskpilot/internal/db"
	"github.com/marcus/taskpilot/internal/events"
	"github.com/marcus/taskpilot/internal/store"
	"github.com/marcus/taskpilot/internal/task"
)

type captureSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captureSink) Emit(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureSink) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return store.New(database)
}

func TestSweepDetectsEscalation(t *testing.T) {
	st := newTestStore(t)
	now := time.Now()
	farDue := now.Add(72 * time.Hour)

	created, err := st.Create(store.CreateParams{Title: "file taxes", Priority: task.PriorityLow, DueAt: &farDue})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sink := &captureSink{}
	sweeper := NewSweeper(st, sink)

	// Far from due: nothing escalates.
	escalated, err := sweeper.Sweep(now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(escalated) != 0 {
		t.Fatalf("escalated = %d, want 0", len(escalated))
	}

	// Advance inside the escalation window.
	later := farDue.Add(-2 * time.Hour)
	escalated, err = sweeper.Sweep(later)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(escalated) != 1 || escalated[0].ID != created.ID {
		t.Fatalf("escalated = %+v, want task %d", escalated, created.ID)
	}
	if sink.count(events.TaskEscalated) != 1 {
		t.Errorf("task.escalated events = %d, want 1", sink.count(events.TaskEscalated))
	}

	// The stored base priority must be untouched.
	stored, err := st.Get(created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Priority != task.PriorityLow {
		t.Errorf("base priority = %s, escalation must not be persisted", stored.Priority)
	}

	// A repeat sweep at the same time reports nothing new.
	escalated, err = sweeper.Sweep(later)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(escalated) != 0 {
		t.Errorf("repeat sweep escalated = %d, want 0", len(escalated))
	}
}

func TestSweepIgnoresCompleted(t *testing.T) {
	st := newTestStore(t)
	now := time.Now()
	soon := now.Add(time.Hour)

	created, err := st.Create(store.CreateParams{Title: "old deadline", Priority: task.PriorityLow, DueAt: &soon})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	done := task.StatusCompleted
	if _, err := st.Update(created.ID, store.UpdateParams{Status: &done}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	sweeper := NewSweeper(st, nil)
	escalated, err := sweeper.Sweep(now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(escalated) != 0 {
		t.Errorf("completed task escalated: %+v", escalated)
	}
}

func TestSchedulerRunsIntervalJob(t *testing.T) {
	s := New()

	var mu sync.Mutex
	runs := 0
	if err := s.AddInterval("tick", 50*time.Millisecond, func() {
		mu.Lock()
		runs++
		mu.Unlock()
	}); err != nil {
		t.Fatalf("AddInterval: %v", err)
	}

	s.Start()
	time.Sleep(180 * time.Millisecond)
	s.Stop()

	mu.Lock()
	defer mu.Unlock()
	if runs < 2 {
		t.Errorf("job ran %d times, want at least 2", runs)
	}
}

func TestSchedulerRejectsBadInput(t *testing.T) {
	s := New()
	if err := s.AddCron("bad", "not a cron expr", func() {}); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	if err := s.AddInterval("bad", 0, func() {}); err == nil {
		t.Error("expected error for zero interval")
	}
}
