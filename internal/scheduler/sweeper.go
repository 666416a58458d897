package scheduler

import (
	"time"

	"github.com/marcus/taskpilot/internal/events"
	"github.com/marcus/taskpilot/internal/logging"
	"github.com/marcus/taskpilot/internal/store"
	"github.com/marcus/taskpilot/internal/task"
)

// Sweeper detects tasks whose effective priority has risen since the last
// sweep and emits task.escalated events for them. It never writes the
// escalated priority back; effective priority stays derived, so reads outside
// sweeps see exactly the same escalation.
type Sweeper struct {
	store *store.Store
	sink  events.Sink
	log   *logging.Logger

	// previous effective priority per task id, from the last sweep.
	previous map[int64]task.Priority
}

// NewSweeper creates a sweeper over the store.
func NewSweeper(st *store.Store, sink events.Sink) *Sweeper {
	if sink == nil {
		sink = events.Discard{}
	}
	return &Sweeper{
		store:    st,
		sink:     sink,
		log:      logging.Component("sweeper"),
		previous: make(map[int64]task.Priority),
	}
}

// Sweep evaluates every task at the given time and returns the tasks that
// newly escalated. The first sweep primes the baseline and reports tasks that
// are already escalated above their base priority.
func (s *Sweeper) Sweep(now time.Time) ([]task.Task, error) {
	all, err := s.store.All()
	if err != nil {
		return nil, err
	}

	current := make(map[int64]task.Priority, len(all))
	var escalated []task.Task

	for _, t := range all {
		effective := task.EffectivePriority(t, now)
		current[t.ID] = effective

		before, seen := s.previous[t.ID]
		if !seen {
			before = t.Priority
		}
		if effective.Rank() > before.Rank() {
			escalated = append(escalated, t)
			s.sink.Emit(events.New(events.TaskEscalated, map[string]any{
				"task_id": t.ID,
				"from":    string(before),
				"to":      string(effective),
			}))
			s.log.InfoCtx("task escalated", map[string]any{
				"task_id": t.ID,
				"from":    string(before),
				"to":      string(effective),
			})
		}
	}

	s.previous = current
	return escalated, nil
}
