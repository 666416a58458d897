// Package scheduler runs the background jobs of the daemon: the escalation
// sweep and the periodic dedup pass. Jobs are registered by cron expression
// or fixed interval; cron jobs run on the cron goroutine, interval jobs each
// get a ticker goroutine.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/marcus/taskpilot/internal/logging"
)

type intervalJob struct {
	name  string
	every time.Duration
	run   func()
}

// Scheduler wraps a cron runner plus ticker-driven interval jobs.
type Scheduler struct {
	cron      *cron.Cron
	intervals []intervalJob
	stop      chan struct{}
	wg        sync.WaitGroup
	log       *logging.Logger
}

// New creates a stopped scheduler.
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  logging.Component("scheduler"),
	}
}

// AddCron registers a job under a standard 5-field cron expression.
func (s *Scheduler) AddCron(name, expr string, job func()) error {
	_, err := s.cron.AddFunc(expr, job)
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, expr, err)
	}
	s.log.InfoCtx("job scheduled", map[string]any{"job": name, "cron": expr})
	return nil
}

// AddInterval registers a job to run every d. Intervals are driven by a
// time.Ticker rather than cron's @every, which truncates to whole seconds.
func (s *Scheduler) AddInterval(name string, d time.Duration, job func()) error {
	if d <= 0 {
		return fmt.Errorf("schedule %s: interval must be positive, got %s", name, d)
	}
	s.intervals = append(s.intervals, intervalJob{name: name, every: d, run: job})
	s.log.InfoCtx("job scheduled", map[string]any{"job": name, "every": d.String()})
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.stop = make(chan struct{})
	for _, j := range s.intervals {
		j := j
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ticker := time.NewTicker(j.every)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					j.run()
				case <-s.stop:
					return
				}
			}
		}()
	}
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops scheduling new runs and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s.stop != nil {
		close(s.stop)
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}
