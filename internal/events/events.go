// Package events defines the observability events emitted by the core and
// the sinks that receive them. Delivery is best-effort: a slow or failing
// sink must never block or fail the user-facing action that produced the
// event.
package events

import (
	"time"

	"github.com/marcus/taskpilot/internal/logging"
)

// Event names emitted by the executor and background passes.
const (
	TaskCreated     = "task.created"
	TaskUpdated     = "task.updated"
	TaskDeleted     = "task.deleted"
	TaskError       = "task.error"
	TaskEscalated   = "task.escalated"
	TasksListed     = "tasks.listed"
	StatsGenerated  = "stats.generated"
	DedupeCompleted = "dedupe.completed"
	DedupeMerged    = "dedupe.merged"
	OracleFallback  = "oracle.fallback"
)

// Event is a single observability record. Attributes are scalar-valued.
type Event struct {
	Name  string         `json:"name"`
	Time  time.Time      `json:"time"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// New builds an event stamped with the current time.
func New(name string, attrs map[string]any) Event {
	return Event{Name: name, Time: time.Now(), Attrs: attrs}
}

// Sink receives events. Implementations must not panic and should drop
// rather than block when overwhelmed.
type Sink interface {
	Emit(Event)
}

// LogSink writes events to the structured log.
type LogSink struct {
	log *logging.Logger
}

// NewLogSink creates a sink backed by the given component logger.
func NewLogSink(log *logging.Logger) *LogSink {
	return &LogSink{log: log}
}

// Emit logs the event at info level with its attributes as fields.
func (s *LogSink) Emit(ev Event) {
	fields := make(map[string]any, len(ev.Attrs)+1)
	for k, v := range ev.Attrs {
		fields[k] = v
	}
	fields["event"] = ev.Name
	s.log.InfoCtx("event", fields)
}

// Discard is a sink that drops every event. Useful in tests.
type Discard struct{}

func (Discard) Emit(Event) {}
