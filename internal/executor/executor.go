// Package executor carries typed actions out against the task store. Every
// outcome, success or failure, is a typed Result; domain failures such as a
// missing task or an empty title never surface as Go errors to the caller.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marcus/taskpilot/internal/dedupe"
	"github.com/marcus/taskpilot/internal/events"
	"github.com/marcus/taskpilot/internal/intent"
	"github.com/marcus/taskpilot/internal/logging"
	"github.com/marcus/taskpilot/internal/store"
	"github.com/marcus/taskpilot/internal/task"
)

// ErrCode classifies a failed Result.
type ErrCode string

const (
	CodeValidation ErrCode = "validation"
	CodeNotFound   ErrCode = "not_found"
	CodeInternal   ErrCode = "internal"
)

// ResultError describes a failed operation in terms the chat surface can
// render for the user.
type ResultError struct {
	Code    ErrCode `json:"code"`
	Message string  `json:"message"`
}

// Result is the typed outcome of executing one Action. Kind matches the
// action that produced it; ErrInfo is set instead of a payload on failure.
type Result struct {
	Kind    intent.Kind    `json:"kind"`
	ErrInfo *ResultError   `json:"error,omitempty"`
	Created *task.Task     `json:"created,omitempty"`
	Updated *task.Task     `json:"updated,omitempty"`
	Deleted *task.Task     `json:"deleted,omitempty"`
	Tasks   []task.Task    `json:"tasks,omitempty"`
	Stats   *store.Stats   `json:"stats,omitempty"`
	Dedupe  *dedupe.Report `json:"dedupe,omitempty"`
	Raw     string         `json:"raw,omitempty"`

	// Warning carries a non-fatal problem, e.g. a calendar that could not
	// be reached after the task itself was created.
	Warning string `json:"warning,omitempty"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.ErrInfo == nil }

// CalendarAdder pushes a task deadline onto an external calendar.
type CalendarAdder interface {
	AddEvent(ctx context.Context, title string, due time.Time) (string, error)
}

// Executor executes actions against the store.
type Executor struct {
	store    *store.Store
	deduper  *dedupe.Engine
	calendar CalendarAdder // nil when no calendar is configured
	sink     events.Sink
	log      *logging.Logger
}

// New creates an Executor. deduper and calendar may be nil; the matching
// actions then fail with a validation error instead of panicking.
func New(st *store.Store, deduper *dedupe.Engine, calendar CalendarAdder, sink events.Sink) *Executor {
	if sink == nil {
		sink = events.Discard{}
	}
	return &Executor{
		store:    st,
		deduper:  deduper,
		calendar: calendar,
		sink:     sink,
		log:      logging.Component("executor"),
	}
}

// Execute runs one action at the given time and returns its typed Result.
func (e *Executor) Execute(ctx context.Context, action intent.Action, now time.Time) Result {
	switch action.Kind {
	case intent.KindCreate:
		return e.create(ctx, action.Create, now)
	case intent.KindList:
		return e.list(action.List, now)
	case intent.KindUpdate:
		return e.update(action.Update, now)
	case intent.KindDelete:
		return e.delete(action.Delete)
	case intent.KindStats:
		return e.stats(now)
	case intent.KindDedupe:
		return e.dedupe(ctx)
	case intent.KindUnknown:
		return Result{Kind: intent.KindUnknown, Raw: action.Raw}
	default:
		return e.fail(action.Kind, CodeValidation, fmt.Sprintf("unsupported action %q", action.Kind))
	}
}

func (e *Executor) create(ctx context.Context, a *intent.CreateAction, now time.Time) Result {
	if a == nil {
		return e.fail(intent.KindCreate, CodeValidation, "create action missing payload")
	}

	created, err := e.store.Create(store.CreateParams{
		Title:       a.Title,
		Description: a.Description,
		DueAt:       a.DueAt,
		Priority:    a.Priority,
	})
	if err != nil {
		if errors.Is(err, task.ErrEmptyTitle) {
			return e.fail(intent.KindCreate, CodeValidation, "a task needs a title")
		}
		return e.fail(intent.KindCreate, CodeInternal, err.Error())
	}

	result := Result{Kind: intent.KindCreate, Created: &created}

	if a.AddToCalendar {
		switch {
		case created.DueAt == nil:
			result.Warning = "no due date to put on the calendar"
		case e.calendar == nil:
			result.Warning = "calendar is not configured"
		default:
			if _, err := e.calendar.AddEvent(ctx, created.Title, *created.DueAt); err != nil {
				e.log.Err(err).Int64("task_id", created.ID).Msg("calendar event failed")
				result.Warning = "the task was created but the calendar could not be updated"
			}
		}
	}

	e.sink.Emit(events.New(events.TaskCreated, map[string]any{
		"task_id":  created.ID,
		"priority": string(created.Priority),
	}))
	return result
}

func (e *Executor) list(a *intent.ListAction, now time.Time) Result {
	var filter store.Filter
	if a != nil {
		filter.Status = a.Status
	}

	tasks, err := e.store.List(filter, now)
	if err != nil {
		return e.fail(intent.KindList, CodeInternal, err.Error())
	}

	e.sink.Emit(events.New(events.TasksListed, map[string]any{"count": len(tasks)}))
	return Result{Kind: intent.KindList, Tasks: tasks}
}

func (e *Executor) update(a *intent.UpdateAction, now time.Time) Result {
	if a == nil {
		return e.fail(intent.KindUpdate, CodeValidation, "update action missing payload")
	}

	id := a.ID
	if id == 0 {
		found, err := e.store.FindByTitle(a.TitleRef)
		if errors.Is(err, store.ErrNotFound) {
			return e.fail(intent.KindUpdate, CodeNotFound, fmt.Sprintf("no task titled %q", a.TitleRef))
		}
		if err != nil {
			return e.fail(intent.KindUpdate, CodeInternal, err.Error())
		}
		id = found.ID
	}

	updated, err := e.store.Update(id, store.UpdateParams{
		Title:       a.SetTitle,
		Description: a.SetDescription,
		DueAt:       a.SetDueAt,
		Status:      a.SetStatus,
		Priority:    a.SetPriority,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return e.fail(intent.KindUpdate, CodeNotFound, fmt.Sprintf("no task with id %d", id))
		case errors.Is(err, task.ErrEmptyTitle):
			return e.fail(intent.KindUpdate, CodeValidation, "a task needs a title")
		default:
			return e.fail(intent.KindUpdate, CodeInternal, err.Error())
		}
	}

	e.sink.Emit(events.New(events.TaskUpdated, map[string]any{
		"task_id": updated.ID,
		"status":  string(updated.Status),
	}))
	return Result{Kind: intent.KindUpdate, Updated: &updated}
}

func (e *Executor) delete(a *intent.DeleteAction) Result {
	if a == nil {
		return e.fail(intent.KindDelete, CodeValidation, "delete action missing payload")
	}

	id := a.ID
	var target task.Task
	if id == 0 {
		found, err := e.store.FindByTitle(a.TitleRef)
		if errors.Is(err, store.ErrNotFound) {
			return e.fail(intent.KindDelete, CodeNotFound, fmt.Sprintf("no task titled %q", a.TitleRef))
		}
		if err != nil {
			return e.fail(intent.KindDelete, CodeInternal, err.Error())
		}
		id, target = found.ID, found
	} else {
		found, err := e.store.Get(id)
		if errors.Is(err, store.ErrNotFound) {
			return e.fail(intent.KindDelete, CodeNotFound, fmt.Sprintf("no task with id %d", id))
		}
		if err != nil {
			return e.fail(intent.KindDelete, CodeInternal, err.Error())
		}
		target = found
	}

	removed, err := e.store.Delete(id)
	if err != nil {
		return e.fail(intent.KindDelete, CodeInternal, err.Error())
	}
	if !removed {
		return e.fail(intent.KindDelete, CodeNotFound, fmt.Sprintf("no task with id %d", id))
	}

	e.sink.Emit(events.New(events.TaskDeleted, map[string]any{"task_id": id}))
	return Result{Kind: intent.KindDelete, Deleted: &target}
}

func (e *Executor) stats(now time.Time) Result {
	stats, err := e.store.Stats(now)
	if err != nil {
		return e.fail(intent.KindStats, CodeInternal, err.Error())
	}

	e.sink.Emit(events.New(events.StatsGenerated, map[string]any{"total": stats.Total}))
	return Result{Kind: intent.KindStats, Stats: &stats}
}

func (e *Executor) dedupe(ctx context.Context) Result {
	if e.deduper == nil {
		return e.fail(intent.KindDedupe, CodeValidation, "deduplication is not configured")
	}

	report, err := e.deduper.Run(ctx)
	if err != nil {
		return e.fail(intent.KindDedupe, CodeInternal, err.Error())
	}
	return Result{Kind: intent.KindDedupe, Dedupe: &report}
}

// fail builds an error Result and emits a task.error event.
func (e *Executor) fail(kind intent.Kind, code ErrCode, msg string) Result {
	e.log.WarnCtx("operation failed", map[string]any{"kind": string(kind), "code": string(code), "error": msg})
	e.sink.Emit(events.New(events.TaskError, map[string]any{
		"kind":  string(kind),
		"code":  string(code),
		"error": msg,
	}))
	return Result{Kind: kind, ErrInfo: &ResultError{Code: code, Message: msg}}
}
