package intent

import (
	"context"
	"strings"
	"time"

	"github.com/marcus/taskpilot/internal/events"
	"github.com/marcus/taskpilot/internal/logging"
	"github.com/marcus/taskpilot/internal/nlu"
	"github.com/marcus/taskpilot/internal/task"
)

// minConfidence is the oracle confidence below which an intent guess is
// treated as unusable. An oracle that reports no confidence at all is taken
// at its word.
const minConfidence = 0.5

// Router maps free text plus conversation context to a typed Action.
type Router struct {
	extractor nlu.Extractor // nil disables the oracle entirely
	sink      events.Sink
	log       *logging.Logger
}

// NewRouter creates a router. extractor may be nil to run rules-only.
func NewRouter(extractor nlu.Extractor, sink events.Sink) *Router {
	if sink == nil {
		sink = events.Discard{}
	}
	return &Router{
		extractor: extractor,
		sink:      sink,
		log:       logging.Component("intent"),
	}
}

// Route classifies text into an Action. The oracle is consulted first; on
// failure, timeout, or a low-confidence or malformed guess the deterministic
// rule parser takes over. No partial oracle output is ever acted on: either
// the extraction maps cleanly to an Action or it is discarded whole.
func (r *Router) Route(ctx context.Context, text string, convo *Context) Action {
	now := time.Now()

	if strings.TrimSpace(text) == "" {
		return Unknown(text)
	}

	if r.extractor != nil {
		var history []string
		if convo != nil {
			history = convo.History()
		}

		extraction, err := r.extractor.Extract(ctx, text, history)
		switch {
		case err != nil:
			r.log.Err(err).Msg("oracle extraction failed, using rule parser")
			r.sink.Emit(events.New(events.OracleFallback, map[string]any{"reason": "error"}))
		case extraction.Confidence > 0 && extraction.Confidence < minConfidence:
			r.log.InfoCtx("low-confidence extraction discarded", map[string]any{"confidence": extraction.Confidence})
			r.sink.Emit(events.New(events.OracleFallback, map[string]any{"reason": "low_confidence"}))
		default:
			if action, ok := r.fromExtraction(extraction, text, now); ok {
				return action
			}
			r.sink.Emit(events.New(events.OracleFallback, map[string]any{"reason": "unmappable"}))
		}
	}

	return ruleParse(text, now)
}

// fromExtraction maps a schema-conforming extraction onto an Action. It
// returns ok=false when the guess cannot be mapped cleanly, in which case
// the caller falls back to rules rather than executing half an action.
func (r *Router) fromExtraction(e *nlu.Extraction, raw string, now time.Time) (Action, bool) {
	if !e.KnownIntent() {
		if e.Intent == "unknown" {
			// The oracle affirmatively classified this as out of scope;
			// trust it rather than keyword-guessing.
			return Unknown(raw), true
		}
		return Action{}, false
	}

	switch e.Intent {
	case "create":
		title := strings.TrimSpace(e.Title)
		if title == "" {
			return Action{}, false
		}
		create := &CreateAction{
			Title:         title,
			Description:   strings.TrimSpace(e.Description),
			Priority:      task.PriorityMedium,
			AddToCalendar: e.AddToCalendar,
		}
		if e.Priority != "" {
			p, err := task.ParsePriority(e.Priority)
			if err != nil {
				return Action{}, false
			}
			create.Priority = p
		}
		if e.DueDate != "" {
			due, err := ResolveDueDate(e.DueDate, now)
			if err != nil {
				return Action{}, false
			}
			create.DueAt = &due
		}
		return Action{Kind: KindCreate, Create: create}, true

	case "list":
		list := &ListAction{}
		if e.Status != "" {
			s, err := task.ParseStatus(e.Status)
			if err != nil {
				return Action{}, false
			}
			list.Status = &s
		}
		return Action{Kind: KindList, List: list}, true

	case "update":
		update := &UpdateAction{ID: e.TaskID}
		if e.TaskID == 0 {
			if strings.TrimSpace(e.Title) == "" {
				return Action{}, false
			}
			update.TitleRef = strings.TrimSpace(e.Title)
		} else if t := strings.TrimSpace(e.Title); t != "" {
			update.SetTitle = &t
		}
		if e.Status != "" {
			s, err := task.ParseStatus(e.Status)
			if err != nil {
				return Action{}, false
			}
			update.SetStatus = &s
		}
		if e.Priority != "" {
			p, err := task.ParsePriority(e.Priority)
			if err != nil {
				return Action{}, false
			}
			update.SetPriority = &p
		}
		if e.Description != "" {
			d := strings.TrimSpace(e.Description)
			update.SetDescription = &d
		}
		if e.DueDate != "" {
			due, err := ResolveDueDate(e.DueDate, now)
			if err != nil {
				return Action{}, false
			}
			update.SetDueAt = &due
		}
		if !update.HasChanges() {
			return Action{}, false
		}
		return Action{Kind: KindUpdate, Update: update}, true

	case "delete":
		del := &DeleteAction{ID: e.TaskID, TitleRef: strings.TrimSpace(e.Title)}
		if del.ID == 0 && del.TitleRef == "" {
			return Action{}, false
		}
		return Action{Kind: KindDelete, Delete: del}, true

	case "stats":
		return Action{Kind: KindStats}, true

	case "dedupe":
		return Action{Kind: KindDedupe}, true
	}

	return Action{}, false
}
