// Package nlu wraps the external language model used to turn free-text chat
// into structured intent guesses. The model is treated strictly as an
// oracle: typed input, typed output, bounded timeout, explicit failure —
// callers are expected to fall back to deterministic parsing when it errors.
package nlu

import (
	"context"
	"errors"
)

// ErrOracle wraps any extraction failure: transport errors, timeouts, and
// responses that could not be coerced into the schema.
var ErrOracle = errors.New("extraction oracle failed")

// Extraction is the fixed schema the oracle fills in. Zero values mean the
// slot was not present in the utterance.
type Extraction struct {
	Intent        string  `json:"intent"` // create, list, update, delete, stats, dedupe, unknown
	Title         string  `json:"title,omitempty"`
	Description   string  `json:"description,omitempty"`
	Priority      string  `json:"priority,omitempty"` // low, medium, high
	Status        string  `json:"status,omitempty"`   // pending, in_progress, completed
	DueDate       string  `json:"due_date,omitempty"` // YYYY-MM-DD, or a phrase to resolve
	TaskID        int64   `json:"task_id,omitempty"`
	AddToCalendar bool    `json:"add_to_calendar,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"` // 0..1, oracle's own estimate
}

// KnownIntent reports whether the extracted intent label is one the router
// can act on.
func (e *Extraction) KnownIntent() bool {
	switch e.Intent {
	case "create", "list", "update", "delete", "stats", "dedupe":
		return true
	}
	return false
}

// Extractor asks the oracle for a structured guess. history carries recent
// conversation turns, oldest first, for context.
type Extractor interface {
	Extract(ctx context.Context, text string, history []string) (*Extraction, error)
}

// Responder rewrites an operation outcome into a conversational reply.
// Implementations may fail; callers fall back to the deterministic text.
type Responder interface {
	Respond(ctx context.Context, userRequest, outcome string) (string, error)
}
