// Package intent turns free-text chat into typed actions. Routing asks the
// extraction oracle first and falls back to deterministic rule parsing, so
// the system stays usable when the oracle is slow, down, or babbling.
package intent

import (
	"time"

	"github.com/marcus/taskpilot/internal/task"
)

// Kind tags an Action variant.
type Kind string

const (
	KindCreate  Kind = "create"
	KindList    Kind = "list"
	KindUpdate  Kind = "update"
	KindDelete  Kind = "delete"
	KindStats   Kind = "stats"
	KindDedupe  Kind = "dedupe"
	KindUnknown Kind = "unknown"
)

// Action is a typed, validated representation of user intent, distinct from
// the raw text that produced it. Exactly the payload matching Kind is set;
// Raw preserves the original text for Unknown actions so the surface can ask
// the user to rephrase instead of failing silently.
type Action struct {
	Kind   Kind
	Create *CreateAction
	List   *ListAction
	Update *UpdateAction
	Delete *DeleteAction
	Raw    string
}

// CreateAction carries the fields for a new task.
type CreateAction struct {
	Title         string
	Description   string
	DueAt         *time.Time
	Priority      task.Priority
	AddToCalendar bool
}

// ListAction optionally filters by status.
type ListAction struct {
	Status *task.Status
}

// UpdateAction addresses a task by id, or by exact title when no id was
// given, and carries only the fields to change.
type UpdateAction struct {
	ID       int64
	TitleRef string

	SetTitle       *string
	SetDescription *string
	SetDueAt       *time.Time
	SetStatus      *task.Status
	SetPriority    *task.Priority
}

// HasChanges reports whether the update carries at least one field.
func (u *UpdateAction) HasChanges() bool {
	return u.SetTitle != nil || u.SetDescription != nil || u.SetDueAt != nil ||
		u.SetStatus != nil || u.SetPriority != nil
}

// DeleteAction addresses a task by id, or by exact title when no id was
// given.
type DeleteAction struct {
	ID       int64
	TitleRef string
}

// Unknown builds an Unknown action preserving the original text.
func Unknown(raw string) Action {
	return Action{Kind: KindUnknown, Raw: raw}
}
