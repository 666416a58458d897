package intent

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// defaultHistoryLimit bounds how many turns are kept per session.
const defaultHistoryLimit = 12

// Context is the explicit conversation state passed into Route. It is
// created per session, carried by the caller, and discarded when the session
// ends; nothing about the conversation lives in package globals.
type Context struct {
	SessionID string
	StartedAt time.Time

	mu    sync.Mutex
	turns []string
	limit int
}

// NewContext creates a fresh conversation context.
func NewContext() *Context {
	return &Context{
		SessionID: uuid.NewString(),
		StartedAt: time.Now(),
		limit:     defaultHistoryLimit,
	}
}

// AddTurn records one exchange turn. role is "user" or "assistant".
func (c *Context) AddTurn(role, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns, fmt.Sprintf("%s: %s", role, text))
	if len(c.turns) > c.limit {
		c.turns = c.turns[len(c.turns)-c.limit:]
	}
}

// History returns the recorded turns, oldest first.
func (c *Context) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.turns))
	copy(out, c.turns)
	return out
}
