// Package agent is the conversational surface: it routes one user message to
// an action, executes it, and renders the outcome as a reply. Rendering is
// deterministic; when a response oracle is configured its polished phrasing
// is preferred but any failure falls back to the deterministic text.
package agent

import (
	"context"
	"strings"
	"time"

	"github.com/marcus/taskpilot/internal/executor"
	"github.com/marcus/taskpilot/internal/intent"
	"github.com/marcus/taskpilot/internal/logging"
	"github.com/marcus/taskpilot/internal/nlu"
)

// Reply is one assistant turn.
type Reply struct {
	Message string
	Result  executor.Result
}

// Agent handles a chat session over the task system.
type Agent struct {
	router    *intent.Router
	exec      *executor.Executor
	responder nlu.Responder // nil disables polishing
	convo     *intent.Context
	now       func() time.Time
	log       *logging.Logger
}

// New creates an agent with a fresh conversation context.
func New(router *intent.Router, exec *executor.Executor, responder nlu.Responder) *Agent {
	return &Agent{
		router:    router,
		exec:      exec,
		responder: responder,
		convo:     intent.NewContext(),
		now:       time.Now,
		log:       logging.Component("agent"),
	}
}

// SessionID identifies the running conversation.
func (a *Agent) SessionID() string { return a.convo.SessionID }

// Handle processes one user message and returns the assistant reply.
func (a *Agent) Handle(ctx context.Context, text string) Reply {
	action := a.router.Route(ctx, text, a.convo)
	result := a.exec.Execute(ctx, action, a.now())
	message := Render(result)

	if a.responder != nil {
		polished, err := a.responder.Respond(ctx, text, message)
		if err != nil {
			a.log.Err(err).Msg("response polish failed, using plain reply")
		} else if strings.TrimSpace(polished) != "" {
			message = strings.TrimSpace(polished)
		}
	}

	a.convo.AddTurn("user", text)
	a.convo.AddTurn("assistant", message)

	return Reply{Message: message, Result: result}
}
