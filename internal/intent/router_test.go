package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/marcus/taskpilot/internal/nlu"
	"github.com/marcus/taskpilot/internal/task"
)

// stubExtractor returns a canned extraction or error.
type stubExtractor struct {
	extraction *nlu.Extraction
	err        error
	calls      int
	history    []string
}

func (s *stubExtractor) Extract(_ context.Context, _ string, history []string) (*nlu.Extraction, error) {
	s.calls++
	s.history = history
	if s.err != nil {
		return nil, s.err
	}
	return s.extraction, nil
}

func TestRouteOracleDisabledUsesRules(t *testing.T) {
	router := NewRouter(nil, nil)

	action := router.Route(context.Background(), "Mark task ID 3 as completed", NewContext())

	if action.Kind != KindUpdate {
		t.Fatalf("kind = %s, want update", action.Kind)
	}
	if action.Update.ID != 3 {
		t.Errorf("id = %d, want 3", action.Update.ID)
	}
	if action.Update.SetStatus == nil || *action.Update.SetStatus != task.StatusCompleted {
		t.Errorf("status = %v, want completed", action.Update.SetStatus)
	}
}

func TestRouteMapsWellFormedExtraction(t *testing.T) {
	stub := &stubExtractor{extraction: &nlu.Extraction{
		Intent:     "create",
		Title:      "Submit quarterly report",
		Priority:   "high",
		DueDate:    "2025-07-01",
		Confidence: 0.95,
	}}
	router := NewRouter(stub, nil)

	action := router.Route(context.Background(), "I need to hand in the Q2 report by July 1st", NewContext())

	if action.Kind != KindCreate {
		t.Fatalf("kind = %s, want create", action.Kind)
	}
	if action.Create.Title != "Submit quarterly report" {
		t.Errorf("title = %q", action.Create.Title)
	}
	if action.Create.Priority != task.PriorityHigh {
		t.Errorf("priority = %s, want high", action.Create.Priority)
	}
	if action.Create.DueAt == nil {
		t.Error("due date not resolved")
	}
}

func TestRouteOracleErrorFallsBack(t *testing.T) {
	stub := &stubExtractor{err: errors.New("deadline exceeded")}
	router := NewRouter(stub, nil)

	action := router.Route(context.Background(), "delete task 4", NewContext())

	if stub.calls != 1 {
		t.Errorf("oracle calls = %d, want 1", stub.calls)
	}
	if action.Kind != KindDelete || action.Delete.ID != 4 {
		t.Errorf("fallback action = %+v, want delete id 4", action)
	}
}

func TestRouteLowConfidenceFallsBack(t *testing.T) {
	stub := &stubExtractor{extraction: &nlu.Extraction{
		Intent:     "delete",
		TaskID:     99,
		Confidence: 0.2,
	}}
	router := NewRouter(stub, nil)

	// The rules see a create; the low-confidence delete guess must not win.
	action := router.Route(context.Background(), "add a task to call the dentist", NewContext())

	if action.Kind != KindCreate {
		t.Fatalf("kind = %s, want create from fallback", action.Kind)
	}
}

func TestRouteMalformedExtractionFallsBack(t *testing.T) {
	stub := &stubExtractor{extraction: &nlu.Extraction{
		Intent:     "create",
		Title:      "", // create without a title cannot be executed
		Confidence: 0.9,
	}}
	router := NewRouter(stub, nil)

	action := router.Route(context.Background(), "add a task to renew my passport", NewContext())

	if action.Kind != KindCreate {
		t.Fatalf("kind = %s, want create from fallback", action.Kind)
	}
	if action.Create.Title == "" {
		t.Error("fallback produced an empty title")
	}
}

func TestRouteTrustsOracleUnknown(t *testing.T) {
	stub := &stubExtractor{extraction: &nlu.Extraction{Intent: "unknown", Confidence: 0.9}}
	router := NewRouter(stub, nil)

	action := router.Route(context.Background(), "list the best pizza toppings", NewContext())

	if action.Kind != KindUnknown {
		t.Fatalf("kind = %s, want unknown", action.Kind)
	}
	if action.Raw != "list the best pizza toppings" {
		t.Errorf("raw = %q", action.Raw)
	}
}

func TestRoutePassesConversationHistory(t *testing.T) {
	stub := &stubExtractor{extraction: &nlu.Extraction{Intent: "stats", Confidence: 1}}
	router := NewRouter(stub, nil)

	convo := NewContext()
	convo.AddTurn("user", "add a task to buy milk")
	convo.AddTurn("assistant", "Task created with ID 1")

	router.Route(context.Background(), "how many tasks do I have?", convo)

	if len(stub.history) != 2 {
		t.Fatalf("history length = %d, want 2", len(stub.history))
	}
}

func TestRouteEmptyInput(t *testing.T) {
	stub := &stubExtractor{extraction: &nlu.Extraction{Intent: "stats"}}
	router := NewRouter(stub, nil)

	action := router.Route(context.Background(), "   ", NewContext())

	if action.Kind != KindUnknown {
		t.Errorf("kind = %s, want unknown", action.Kind)
	}
	if stub.calls != 0 {
		t.Errorf("oracle consulted for empty input")
	}
}

func TestContextHistoryBounded(t *testing.T) {
	convo := NewContext()
	for i := 0; i < 50; i++ {
		convo.AddTurn("user", "message")
	}
	if got := len(convo.History()); got != defaultHistoryLimit {
		t.Errorf("history length = %d, want %d", got, defaultHistoryLimit)
	}
	if convo.SessionID == "" {
		t.Error("missing session id")
	}
}
