package intent

import (
	"testing"
	"time"

	"github.com/marcus/taskpilot/internal/task"
)

var parseNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func TestRuleParseUpdateByID(t *testing.T) {
	action := ruleParse("Mark task ID 3 as completed", parseNow)

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

func TestRuleParseCreate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantPrio  task.Priority
		wantDue   bool
	}{
		{
			"plain create",
			"create a task to buy groceries",
			"buy groceries",
			task.PriorityMedium,
			false,
		},
		{
			"quoted title",
			`add a task called "Submit quarterly report" with high priority`,
			"Submit quarterly report",
			task.PriorityHigh,
			false,
		},
		{
			"due tomorrow",
			"add a new task to water the plants due tomorrow",
			"water the plants",
			task.PriorityMedium,
			true,
		},
		{
			"trailing weekday",
			"create task finish slides friday",
			"finish slides",
			task.PriorityMedium,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := ruleParse(tt.input, parseNow)
			if action.Kind != KindCreate {
				t.Fatalf("kind = %s, want create (input %q)", action.Kind, tt.input)
			}
			if action.Create.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", action.Create.Title, tt.wantTitle)
			}
			if action.Create.Priority != tt.wantPrio {
				t.Errorf("priority = %s, want %s", action.Create.Priority, tt.wantPrio)
			}
			if (action.Create.DueAt != nil) != tt.wantDue {
				t.Errorf("due = %v, want set=%v", action.Create.DueAt, tt.wantDue)
			}
		})
	}
}

func TestRuleParseList(t *testing.T) {
	action := ruleParse("show my pending tasks", parseNow)
	if action.Kind != KindList {
		t.Fatalf("kind = %s, want list", action.Kind)
	}
	if action.List.Status == nil || *action.List.Status != task.StatusPending {
		t.Errorf("status filter = %v, want pending", action.List.Status)
	}

	unfiltered := ruleParse("list tasks", parseNow)
	if unfiltered.Kind != KindList || unfiltered.List.Status != nil {
		t.Errorf("expected unfiltered list, got %+v", unfiltered)
	}
}

func TestRuleParseDelete(t *testing.T) {
	byID := ruleParse("delete task 7", parseNow)
	if byID.Kind != KindDelete || byID.Delete.ID != 7 {
		t.Errorf("delete by id = %+v", byID)
	}

	byTitle := ruleParse(`remove the task "pay rent"`, parseNow)
	if byTitle.Kind != KindDelete || byTitle.Delete.TitleRef != "pay rent" {
		t.Errorf("delete by title = %+v", byTitle)
	}

	unresolvable := ruleParse("delete it", parseNow)
	if unresolvable.Kind != KindUnknown {
		t.Errorf("kind = %s, want unknown", unresolvable.Kind)
	}
}

func TestRuleParseDedupeBeatsDelete(t *testing.T) {
	for _, input := range []string{
		"remove duplicate tasks",
		"find duplicates in my list",
		"clean up duplicates please",
	} {
		action := ruleParse(input, parseNow)
		if action.Kind != KindDedupe {
			t.Errorf("ruleParse(%q) = %s, want dedupe", input, action.Kind)
		}
	}
}

func TestRuleParseStats(t *testing.T) {
	for _, input := range []string{"show me the stats", "task summary please", "overview"} {
		action := ruleParse(input, parseNow)
		if action.Kind != KindStats && action.Kind != KindList {
			t.Errorf("ruleParse(%q) = %s", input, action.Kind)
		}
	}

	if action := ruleParse("statistics", parseNow); action.Kind != KindStats {
		t.Errorf("kind = %s, want stats", action.Kind)
	}
}

func TestRuleParseUnknown(t *testing.T) {
	action := ruleParse("what's the weather like in Lisbon?", parseNow)
	if action.Kind != KindUnknown {
		t.Fatalf("kind = %s, want unknown", action.Kind)
	}
	if action.Raw == "" {
		t.Error("unknown action must preserve the original text")
	}
}

func TestRuleParseUpdatePriority(t *testing.T) {
	action := ruleParse("change task 5 priority to high", parseNow)
	if action.Kind != KindUpdate {
		t.Fatalf("kind = %s, want update", action.Kind)
	}
	if action.Update.ID != 5 {
		t.Errorf("id = %d, want 5", action.Update.ID)
	}
	if action.Update.SetPriority == nil || *action.Update.SetPriority != task.PriorityHigh {
		t.Errorf("priority = %v, want high", action.Update.SetPriority)
	}
}
