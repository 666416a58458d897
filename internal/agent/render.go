package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/marcus/taskpilot/internal/executor"
	"github.com/marcus/taskpilot/internal/intent"
	"github.com/marcus/taskpilot/internal/task"
)

const dueLayout = "Mon, Jan 2 2006 15:04"

// Render turns a Result into the deterministic reply text.
func Render(r executor.Result) string {
	if r.ErrInfo != nil {
		return renderError(r)
	}

	var msg string
	switch r.Kind {
	case intent.KindCreate:
		msg = renderCreated(r)
	case intent.KindList:
		msg = renderList(r.Tasks)
	case intent.KindUpdate:
		t := r.Updated
		if t.Status == task.StatusCompleted {
			msg = fmt.Sprintf("Nice, marked task %d (%q) as completed.", t.ID, t.Title)
		} else {
			msg = fmt.Sprintf("Updated task %d (%q): %s, %s priority%s.", t.ID, t.Title, t.Status, t.Priority, renderDue(t.DueAt))
		}
	case intent.KindDelete:
		msg = fmt.Sprintf("Deleted task %d (%q).", r.Deleted.ID, r.Deleted.Title)
	case intent.KindStats:
		msg = renderStats(r)
	case intent.KindDedupe:
		msg = renderDedupe(r)
	case intent.KindUnknown:
		msg = "I didn't catch a task operation in that. I can create, list, update, and delete tasks, show stats, or clean up duplicates."
	default:
		msg = "Done."
	}

	if r.Warning != "" {
		msg += " Heads up: " + r.Warning + "."
	}
	return msg
}

func renderError(r executor.Result) string {
	switch r.ErrInfo.Code {
	case executor.CodeNotFound:
		return fmt.Sprintf("I couldn't find that task: %s.", r.ErrInfo.Message)
	case executor.CodeValidation:
		return fmt.Sprintf("I couldn't do that: %s.", r.ErrInfo.Message)
	default:
		return "Something went wrong on my end. The task list was not changed."
	}
}

func renderCreated(r executor.Result) string {
	t := r.Created
	var b strings.Builder
	fmt.Fprintf(&b, "Created task %d: %q", t.ID, t.Title)
	if t.Priority != task.PriorityMedium {
		fmt.Fprintf(&b, " with %s priority", t.Priority)
	}
	b.WriteString(renderDue(t.DueAt))
	b.WriteString(".")
	return b.String()
}

func renderList(tasks []task.Task) string {
	if len(tasks) == 0 {
		return "Your list is empty. Want to add something?"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d task(s):\n", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&b, "  %d. [%s] %s (%s priority%s)\n", t.ID, t.Status, t.Title, t.Priority, renderDue(t.DueAt))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStats(r executor.Result) string {
	s := r.Stats
	if s.Total == 0 {
		return "No tasks yet, so nothing to count."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d task(s): ", s.Total)
	parts := make([]string, 0, 3)
	for _, status := range []task.Status{task.StatusPending, task.StatusInProgress, task.StatusCompleted} {
		if n := s.ByStatus[status]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, status))
		}
	}
	b.WriteString(strings.Join(parts, ", "))
	if n := s.ByPriority[task.PriorityHigh]; n > 0 {
		fmt.Fprintf(&b, ". %d are high priority right now", n)
	}
	b.WriteString(".")
	return b.String()
}

func renderDedupe(r executor.Result) string {
	rep := r.Dedupe
	switch {
	case rep.Scanned < 2:
		return "Not enough tasks to compare for duplicates."
	case len(rep.Merges) == 0:
		return fmt.Sprintf("Checked %d task(s); no duplicates found.", rep.Scanned)
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "Merged %d duplicate(s):\n", len(rep.Merges))
		for _, m := range rep.Merges {
			fmt.Fprintf(&b, "  task %d absorbed task %d (similarity %.0f%%)\n", m.Survivor.ID, m.LoserID, m.Score*100)
		}
		return strings.TrimRight(b.String(), "\n")
	}
}

func renderDue(due *time.Time) string {
	if due == nil {
		return ""
	}
	return ", due " + due.Local().Format(dueLayout)
}
