package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/taskpilot/internal/task"
)

// ruleParse is the deterministic fallback used when the extraction oracle is
// unavailable or returned garbage. Keyword matching over the lowercased
// text, in the same precedence the chat surface historically used: dedupe
// requests are recognized before create/delete so "remove duplicates" never
// reads as a deletion.
func ruleParse(text string, now time.Time) Action {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Unknown(text)
	}

	if strings.Contains(lower, "duplicate") && containsAny(lower, "remove", "delete", "clean", "check", "find") {
		return Action{Kind: KindDedupe}
	}

	switch {
	case containsAny(lower, "create", "add", "new task"):
		return parseCreate(text, lower, now)
	case containsAny(lower, "list", "show", "get tasks", "my tasks", "all tasks"):
		return parseList(lower)
	case containsAny(lower, "update", "change", "modify", "mark", "complete", "finish", "done", "start", "reopen"):
		return parseUpdate(text, lower, now)
	case containsAny(lower, "delete", "remove", "drop"):
		return parseDelete(text, lower)
	case containsAny(lower, "statistics", "stats", "summary", "overview"):
		return Action{Kind: KindStats}
	default:
		return Unknown(text)
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

var (
	idRe         = regexp.MustCompile(`(?i)\b(?:task\s+)?(?:id\s+)?#?(\d+)\b`)
	quotedRe     = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	namedRe      = regexp.MustCompile(`(?i)\b(?:called|titled|named)\s+(.+)$`)
	priorityRe   = regexp.MustCompile(`(?i)\b(high|medium|low)\s+priority\b|\bpriority\s+(?:to\s+)?(high|medium|low)\b`)
	duePhraseRe  = regexp.MustCompile(`(?i)\b(?:due|by|before|until)\s+(.+)$`)
	createLeadRe = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:can you\s+)?(?:create|add|make)\s+(?:a\s+|an\s+)?(?:new\s+)?(?:task\s*)?(?:to\s+|for\s+|:\s*)?`)
)

func extractID(text string) (int64, bool) {
	m := idRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func extractPriority(lower string) (task.Priority, bool) {
	m := priorityRe.FindStringSubmatch(lower)
	if m == nil {
		return "", false
	}
	word := m[1]
	if word == "" {
		word = m[2]
	}
	p, err := task.ParsePriority(word)
	if err != nil {
		return "", false
	}
	return p, true
}

// extractDue finds a due-date phrase and resolves it against now. The phrase
// runs from the due/by keyword to the end of the text; unresolvable trailing
// words are shaved off one at a time so "by next friday please" still lands
// on the date.
func extractDue(lower string, now time.Time) (*time.Time, bool) {
	if m := duePhraseRe.FindStringSubmatch(lower); m != nil {
		words := strings.Fields(strings.Trim(m[1], " .,!?"))
		for end := len(words); end > 0; end-- {
			phrase := strings.Join(words[:end], " ")
			if due, err := ResolveDueDate(phrase, now); err == nil {
				return &due, true
			}
		}
	}

	// Bare trailing "tomorrow" / weekday without a due keyword.
	words := strings.Fields(strings.Trim(lower, " .,!?"))
	if len(words) > 0 {
		last := words[len(words)-1]
		switch {
		case last == "today", last == "tomorrow":
			due, _ := ResolveDueDate(last, now)
			return &due, true
		default:
			if _, ok := weekdays[last]; ok {
				due, _ := ResolveDueDate(last, now)
				return &due, true
			}
		}
	}
	return nil, false
}

func extractStatus(lower string) (task.Status, bool) {
	switch {
	case containsAny(lower, "as completed", "as done", "as complete", "complete", "finish", "done"):
		return task.StatusCompleted, true
	case containsAny(lower, "in progress", "in_progress", "started", "start", "working on"):
		return task.StatusInProgress, true
	case containsAny(lower, "as pending", "reopen", "not done"):
		return task.StatusPending, true
	}
	return "", false
}

func parseCreate(text, lower string, now time.Time) Action {
	create := &CreateAction{Priority: task.PriorityMedium}

	if p, ok := extractPriority(lower); ok {
		create.Priority = p
	}
	if due, ok := extractDue(lower, now); ok {
		create.DueAt = due
	}
	create.AddToCalendar = strings.Contains(lower, "calendar")

	title := extractTitle(text)
	if title == "" {
		return Unknown(text)
	}
	create.Title = title

	return Action{Kind: KindCreate, Create: create}
}

// extractTitle pulls a task title out of a create utterance: quoted text
// wins, then "called/titled/named ...", then whatever remains after
// stripping the create phrasing and trailing date/priority clauses.
func extractTitle(text string) string {
	if m := quotedRe.FindStringSubmatch(text); m != nil {
		if m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[2])
	}

	if m := namedRe.FindStringSubmatch(text); m != nil {
		return trimClauses(m[1])
	}

	stripped := createLeadRe.ReplaceAllString(text, "")
	return trimClauses(stripped)
}

// trimClauses cuts trailing due/priority/calendar clauses and dangling date
// words off a candidate title.
func trimClauses(s string) string {
	lower := strings.ToLower(s)
	cut := len(s)
	for _, sep := range []string{" due ", " by ", " before ", " until ", " with ", " and add", " and put"} {
		if i := strings.Index(lower, sep); i >= 0 && i < cut {
			cut = i
		}
	}
	s = s[:cut]

	words := strings.Fields(s)
	for len(words) > 0 {
		last := strings.ToLower(strings.Trim(words[len(words)-1], " .,!?"))
		_, isWeekday := weekdays[last]
		if last == "today" || last == "tomorrow" || isWeekday {
			words = words[:len(words)-1]
			continue
		}
		break
	}

	return strings.Trim(strings.Join(words, " "), " .,!?:")
}

func parseList(lower string) Action {
	list := &ListAction{}
	switch {
	case containsAny(lower, "pending", "open", "todo"):
		s := task.StatusPending
		list.Status = &s
	case containsAny(lower, "in progress", "in_progress", "active"):
		s := task.StatusInProgress
		list.Status = &s
	case containsAny(lower, "completed", "done", "finished"):
		s := task.StatusCompleted
		list.Status = &s
	}
	return Action{Kind: KindList, List: list}
}

func parseUpdate(text, lower string, now time.Time) Action {
	update := &UpdateAction{}

	id, hasID := extractID(text)
	if hasID {
		update.ID = id
	}

	if status, ok := extractStatus(lower); ok {
		s := status
		update.SetStatus = &s
	}
	if p, ok := extractPriority(lower); ok {
		prio := p
		update.SetPriority = &prio
	}
	if due, ok := extractDue(lower, now); ok {
		update.SetDueAt = due
	}

	// Without a resolvable target and at least one change there is nothing
	// safe to execute.
	if !hasID || !update.HasChanges() {
		return Unknown(text)
	}

	return Action{Kind: KindUpdate, Update: update}
}

func parseDelete(text, lower string) Action {
	del := &DeleteAction{}
	if id, ok := extractID(text); ok {
		del.ID = id
		return Action{Kind: KindDelete, Delete: del}
	}
	if m := quotedRe.FindStringSubmatch(text); m != nil {
		title := m[1]
		if title == "" {
			title = m[2]
		}
		del.TitleRef = strings.TrimSpace(title)
		return Action{Kind: KindDelete, Delete: del}
	}
	return Unknown(text)
}
