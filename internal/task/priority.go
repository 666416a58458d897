package task

import "time"

// EscalationWindow is how close a due date has to be before an unfinished
// task is treated as high priority.
const EscalationWindow = 24 * time.Hour

// EffectivePriority returns the priority in effect for t at the given time.
// Completed tasks never escalate. Any other task whose due date is less than
// EscalationWindow away (or already past) reads as high, regardless of base
// priority. The result is derived on every call; the stored base priority is
// left untouched so users can still see what they originally picked.
func EffectivePriority(t Task, now time.Time) Priority {
	if t.Status == StatusCompleted {
		return t.Priority
	}
	if t.DueAt != nil && t.DueAt.Sub(now) < EscalationWindow {
		return PriorityHigh
	}
	return t.Priority
}

// Escalated reports whether t's effective priority differs from its base
// priority at the given time.
func Escalated(t Task, now time.Time) bool {
	return EffectivePriority(t, now) != t.Priority
}
