package agenda

import (
	"time"

	"perfect-day/internal/model"
)

// DueSoonWindow is how close a due date must be to count as due soon.
const DueSoonWindow = 48 * time.Hour

type Urgency int

const (
	UrgencyNone Urgency = iota // no due date
	UrgencyNormal
	UrgencyDueSoon
	UrgencyOverdue
	UrgencyDone
)

// UrgencyOf classifies a task relative to now. Completed tasks are never overdue.
func UrgencyOf(t model.Task, now time.Time) Urgency {
	if t.Completed {
		return UrgencyDone
	}
	if t.DueDate == nil {
		return UrgencyNone
	}
	due := *t.DueDate
	switch {
	case now.After(due):
		return UrgencyOverdue
	case due.Sub(now) <= DueSoonWindow:
		return UrgencyDueSoon
	default:
		return UrgencyNormal
	}
}

func (u Urgency) Icon() string {
	switch u {
	case UrgencyOverdue:
		return "⚠️"
	case UrgencyDueSoon:
		return "⏳"
	case UrgencyDone:
		return "✅"
	default:
		return "🟢"
	}
}

// DaysLeft rounds up to whole days, 0 once the due date has passed.
func DaysLeft(due, now time.Time) int {
	if now.After(due) {
		return 0
	}
	return int(due.Sub(now).Hours()/24) + 1
}
