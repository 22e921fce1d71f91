// Package agenda holds the pure list logic behind task views: due-date
// windows, filters, priority ordering and urgency highlighting.
package agenda

import (
	"sort"
	"time"

	"perfect-day/internal/model"
)

// View selects a due-date window.
type View string

const (
	ViewAll   View = "all"
	ViewToday View = "today"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

var Views = []View{ViewAll, ViewToday, ViewWeek, ViewMonth}

func ParseView(s string) (View, bool) {
	for _, v := range Views {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// GroupByView keeps the tasks that fall in the view's window relative to now.
// Tasks without a due date belong to today only. Week and month windows start
// at now, so earlier due dates drop out of them.
func GroupByView(tasks []model.Task, view View, now time.Time) []model.Task {
	if view == ViewAll || view == "" {
		return append([]model.Task(nil), tasks...)
	}

	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if inView(t, view, now) {
			out = append(out, t)
		}
	}
	return out
}

func inView(t model.Task, view View, now time.Time) bool {
	if t.DueDate == nil {
		return view == ViewToday
	}
	due := t.DueDate.In(now.Location())

	switch view {
	case ViewToday:
		return sameDay(due, now)
	case ViewWeek:
		return !due.Before(now) && !due.After(now.AddDate(0, 0, 7))
	case ViewMonth:
		return !due.Before(now) && !due.After(now.AddDate(0, 1, 0))
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Filters narrows a task list. Nil fields match everything.
type Filters struct {
	Priority   *model.Priority `json:"priority"`
	CategoryID *string         `json:"categoryId"`
	Completed  *bool           `json:"completed"`
}

func (f Filters) Empty() bool {
	return f.Priority == nil && f.CategoryID == nil && f.Completed == nil
}

func (f Filters) Match(t model.Task) bool {
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *f.CategoryID) {
		return false
	}
	if f.Completed != nil && t.Completed != *f.Completed {
		return false
	}
	return true
}

func Filter(tasks []model.Task, f Filters) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// SortByPriority returns a copy ordered URGENT, HIGH, MEDIUM, LOW, keeping
// the input order within a priority.
func SortByPriority(tasks []model.Task) []model.Task {
	out := append([]model.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() < out[j].Priority.Rank()
	})
	return out
}

// SortByDueDate orders by due date, undated tasks last and newest first among themselves.
func SortByDueDate(tasks []model.Task) []model.Task {
	out := append([]model.Task(nil), tasks...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.CreatedAt.After(b.CreatedAt)
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		default:
			return a.DueDate.Before(*b.DueDate)
		}
	})
	return out
}

// Visible is the list a view renders: window, then filters, then priority order.
func Visible(tasks []model.Task, view View, f Filters, now time.Time) []model.Task {
	return SortByPriority(Filter(GroupByView(tasks, view, now), f))
}
