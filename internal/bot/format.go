package bot

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"
	"unicode"

	"perfect-day/internal/agenda"
	"perfect-day/internal/client"
	"perfect-day/internal/model"
	"perfect-day/internal/store"
)

const (
	dateLayout    = "2006-01-02"
	shortIDLength = 8
)

var weekdayShort = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := normalizeTitle(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// shortID is the prefix users type to reference a task.
func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func categoryNames(categories []model.Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = strings.TrimSpace(c.Name)
	}
	return names
}

func categoryName(t model.Task, names map[string]string) string {
	if t.Category != nil && strings.TrimSpace(t.Category.Name) != "" {
		return strings.TrimSpace(t.Category.Name)
	}
	if t.CategoryID != nil {
		if name, ok := names[*t.CategoryID]; ok && name != "" {
			return name
		}
	}
	return ""
}

// formatTask renders one task as an HTML block.
func formatTask(t model.Task, names map[string]string, now time.Time, unsynced bool) string {
	var b strings.Builder
	urgency := agenda.UrgencyOf(t, now)

	b.WriteString(fmt.Sprintf("%s <b>%s</b> <code>#%s</code>", urgency.Icon(), escape(normalizeTitle(t.Title)), shortID(t.ID)))
	if t.Priority == model.PriorityUrgent || t.Priority == model.PriorityHigh {
		b.WriteString(fmt.Sprintf(" · %s", t.Priority.Label()))
	}
	if name := categoryName(t, names); name != "" {
		b.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(name)))
	}
	if unsynced {
		b.WriteString(" 📴")
	}
	b.WriteByte('\n')

	if t.DueDate != nil {
		d := t.DueDate.In(now.Location())
		switch urgency {
		case agenda.UrgencyOverdue:
			b.WriteString(fmt.Sprintf("   ⏰ due %s, <b>overdue</b>\n", d.Format(dateLayout)))
		case agenda.UrgencyDone:
			b.WriteString(fmt.Sprintf("   ⏰ due %s\n", d.Format(dateLayout)))
		default:
			b.WriteString(fmt.Sprintf("   ⏰ due %s · ≈%d d left\n", d.Format(dateLayout), agenda.DaysLeft(d, now)))
		}
	}
	if t.Description != nil && strings.TrimSpace(*t.Description) != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(strings.TrimSpace(*t.Description))))
	}
	return b.String()
}

func describeFilters(f agenda.Filters, names map[string]string) string {
	if f.Empty() {
		return ""
	}
	var parts []string
	if f.Priority != nil {
		parts = append(parts, "priority "+f.Priority.Label())
	}
	if f.CategoryID != nil {
		name := names[*f.CategoryID]
		if name == "" {
			name = shortID(*f.CategoryID)
		}
		parts = append(parts, "category "+name)
	}
	if f.Completed != nil {
		if *f.Completed {
			parts = append(parts, "done")
		} else {
			parts = append(parts, "open")
		}
	}
	return strings.Join(parts, ", ")
}

// formatTaskList renders the visible list header and tasks.
func formatTaskList(view agenda.View, f agenda.Filters, tasks []model.Task, categories []model.Category, now time.Time, unsynced func(string) bool) string {
	names := categoryNames(categories)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Tasks · %s</b>\n", view))
	if desc := describeFilters(f, names); desc != "" {
		b.WriteString(fmt.Sprintf("🔎 %s\n", escape(desc)))
	}
	b.WriteByte('\n')

	if len(tasks) == 0 {
		b.WriteString("Nothing here. Add a task with /newtask.")
		return b.String()
	}
	for _, t := range tasks {
		b.WriteString(formatTask(t, names, now, unsynced != nil && unsynced(t.ID)))
	}
	return strings.TrimSpace(b.String())
}

// routinesToday keeps active routines scheduled on now's weekday, earliest first.
func routinesToday(routines []model.Routine, now time.Time) []model.Routine {
	var out []model.Routine
	for _, r := range routines {
		if r.IsActive && r.Days.Has(now.Weekday()) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Time, out[j].Time
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return out
}

func formatDays(days model.Weekdays) string {
	days = days.Normalize()
	if len(days) == 7 {
		return "every day"
	}
	if len(days) == 0 {
		return "no days"
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, weekdayShort[d])
	}
	return strings.Join(names, ", ")
}

func formatRoutine(r model.Routine) string {
	var b strings.Builder
	icon := "🔁"
	if !r.IsActive {
		icon = "⏸"
	}
	at := "any time"
	if r.Time != nil {
		at = *r.Time
	}
	b.WriteString(fmt.Sprintf("%s <b>%s</b> · %s · %s\n", icon, escape(normalizeTitle(r.Title)), at, formatDays(r.Days)))
	if r.Description != nil && strings.TrimSpace(*r.Description) != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(strings.TrimSpace(*r.Description))))
	}
	return b.String()
}

func formatMood(m model.Mood, loc *time.Location) string {
	line := fmt.Sprintf("%s %d/5 · %s", model.MoodEmoji(m.Value), m.Value, m.CreatedAt.In(loc).Format("2006-01-02 15:04"))
	if m.Note != nil && strings.TrimSpace(*m.Note) != "" {
		line += " · " + escape(strings.TrimSpace(*m.Note))
	}
	return line + "\n"
}

func formatJournalEntry(e model.JournalEntry, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📓 <b>%s</b> <code>#%s</code>\n", e.CreatedAt.In(loc).Format("2006-01-02 15:04"), shortID(e.ID)))
	b.WriteString(escape(strings.TrimSpace(e.Content)))
	b.WriteByte('\n')
	if len(e.Tags) > 0 {
		tags := make([]string, 0, len(e.Tags))
		for _, tag := range e.Tags {
			tags = append(tags, "#"+escape(tag))
		}
		b.WriteString(fmt.Sprintf("🏷 %s\n", strings.Join(tags, " ")))
	}
	return b.String()
}

// DailySummary is the scheduled report: open tasks by due date, today's
// routines and the latest mood.
func DailySummary(tasks []model.Task, categories []model.Category, routines []model.Routine, moods []model.Mood, now time.Time) string {
	names := categoryNames(categories)

	var open []model.Task
	for _, t := range tasks {
		if !t.Completed {
			open = append(open, t)
		}
	}
	open = agenda.SortByDueDate(open)

	var b strings.Builder
	b.WriteString("📋 <b>Daily report</b>\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Monday, 02.01.2006")))

	b.WriteString("🔥 <b>Open tasks</b>\n")
	if len(open) == 0 {
		b.WriteString("— no open tasks\n")
	} else {
		overdue := 0
		for _, t := range open {
			if agenda.UrgencyOf(t, now) == agenda.UrgencyOverdue {
				overdue++
			}
			b.WriteString(formatTask(t, names, now, false))
		}
		if overdue > 0 {
			b.WriteString(fmt.Sprintf("⚠️ %d overdue\n", overdue))
		}
	}

	b.WriteString("\n🔁 <b>Routines today</b>\n")
	today := routinesToday(routines, now)
	if len(today) == 0 {
		b.WriteString("— nothing scheduled\n")
	} else {
		for _, r := range today {
			b.WriteString(formatRoutine(r))
		}
	}

	if len(moods) > 0 {
		latest := moods[0]
		for _, m := range moods[1:] {
			if m.CreatedAt.After(latest.CreatedAt) {
				latest = m
			}
		}
		b.WriteString("\n💭 <b>Last mood</b>\n")
		b.WriteString(formatMood(latest, now.Location()))
	}

	return strings.TrimSpace(b.String())
}

// offlineNote heads a list served from the local cache.
func offlineNote(saved time.Time, loc *time.Location) string {
	if saved.IsZero() {
		return "📴 offline copy\n"
	}
	return fmt.Sprintf("📴 offline copy from %s\n", saved.In(loc).Format("2006-01-02 15:04"))
}

// resultNote explains a store write that did not reach the server.
func resultNote(res store.Result) string {
	var apiErr *client.APIError
	switch {
	case res.OK():
		return ""
	case res.Status == store.Superseded:
		return ""
	case errors.Is(res.Err, client.ErrUnreachable):
		return "📴 Server unreachable, saved on this device only."
	case errors.Is(res.Err, store.ErrNotSynced):
		return "📴 This task was never synced, the change is kept on this device only."
	case errors.As(res.Err, &apiErr):
		return fmt.Sprintf("⚠️ Server rejected the change: %s", escape(apiErr.Message))
	case errors.Is(res.Err, store.ErrStorage):
		return "⚠️ Could not write local storage."
	case errors.Is(res.Err, client.ErrMalformedResponse):
		return "⚠️ Server sent an unexpected response, kept the local copy."
	default:
		return "⚠️ " + escape(res.Err.Error())
	}
}

// parseDueDate reads YYYY-MM-DD as the end of that day in loc.
func parseDueDate(text string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(24*time.Hour - time.Minute), nil
}

// splitHashtags pulls #tags out of free text.
func splitHashtags(text string) (string, []string) {
	var words, tags []string
	for _, w := range strings.Fields(text) {
		if len(w) > 1 && strings.HasPrefix(w, "#") {
			tags = append(tags, strings.TrimPrefix(w, "#"))
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " "), tags
}
