package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskflow/internal/model"
)

// View is a named task selection.
type View string

const (
	ViewToday     View = "today"
	ViewUpcoming  View = "upcoming"
	ViewAll       View = "all"
	ViewCompleted View = "completed"
	ViewArchive   View = "archive"
)

// Views lists every view in menu order.
func Views() []View {
	return []View{ViewToday, ViewUpcoming, ViewAll, ViewCompleted, ViewArchive}
}

// ParseView accepts a view name in any case.
func ParseView(raw string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Views() {
		if v == known {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown view %q", ErrValidation, raw)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// inView reports whether a task belongs to view at now.
func inView(t model.Task, view View, now time.Time) bool {
	switch view {
	case ViewToday:
		return !t.Archived && t.DueDate != nil && sameDay(t.DueDate.In(now.Location()), now)
	case ViewUpcoming:
		tomorrow := StartOfDay(now).AddDate(0, 0, 1)
		return !t.Archived && t.DueDate != nil && !t.DueDate.Before(tomorrow)
	case ViewAll:
		return !t.Archived
	case ViewCompleted:
		return t.Completed && !t.Archived
	case ViewArchive:
		return t.Archived
	default:
		return false
	}
}

// SelectView returns the tasks in view, narrowed by query, in input order.
func SelectView(tasks []model.Task, view View, now time.Time, query string) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if inView(t, view, now) && MatchesSearch(t, query) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// MatchesSearch reports whether title or description contains query,
// ignoring case. An empty query matches everything.
func MatchesSearch(t model.Task, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

// ParseDueDate reads YYYY-MM-DD, "today", "tomorrow" or "+Nd" relative to
// now. The result is the start of that day in now's location.
func ParseDueDate(raw string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	today := StartOfDay(now)
	switch {
	case s == "today":
		return today, nil
	case s == "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case strings.HasPrefix(s, "+") && strings.HasSuffix(s, "d"):
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("%w: invalid due date %q", ErrValidation, raw)
		}
		return today.AddDate(0, 0, n), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid due date %q: use YYYY-MM-DD, today, tomorrow or +Nd", ErrValidation, raw)
	}
	return t, nil
}

// DueLabel renders a due date relative to now: Today, Tomorrow, a weekday
// in the current week, or "Jan 2".
func DueLabel(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	d := due.In(now.Location())
	today := StartOfDay(now)
	switch {
	case sameDay(d, today):
		return "Today"
	case sameDay(d, today.AddDate(0, 0, 1)):
		return "Tomorrow"
	}
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	if !d.Before(weekStart) && d.Before(weekStart.AddDate(0, 0, 7)) {
		return d.Weekday().String()
	}
	return d.Format("Jan 2")
}

// IsOverdue reports whether an open task was due before today.
func IsOverdue(t model.Task, now time.Time) bool {
	return !t.Completed && !t.Archived && t.DueDate != nil && t.DueDate.Before(StartOfDay(now))
}
