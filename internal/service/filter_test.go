package service

import (
	"errors"
	"testing"
	"time"

	"taskflow/internal/model"
)

var filterNow = time.Date(2024, 3, 6, 15, 30, 0, 0, time.UTC) // a Wednesday

func at(days int, hour int) *time.Time {
	t := time.Date(2024, 3, 6+days, hour, 0, 0, 0, time.UTC)
	return &t
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "today", Title: "Buy milk", DueDate: at(0, 9)},
		{ID: "today-late", Title: "Call mom", Description: "about the MILK order", DueDate: at(0, 23)},
		{ID: "today-archived", Title: "Old", DueDate: at(0, 10), Archived: true},
		{ID: "tomorrow", Title: "Report", DueDate: at(1, 0)},
		{ID: "next-week", Title: "Trip", DueDate: at(7, 12)},
		{ID: "yesterday", Title: "Late", DueDate: at(-1, 12)},
		{ID: "no-due", Title: "Someday"},
		{ID: "done", Title: "Done", Completed: true, CompletedAt: at(0, 8)},
		{ID: "done-archived", Title: "Done and archived", Completed: true, Archived: true},
	}
}

func TestSelectView(t *testing.T) {
	cases := []struct {
		view  View
		query string
		want  []string
	}{
		{ViewToday, "", []string{"today", "today-late"}},
		{ViewUpcoming, "", []string{"tomorrow", "next-week"}},
		{ViewAll, "", []string{"today", "today-late", "tomorrow", "next-week", "yesterday", "no-due", "done"}},
		{ViewCompleted, "", []string{"done"}},
		{ViewArchive, "", []string{"today-archived", "done-archived"}},
		{ViewAll, "milk", []string{"today", "today-late"}},
		{ViewAll, "  REPORT ", []string{"tomorrow"}},
		{ViewArchive, "milk", []string{}},
	}
	for _, c := range cases {
		t.Run(string(c.view)+"/"+c.query, func(t *testing.T) {
			got := ids(SelectView(sampleTasks(), c.view, filterNow, c.query))
			if !equalIDs(got, c.want) {
				t.Errorf("expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestTodayAndUpcomingDoNotOverlap(t *testing.T) {
	tasks := sampleTasks()
	seen := map[string]bool{}
	for _, task := range SelectView(tasks, ViewToday, filterNow, "") {
		seen[task.ID] = true
	}
	for _, task := range SelectView(tasks, ViewUpcoming, filterNow, "") {
		if seen[task.ID] {
			t.Errorf("task %s is in both today and upcoming", task.ID)
		}
	}
}

func TestTodayUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2024, 3, 7, 8, 0, 0, 0, loc) // 2024-03-06 22:00 UTC
	due := time.Date(2024, 3, 6, 23, 0, 0, 0, time.UTC)
	tasks := []model.Task{{ID: "a", DueDate: &due}}

	if got := SelectView(tasks, ViewToday, now, ""); len(got) != 1 {
		t.Errorf("expected the task to be due today in UTC+10, got %v", ids(got))
	}
}

func TestTodayExcludesArchivedAlways(t *testing.T) {
	for _, task := range sampleTasks() {
		task.Archived = true
		if got := SelectView([]model.Task{task}, ViewToday, filterNow, ""); len(got) != 0 {
			t.Errorf("archived task %s appeared in today", task.ID)
		}
	}
}

func TestSelectViewReturnsCopies(t *testing.T) {
	tasks := sampleTasks()
	got := SelectView(tasks, ViewToday, filterNow, "")
	*got[0].DueDate = got[0].DueDate.AddDate(1, 0, 0)
	if tasks[0].DueDate.Year() != 2024 {
		t.Errorf("expected input to be untouched, got %v", tasks[0].DueDate)
	}
}

func TestParseView(t *testing.T) {
	v, err := ParseView(" Today ")
	if err != nil || v != ViewToday {
		t.Fatalf("expected today, got %q %v", v, err)
	}
	if _, err := ParseView("someday"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestParseDueDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"today", "2024-03-06"},
		{"Tomorrow", "2024-03-07"},
		{"+3d", "2024-03-09"},
		{"+0d", "2024-03-06"},
		{"2024-12-25", "2024-12-25"},
	}
	for _, c := range cases {
		got, err := ParseDueDate(c.in, filterNow)
		if err != nil {
			t.Errorf("%q: unexpected error %v", c.in, err)
			continue
		}
		if got.Format("2006-01-02") != c.want || got.Hour() != 0 {
			t.Errorf("%q: expected %s at midnight, got %v", c.in, c.want, got)
		}
	}

	for _, bad := range []string{"", "soon", "+xd", "-1d", "25/12/2024"} {
		if _, err := ParseDueDate(bad, filterNow); !errors.Is(err, ErrValidation) {
			t.Errorf("%q: expected ErrValidation, got %v", bad, err)
		}
	}
}

func TestDueLabel(t *testing.T) {
	cases := []struct {
		due  *time.Time
		want string
	}{
		{nil, ""},
		{at(0, 1), "Today"},
		{at(1, 12), "Tomorrow"},
		{at(3, 12), "Saturday"},
		{at(-3, 12), "Sunday"},
		{at(4, 12), "Mar 10"},
		{at(-4, 12), "Mar 2"},
	}
	for _, c := range cases {
		if got := DueLabel(c.due, filterNow); got != c.want {
			t.Errorf("DueLabel(%v): expected %q, got %q", c.due, c.want, got)
		}
	}
}
