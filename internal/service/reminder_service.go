package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/store"
)

// upcomingHorizon bounds the upcoming section of the daily summary.
const upcomingHorizon = 7

// Summary is the daily overview sent to subscribers.
type Summary struct {
	Date     time.Time
	Progress Progress
	Overdue  []model.Task
	Today    []model.Task
	Upcoming []model.Task

	now        time.Time
	categories map[string]string
}

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	tasks      store.TaskStore
	categories store.CategoryStore
}

func NewReminderService(tasks store.TaskStore, categories store.CategoryStore) *ReminderService {
	return &ReminderService{tasks: tasks, categories: categories}
}

// DailySummary loads a fresh snapshot and summarises it at now.
func (s *ReminderService) DailySummary(ctx context.Context, now time.Time) (Summary, error) {
	tasks, err := s.tasks.GetAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load tasks: %w", err)
	}
	categories, err := s.categories.GetAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load categories: %w", err)
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return BuildSummary(tasks, names, now), nil
}

// BuildSummary groups open tasks by due date relative to now.
func BuildSummary(tasks []model.Task, categoryNames map[string]string, now time.Time) Summary {
	sum := Summary{
		Date:       StartOfDay(now),
		Progress:   ProgressFor(tasks, now),
		now:        now,
		categories: categoryNames,
	}
	horizon := StartOfDay(now).AddDate(0, 0, upcomingHorizon+1)

	for _, t := range tasks {
		if t.Archived || t.Completed || t.DueDate == nil {
			continue
		}
		switch {
		case IsOverdue(t, now):
			sum.Overdue = append(sum.Overdue, t)
		case inView(t, ViewToday, now):
			sum.Today = append(sum.Today, t)
		case inView(t, ViewUpcoming, now) && t.DueDate.Before(horizon):
			sum.Upcoming = append(sum.Upcoming, t)
		}
	}

	for _, list := range [][]model.Task{sum.Overdue, sum.Today, sum.Upcoming} {
		sortByDue(list)
	}
	return sum
}

func sortByDue(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].DueDate.Equal(*tasks[j].DueDate) {
			return tasks[i].DueDate.Before(*tasks[j].DueDate)
		}
		return priorityRank(tasks[i].Priority) > priorityRank(tasks[j].Priority)
	})
}

func priorityRank(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 3
	case model.PriorityMedium:
		return 2
	case model.PriorityLow:
		return 1
	}
	return 0
}

// Empty reports whether there is nothing to remind about.
func (s Summary) Empty() bool {
	return len(s.Overdue) == 0 && len(s.Today) == 0 && len(s.Upcoming) == 0
}

// HTML renders the summary for Telegram's HTML parse mode.
func (s Summary) HTML() string {
	return s.render(true)
}

// Text renders the summary as plain text.
func (s Summary) Text() string {
	return s.render(false)
}

func (s Summary) render(asHTML bool) string {
	bold := func(v string) string {
		if asHTML {
			return "<b>" + v + "</b>"
		}
		return v
	}

	var builder strings.Builder
	builder.WriteString("📋 " + bold("Daily summary") + "\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", s.Date.Format("Monday, Jan 2")))
	builder.WriteString(fmt.Sprintf("✅ %s\n", s.Progress))

	sections := []struct {
		title string
		tasks []model.Task
		empty string
	}{
		{"⚠️ " + bold("Overdue"), s.Overdue, ""},
		{"🔥 " + bold("Today"), s.Today, "— nothing due today"},
		{"⏳ " + bold("Upcoming"), s.Upcoming, "— nothing in the next week"},
	}
	for _, sec := range sections {
		if len(sec.tasks) == 0 && sec.empty == "" {
			continue
		}
		builder.WriteString("\n" + sec.title + "\n")
		if len(sec.tasks) == 0 {
			builder.WriteString(sec.empty + "\n")
			continue
		}
		for _, t := range sec.tasks {
			builder.WriteString(s.formatTask(t, asHTML))
		}
	}

	return strings.TrimSpace(builder.String())
}

func (s Summary) formatTask(task model.Task, asHTML bool) string {
	esc := func(v string) string {
		if asHTML {
			return html.EscapeString(v)
		}
		return v
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s", PriorityIcon(task.Priority), esc(strings.TrimSpace(task.Title))))

	if task.CategoryID != nil {
		if name := strings.TrimSpace(s.categories[*task.CategoryID]); name != "" {
			if asHTML {
				sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", esc(name)))
			} else {
				sb.WriteString(fmt.Sprintf(" (%s)", name))
			}
		}
	}

	if task.DueDate != nil {
		if IsOverdue(task, s.now) {
			days := int(StartOfDay(s.now).Sub(StartOfDay(task.DueDate.In(s.now.Location()))).Hours() / 24)
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · %d d overdue", task.DueDate.In(s.now.Location()).Format("2006-01-02"), days))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ %s", DueLabel(task.DueDate, s.now)))
		}
	}

	if d := strings.TrimSpace(task.Description); d != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", esc(d)))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// PriorityIcon is the marker shown next to a task title.
func PriorityIcon(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴"
	case model.PriorityLow:
		return "🟢"
	default:
		return "🟡"
	}
}
