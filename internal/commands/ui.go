package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskflow/internal/model"
	"taskflow/internal/service"
)

// Terminal palette.
const (
	colorAccent    = "#7C3AED"
	colorMuted     = "#6D7383"
	colorSecondary = "#B1B8C7"
	colorError     = "#EF4444"
	colorSuccess   = "#22C55E"
	colorWarning   = "#F59E0B"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSecondary))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarning))
	doneStyle    = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color(colorMuted))
)

// terminalNotifier prints coordinator notifications. Errors go to errOut.
type terminalNotifier struct {
	out    io.Writer
	errOut io.Writer
}

func (n terminalNotifier) Notify(level service.Level, message string) {
	switch level {
	case service.LevelSuccess:
		fmt.Fprintln(n.out, successStyle.Render("✓ "+message))
	case service.LevelError:
		fmt.Fprintln(n.errOut, errorStyle.Render("✗ "+message))
	default:
		fmt.Fprintln(n.out, labelStyle.Render("• "+message))
	}
}

// promptConfirmer asks y/N questions on the terminal.
type promptConfirmer struct {
	in        io.Reader
	out       io.Writer
	assumeYes bool
}

func (c promptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if c.assumeYes {
		return true, nil
	}
	fmt.Fprintf(c.out, "%s [y/N] ", warningStyle.Render(prompt))

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(c.in).ReadString('\n')
		answer <- line
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(c.out)
		return false, ctx.Err()
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return errorStyle.Render(fmt.Sprintf("%-6s", p))
	case model.PriorityLow:
		return successStyle.Render(fmt.Sprintf("%-6s", p))
	default:
		return warningStyle.Render(fmt.Sprintf("%-6s", p))
	}
}

// printTasks writes one line per task.
func printTasks(w io.Writer, tasks []model.Task, names map[string]string, now time.Time) {
	for _, t := range tasks {
		mark := "[ ]"
		title := t.Title
		if t.Completed {
			mark = "[x]"
			title = doneStyle.Render(title)
		}

		var meta []string
		if label := service.DueLabel(t.DueDate, now); label != "" {
			if service.IsOverdue(t, now) {
				label = errorStyle.Render("overdue " + label)
			}
			meta = append(meta, "due "+label)
		}
		if t.CategoryID != nil {
			if name, ok := names[*t.CategoryID]; ok {
				meta = append(meta, "#"+name)
			}
		}
		if t.Archived {
			meta = append(meta, "archived")
		}

		line := fmt.Sprintf("%s %s %s %s", mark, mutedStyle.Render(fmt.Sprintf("%-8s", shortID(t.ID))), priorityLabel(t.Priority), title)
		if len(meta) > 0 {
			line += "  " + mutedStyle.Render(strings.Join(meta, " · "))
		}
		fmt.Fprintln(w, line)
	}
}

func printCategories(w io.Writer, categories []model.Category) {
	for _, c := range categories {
		count := fmt.Sprintf("%d tasks", c.TaskCount)
		if c.TaskCount == 1 {
			count = "1 task"
		}
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●")
		fmt.Fprintf(w, "%s %s %s  %s\n", swatch, mutedStyle.Render(fmt.Sprintf("%-8s", shortID(c.ID))), c.Name, mutedStyle.Render(count))
	}
}

// shortID trims uuid ids for display. Numeric ids are shown as is.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
