package model

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the importance level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the valid priorities from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ParsePriority accepts low/medium/high (any case) or 1/2/3.
func ParsePriority(raw string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "1":
		return PriorityLow, nil
	case "medium", "med", "2":
		return PriorityMedium, nil
	case "high", "3":
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("invalid priority %q: use low, medium or high", raw)
	}
}

// Task represents a single item in the planner.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  *string    `json:"categoryId"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	Archived    bool       `json:"archived"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Clone returns a deep copy so callers can't mutate shared state through pointers.
func (t Task) Clone() Task {
	c := t
	c.CategoryID = clonePtr(t.CategoryID)
	c.DueDate = clonePtr(t.DueDate)
	c.CompletedAt = clonePtr(t.CompletedAt)
	return c
}

// InCategory reports whether the task references the given category id.
func (t Task) InCategory(categoryID string) bool {
	return t.CategoryID != nil && *t.CategoryID == categoryID
}

// TaskPatch describes a partial update of a task. Nil pointers and unset
// Nullable fields leave the stored value untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	CategoryID  Nullable[string]
	Priority    *Priority
	DueDate     Nullable[time.Time]
	Completed   *bool
	CompletedAt Nullable[time.Time]
	Archived    *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && !p.CategoryID.IsSet() &&
		p.Priority == nil && !p.DueDate.IsSet() && p.Completed == nil &&
		!p.CompletedAt.IsSet() && p.Archived == nil
}

// Apply returns a copy of t with the patch applied.
func (p TaskPatch) Apply(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.CategoryID.IsSet() {
		out.CategoryID = clonePtr(p.CategoryID.Ptr())
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.DueDate.IsSet() {
		out.DueDate = clonePtr(p.DueDate.Ptr())
	}
	if p.Completed != nil {
		out.Completed = *p.Completed
	}
	if p.CompletedAt.IsSet() {
		out.CompletedAt = clonePtr(p.CompletedAt.Ptr())
	}
	if p.Archived != nil {
		out.Archived = *p.Archived
	}
	return out
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
