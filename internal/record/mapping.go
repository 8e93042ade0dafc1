package record

import (
	"fmt"
	"strconv"
	"time"

	"taskflow/internal/model"
)

// dateOnly is accepted for due dates written by older clients.
const dateOnly = "2006-01-02"

// FormatTime renders t the way records store timestamps.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime parses a stored timestamp. Date-only values are read as UTC midnight.
func ParseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}
	return t, nil
}

// FormatID renders a numeric record id as an internal id.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID converts an internal id into a record id.
func ParseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid record id %q", id)
	}
	return n, nil
}

// TaskFromRecord maps an external task to the internal model. A due date or
// completion time that cannot be parsed is treated as absent.
func TaskFromRecord(r TaskRecord) model.Task {
	t := model.Task{
		ID:          FormatID(r.ID),
		Title:       r.Title,
		Description: r.Description,
		Priority:    model.Priority(r.Priority),
		DueDate:     optionalTime(r.DueDate),
		Completed:   r.Completed,
		CompletedAt: optionalTime(r.CompletedAt),
		Archived:    r.Archived,
	}
	if r.CategoryID != nil {
		id := FormatID(*r.CategoryID)
		t.CategoryID = &id
	}
	if created, err := ParseTime(r.CreatedAt); err == nil {
		t.CreatedAt = created
	}
	return t
}

// TaskToRecord maps an internal task to its external form. An empty id maps
// to zero so the store assigns one.
func TaskToRecord(t model.Task) (TaskRecord, error) {
	r := TaskRecord{
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueDate:     formatOptional(t.DueDate),
		Completed:   t.Completed,
		CompletedAt: formatOptional(t.CompletedAt),
		Archived:    t.Archived,
		CreatedAt:   FormatTime(t.CreatedAt),
	}
	if t.ID != "" {
		id, err := ParseID(t.ID)
		if err != nil {
			return TaskRecord{}, err
		}
		r.ID = id
	}
	if t.CategoryID != nil {
		id, err := ParseID(*t.CategoryID)
		if err != nil {
			return TaskRecord{}, fmt.Errorf("category: %w", err)
		}
		r.CategoryID = &id
	}
	return r, nil
}

// TaskPatchFields maps a patch to external column names. Cleared fields map to nil.
func TaskPatchFields(p model.TaskPatch) (map[string]any, error) {
	fields := make(map[string]any)
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.CategoryID.IsSet() {
		if p.CategoryID.IsNull() {
			fields["category_id"] = nil
		} else {
			id, err := ParseID(*p.CategoryID.Ptr())
			if err != nil {
				return nil, fmt.Errorf("category: %w", err)
			}
			fields["category_id"] = id
		}
	}
	if p.Priority != nil {
		fields["priority"] = string(*p.Priority)
	}
	if p.DueDate.IsSet() {
		fields["due_date"] = nullableTime(p.DueDate)
	}
	if p.Completed != nil {
		fields["completed"] = *p.Completed
	}
	if p.CompletedAt.IsSet() {
		fields["completed_at"] = nullableTime(p.CompletedAt)
	}
	if p.Archived != nil {
		fields["archived"] = *p.Archived
	}
	return fields, nil
}

// CategoryFromRecord maps an external category to the internal model.
func CategoryFromRecord(r CategoryRecord) model.Category {
	return model.Category{
		ID:    FormatID(r.ID),
		Name:  r.Name,
		Color: r.Color,
		Icon:  r.Icon,
		Order: r.SortOrder,
	}
}

// CategoryToRecord maps an internal category to its external form. TaskCount
// is derived and not stored.
func CategoryToRecord(c model.Category) (CategoryRecord, error) {
	r := CategoryRecord{
		Name:      c.Name,
		Color:     c.Color,
		Icon:      c.Icon,
		SortOrder: c.Order,
	}
	if c.ID != "" {
		id, err := ParseID(c.ID)
		if err != nil {
			return CategoryRecord{}, err
		}
		r.ID = id
	}
	return r, nil
}

// CategoryPatchFields maps a patch to external column names.
func CategoryPatchFields(p model.CategoryPatch) map[string]any {
	fields := make(map[string]any)
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Color != nil {
		fields["color"] = *p.Color
	}
	if p.Icon != nil {
		fields["icon"] = *p.Icon
	}
	if p.Order != nil {
		fields["sort_order"] = *p.Order
	}
	return fields
}

func optionalTime(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	t, err := ParseTime(*raw)
	if err != nil {
		return nil
	}
	return &t
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

func nullableTime(n model.Nullable[time.Time]) any {
	if n.IsNull() {
		return nil
	}
	return FormatTime(*n.Ptr())
}
