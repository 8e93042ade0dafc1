package record

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"taskflow/internal/model"
)

// ValidateTask checks a task record before it is stored.
func ValidateTask(r TaskRecord) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, FieldError{ID: r.ID, Field: "title", Message: "title is required"})
	}
	if !model.Priority(r.Priority).Valid() {
		errs = append(errs, FieldError{ID: r.ID, Field: "priority", Message: fmt.Sprintf("invalid priority %q", r.Priority)})
	}
	if r.CategoryID != nil && *r.CategoryID <= 0 {
		errs = append(errs, FieldError{ID: r.ID, Field: "category_id", Message: "must be a positive id"})
	}
	return errs
}

// ValidateCategory checks a category record before it is stored.
func ValidateCategory(r CategoryRecord) []FieldError {
	if strings.TrimSpace(r.Name) == "" {
		return []FieldError{{ID: r.ID, Field: "name", Message: "name is required"}}
	}
	return nil
}

// NormalizeTaskFields validates a decoded JSON patch and converts its values
// to column values.
func NormalizeTaskFields(in map[string]any) (map[string]any, []FieldError) {
	out := make(map[string]any, len(in))
	var errs []FieldError
	for key, raw := range in {
		var (
			v   any
			err error
		)
		switch key {
		case "title":
			var s string
			s, err = asString(raw)
			if err == nil && strings.TrimSpace(s) == "" {
				err = fmt.Errorf("title is required")
			}
			v = s
		case "description":
			v, err = asString(raw)
		case "priority":
			var s string
			s, err = asString(raw)
			if err == nil && !model.Priority(s).Valid() {
				err = fmt.Errorf("invalid priority %q", s)
			}
			v = s
		case "category_id":
			v, err = asOptionalID(raw)
		case "due_date", "completed_at":
			v, err = asOptionalString(raw)
		case "completed", "archived":
			v, err = asBool(raw)
		case "id", "created_at":
			err = fmt.Errorf("field is read-only")
		default:
			err = fmt.Errorf("unknown field")
		}
		if err != nil {
			errs = append(errs, FieldError{Field: key, Message: err.Error()})
			continue
		}
		out[key] = v
	}
	return out, sortErrors(errs)
}

// NormalizeCategoryFields validates a decoded JSON category patch.
func NormalizeCategoryFields(in map[string]any) (map[string]any, []FieldError) {
	out := make(map[string]any, len(in))
	var errs []FieldError
	for key, raw := range in {
		var (
			v   any
			err error
		)
		switch key {
		case "name":
			var s string
			s, err = asString(raw)
			if err == nil && strings.TrimSpace(s) == "" {
				err = fmt.Errorf("name is required")
			}
			v = s
		case "color", "icon":
			v, err = asString(raw)
		case "sort_order":
			var n int64
			n, err = asInt(raw)
			v = int(n)
		case "id":
			err = fmt.Errorf("field is read-only")
		default:
			err = fmt.Errorf("unknown field")
		}
		if err != nil {
			errs = append(errs, FieldError{Field: key, Message: err.Error()})
			continue
		}
		out[key] = v
	}
	return out, sortErrors(errs)
}

// Project keeps only the requested fields of v (plus id). Field names must
// be listed in allowed.
func Project(v any, fields, allowed []string) (map[string]any, error) {
	for _, f := range fields {
		if !slices.Contains(allowed, f) {
			return nil, fmt.Errorf("unknown field %q", f)
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	out := map[string]any{"id": all["id"]}
	for _, f := range fields {
		out[f] = all[f]
	}
	return out, nil
}

func sortErrors(errs []FieldError) []FieldError {
	slices.SortFunc(errs, func(a, b FieldError) int { return strings.Compare(a.Field, b.Field) })
	return errs
}

func asString(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("expected string")
	}
	return s, nil
}

func asOptionalString(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	return asString(raw)
}

func asBool(raw any) (bool, error) {
	b, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("expected boolean")
	}
	return b, nil
}

func asInt(raw any) (int64, error) {
	switch n := raw.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer")
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("expected integer")
	}
}

func asOptionalID(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	n, err := asInt(raw)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("must be a positive id")
	}
	return n, nil
}
