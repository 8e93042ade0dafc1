package record

import (
	"testing"
	"time"

	"taskflow/internal/model"
)

func TestTaskRoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	due := time.Date(2026, 5, 4, 18, 30, 0, 0, loc)
	done := time.Date(2026, 5, 3, 9, 15, 30, 123456789, loc)
	created := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	cat := "7"

	orig := model.Task{
		ID:          "42",
		Title:       "Buy milk",
		Description: "2 litres",
		CategoryID:  &cat,
		Priority:    model.PriorityHigh,
		DueDate:     &due,
		Completed:   true,
		CompletedAt: &done,
		Archived:    true,
		CreatedAt:   created,
	}

	rec, err := TaskToRecord(orig)
	if err != nil {
		t.Fatalf("TaskToRecord: %v", err)
	}
	if rec.ID != 42 || rec.CategoryID == nil || *rec.CategoryID != 7 {
		t.Fatalf("expected numeric ids 42/7, got %d/%v", rec.ID, rec.CategoryID)
	}

	back := TaskFromRecord(rec)
	if back.ID != orig.ID || back.Title != orig.Title || back.Description != orig.Description {
		t.Errorf("text fields differ: %+v vs %+v", back, orig)
	}
	if back.CategoryID == nil || *back.CategoryID != cat {
		t.Errorf("expected category %q, got %v", cat, back.CategoryID)
	}
	if back.Priority != orig.Priority || back.Completed != orig.Completed || back.Archived != orig.Archived {
		t.Errorf("flags differ: %+v vs %+v", back, orig)
	}
	if back.DueDate == nil || !back.DueDate.Equal(due) {
		t.Errorf("expected due %v, got %v", due, back.DueDate)
	}
	if back.CompletedAt == nil || !back.CompletedAt.Equal(done) {
		t.Errorf("expected completedAt %v, got %v", done, back.CompletedAt)
	}
	if !back.CreatedAt.Equal(created) {
		t.Errorf("expected createdAt %v, got %v", created, back.CreatedAt)
	}
}

func TestTaskRoundTripNulls(t *testing.T) {
	orig := model.Task{ID: "1", Title: "Walk dog", Priority: model.PriorityLow, CreatedAt: time.Unix(0, 0)}
	rec, err := TaskToRecord(orig)
	if err != nil {
		t.Fatalf("TaskToRecord: %v", err)
	}
	if rec.DueDate != nil || rec.CompletedAt != nil || rec.CategoryID != nil {
		t.Fatalf("expected nil optional fields, got %+v", rec)
	}
	back := TaskFromRecord(rec)
	if back.DueDate != nil || back.CompletedAt != nil || back.CategoryID != nil {
		t.Fatalf("expected nil optional fields after round trip, got %+v", back)
	}
}

func TestTaskFromRecordUnparsableDueDate(t *testing.T) {
	bad := "next tuesday"
	got := TaskFromRecord(TaskRecord{ID: 3, Title: "x", Priority: "low", DueDate: &bad})
	if got.DueDate != nil {
		t.Fatalf("expected unparsable due date to map to nil, got %v", got.DueDate)
	}
}

func TestParseTimeDateOnly(t *testing.T) {
	got, err := ParseTime("2026-02-03")
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if !got.Equal(time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestTaskToRecordRejectsForeignIDs(t *testing.T) {
	_, err := TaskToRecord(model.Task{ID: "2f1c-uuid", Title: "x"})
	if err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
}

func TestTaskPatchFields(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fields, err := TaskPatchFields(model.TaskPatch{
		Completed:   model.Ptr(true),
		CompletedAt: model.Set(at),
		CategoryID:  model.Clear[string](),
	})
	if err != nil {
		t.Fatalf("TaskPatchFields: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %v", fields)
	}
	if fields["completed"] != true {
		t.Errorf("expected completed=true, got %v", fields["completed"])
	}
	if fields["completed_at"] != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected completed_at %v", fields["completed_at"])
	}
	if v, ok := fields["category_id"]; !ok || v != nil {
		t.Errorf("expected explicit nil category_id, got %v (present=%t)", v, ok)
	}
}

func TestCategoryRoundTrip(t *testing.T) {
	orig := model.Category{ID: "5", Name: "Work", Color: "#3B82F6", Icon: "Briefcase", Order: 2}
	rec, err := CategoryToRecord(orig)
	if err != nil {
		t.Fatalf("CategoryToRecord: %v", err)
	}
	if rec.SortOrder != 2 {
		t.Fatalf("expected sort_order 2, got %d", rec.SortOrder)
	}
	if back := CategoryFromRecord(rec); back != orig {
		t.Fatalf("expected %+v, got %+v", orig, back)
	}
}
