package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"taskflow/internal/model"
	"taskflow/internal/record"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestTaskRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))

	task := record.TaskRecord{Title: "Buy milk", Priority: "medium", CreatedAt: "2026-01-01T00:00:00Z"}
	if err := repo.Create(ctx, &task); err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	due := "2026-01-02T00:00:00Z"
	updated, err := repo.Update(ctx, task.ID, map[string]any{"completed": true, "due_date": due})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Completed || updated.DueDate == nil || *updated.DueDate != due {
		t.Fatalf("unexpected updated record %+v", updated)
	}

	cleared, err := repo.Update(ctx, task.ID, map[string]any{"due_date": nil})
	if err != nil {
		t.Fatalf("clear due date: %v", err)
	}
	if cleared.DueDate != nil {
		t.Fatalf("expected due date cleared, got %v", *cleared.DueDate)
	}
	if cleared.Title != "Buy milk" {
		t.Fatalf("expected untouched title, got %q", cleared.Title)
	}

	if err := repo.Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, task.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, task.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound deleting twice, got %v", err)
	}
	if _, err := repo.Update(ctx, task.ID, map[string]any{"title": "x"}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound updating missing row, got %v", err)
	}
}

func TestTaskRepositoryListPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))

	for _, title := range []string{"a", "b", "c", "d", "e"} {
		row := record.TaskRecord{Title: title, Priority: "low"}
		if err := repo.Create(ctx, &row); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	rows, total, err := repo.List(ctx, ListOptions{Offset: 2, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(rows) != 2 || rows[0].Title != "c" || rows[1].Title != "d" {
		t.Errorf("unexpected page %+v", rows)
	}

	all, _, err := repo.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("expected 5 rows, got %d", len(all))
	}
}

func TestTaskRepositoryCountByCategory(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))

	one, two := int64(1), int64(2)
	rows := []record.TaskRecord{
		{Title: "a", Priority: "low", CategoryID: &one},
		{Title: "b", Priority: "low", CategoryID: &one},
		{Title: "c", Priority: "low", CategoryID: &one, Archived: true},
		{Title: "d", Priority: "low", CategoryID: &two},
		{Title: "e", Priority: "low"},
	}
	for i := range rows {
		if err := repo.Create(ctx, &rows[i]); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	counts, err := repo.CountByCategory(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[1] != 2 || counts[2] != 1 || len(counts) != 2 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestCategoryRepositoryOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(openTestDB(t))

	for i, name := range []string{"Work", "Home"} {
		next, err := repo.NextOrder(ctx)
		if err != nil {
			t.Fatalf("next order: %v", err)
		}
		if next != i {
			t.Fatalf("expected next order %d, got %d", i, next)
		}
		row := record.CategoryRecord{Name: name, SortOrder: 1 - i}
		if err := repo.Create(ctx, &row); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	cats, err := repo.ListOrdered(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Home" {
		t.Fatalf("expected Home first, got %+v", cats)
	}
}

func TestSubscriberRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewSubscriberRepository(openTestDB(t))

	if _, err := repo.Upsert(ctx, model.Subscriber{TelegramID: 10, ChatID: 10, FirstName: "A"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := repo.Upsert(ctx, model.Subscriber{TelegramID: 10, ChatID: 11, FirstName: "B"}); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	subs, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 || subs[0].ChatID != 11 || subs[0].FirstName != "B" {
		t.Fatalf("unexpected subscribers %+v", subs)
	}

	if err := repo.Remove(ctx, 10); err != nil {
		t.Fatalf("remove: %v", err)
	}
	subs, _ = repo.ListAll(ctx)
	if len(subs) != 0 {
		t.Fatalf("expected no subscribers, got %d", len(subs))
	}
}

func TestWithBusyTimeout(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"taskflow.db", "taskflow.db?_busy_timeout=5000"},
		{"file:taskflow.db?cache=shared", "file:taskflow.db?cache=shared&_busy_timeout=5000"},
		{"taskflow.db?_busy_timeout=100", "taskflow.db?_busy_timeout=100"},
	}
	for _, tt := range tests {
		if got := withBusyTimeout(tt.dsn); got != tt.want {
			t.Errorf("dsn %q: expected %q, got %q", tt.dsn, tt.want, got)
		}
	}
}

func TestNewDBCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "quiet.db")
	db, err := NewDB(path, Quiet())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer Close(db)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}
