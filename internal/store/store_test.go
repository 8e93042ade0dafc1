package store

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/recordapi"
	"taskflow/internal/repository"
)

type backend struct {
	name       string
	tasks      TaskStore
	categories CategoryStore
	// missing is a well-formed id that no record has.
	missing string
}

func backends(t *testing.T) []backend {
	t.Helper()

	newDB := func(name string) (*repository.TaskRepository, *repository.CategoryRepository) {
		db, err := repository.NewDB(filepath.Join(t.TempDir(), name))
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		t.Cleanup(func() { repository.Close(db) })
		return repository.NewTaskRepository(db), repository.NewCategoryRepository(db)
	}

	sqlTasks, sqlCategories := newDB("sql.db")

	apiTasks, apiCategories := newDB("api.db")
	ts := httptest.NewServer(recordapi.NewServer(apiTasks, apiCategories).Handler(recordapi.Options{}))
	t.Cleanup(ts.Close)
	client := NewClient(ts.URL, "")

	return []backend{
		{"memory", NewMemoryTaskStore(nil), NewMemoryCategoryStore(nil), "00000000-0000-0000-0000-000000000000"},
		{"sql", NewSQLTaskStore(sqlTasks), NewSQLCategoryStore(sqlCategories), "999"},
		{"remote", NewRemoteTaskStore(client), NewRemoteCategoryStore(client), "999"},
	}
}

func TestTaskStoreContract(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	due := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			cat, err := b.categories.Create(ctx, model.Category{Name: "Work", Color: "#5B21B6", Icon: "Briefcase"})
			if err != nil {
				t.Fatalf("create category: %v", err)
			}

			in := model.Task{
				Title:      "Buy milk",
				CategoryID: model.Ptr(cat.ID),
				Priority:   model.PriorityHigh,
				DueDate:    &due,
				CreatedAt:  created,
			}
			task, err := b.tasks.Create(ctx, in)
			if err != nil {
				t.Fatalf("create task: %v", err)
			}
			if task.ID == "" {
				t.Fatalf("expected an assigned id")
			}
			if task.Title != "Buy milk" || task.Priority != model.PriorityHigh {
				t.Errorf("unexpected task: %+v", task)
			}
			if !task.InCategory(cat.ID) {
				t.Errorf("expected category %s, got %v", cat.ID, task.CategoryID)
			}
			if task.DueDate == nil || !task.DueDate.Equal(due) {
				t.Errorf("expected due %v, got %v", due, task.DueDate)
			}
			if !task.CreatedAt.Equal(created) {
				t.Errorf("expected created %v, got %v", created, task.CreatedAt)
			}

			got, err := b.tasks.GetByID(ctx, task.ID)
			if err != nil {
				t.Fatalf("get task: %v", err)
			}
			if got.Title != task.Title {
				t.Errorf("expected %q, got %q", task.Title, got.Title)
			}

			done := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
			updated, err := b.tasks.Update(ctx, task.ID, model.TaskPatch{
				Completed:   model.Ptr(true),
				CompletedAt: model.Set(done),
				DueDate:     model.Clear[time.Time](),
			})
			if err != nil {
				t.Fatalf("update task: %v", err)
			}
			if !updated.Completed || updated.CompletedAt == nil || !updated.CompletedAt.Equal(done) {
				t.Errorf("expected completion at %v, got %+v", done, updated)
			}
			if updated.DueDate != nil {
				t.Errorf("expected due date cleared, got %v", updated.DueDate)
			}
			if updated.Title != "Buy milk" || !updated.CreatedAt.Equal(created) {
				t.Errorf("expected untouched fields to survive, got %+v", updated)
			}

			all, err := b.tasks.GetAll(ctx)
			if err != nil {
				t.Fatalf("get all: %v", err)
			}
			if len(all) != 1 {
				t.Fatalf("expected 1 task, got %d", len(all))
			}

			if err := b.tasks.Delete(ctx, task.ID); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := b.tasks.GetByID(ctx, task.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestStoresReportNotFound(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			for _, id := range []string{b.missing, "not-an-id"} {
				if _, err := b.tasks.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
					t.Errorf("GetByID(%q): expected ErrNotFound, got %v", id, err)
				}
				if _, err := b.tasks.Update(ctx, id, model.TaskPatch{Title: model.Ptr("x")}); !errors.Is(err, ErrNotFound) {
					t.Errorf("Update(%q): expected ErrNotFound, got %v", id, err)
				}
				if err := b.tasks.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
					t.Errorf("Delete(%q): expected ErrNotFound, got %v", id, err)
				}
				if err := b.categories.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
					t.Errorf("category Delete(%q): expected ErrNotFound, got %v", id, err)
				}
			}
		})
	}
}

func TestCategoryStoreContract(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends(t) {
		t.Run(b.name, func(t *testing.T) {
			for i, name := range []string{"Work", "Home"} {
				if _, err := b.categories.Create(ctx, model.Category{Name: name, Order: i}); err != nil {
					t.Fatalf("create %s: %v", name, err)
				}
			}
			all, err := b.categories.GetAll(ctx)
			if err != nil {
				t.Fatalf("get all: %v", err)
			}
			if len(all) != 2 || all[0].Name != "Work" || all[1].Name != "Home" {
				t.Fatalf("expected [Work Home], got %+v", all)
			}
			if all[1].Order != 1 {
				t.Errorf("expected order 1, got %d", all[1].Order)
			}

			renamed, err := b.categories.Update(ctx, all[1].ID, model.CategoryPatch{Name: model.Ptr("House"), Order: model.Ptr(-1)})
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if renamed.Name != "House" || renamed.Color != all[1].Color {
				t.Errorf("unexpected category: %+v", renamed)
			}

			all, _ = b.categories.GetAll(ctx)
			if all[0].Name != "House" {
				t.Errorf("expected House first after reorder, got %+v", all)
			}
		})
	}
}
