package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"

	"taskflow/internal/model"
	"taskflow/internal/record"
	"taskflow/internal/repository"
)

// notFound turns a missing row into ErrNotFound.
func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return err
}

// SQLTaskStore is a TaskStore over the local task table.
type SQLTaskStore struct {
	repo *repository.TaskRepository
	now  func() time.Time
}

func NewSQLTaskStore(repo *repository.TaskRepository) *SQLTaskStore {
	return &SQLTaskStore{repo: repo, now: time.Now}
}

func (s *SQLTaskStore) GetAll(ctx context.Context) ([]model.Task, error) {
	rows, _, err := s.repo.List(ctx, repository.ListOptions{})
	if err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, record.TaskFromRecord(r))
	}
	return tasks, nil
}

func (s *SQLTaskStore) GetByID(ctx context.Context, id string) (model.Task, error) {
	rid, err := record.ParseID(id)
	if err != nil {
		return model.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	row, err := s.repo.FindByID(ctx, rid)
	if err != nil {
		return model.Task{}, notFound(err, "task", id)
	}
	return record.TaskFromRecord(*row), nil
}

func (s *SQLTaskStore) Create(ctx context.Context, task model.Task) (model.Task, error) {
	task.ID = ""
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.now()
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	row, err := record.TaskToRecord(task)
	if err != nil {
		return model.Task{}, err
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		return model.Task{}, err
	}
	return record.TaskFromRecord(row), nil
}

func (s *SQLTaskStore) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	rid, err := record.ParseID(id)
	if err != nil {
		return model.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	fields, err := record.TaskPatchFields(patch)
	if err != nil {
		return model.Task{}, err
	}
	row, err := s.repo.Update(ctx, rid, fields)
	if err != nil {
		return model.Task{}, notFound(err, "task", id)
	}
	return record.TaskFromRecord(*row), nil
}

func (s *SQLTaskStore) Delete(ctx context.Context, id string) error {
	rid, err := record.ParseID(id)
	if err != nil {
		return fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	return notFound(s.repo.Delete(ctx, rid), "task", id)
}

// SQLCategoryStore is a CategoryStore over the local category table.
type SQLCategoryStore struct {
	repo *repository.CategoryRepository
}

func NewSQLCategoryStore(repo *repository.CategoryRepository) *SQLCategoryStore {
	return &SQLCategoryStore{repo: repo}
}

func (s *SQLCategoryStore) GetAll(ctx context.Context) ([]model.Category, error) {
	rows, err := s.repo.ListOrdered(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, record.CategoryFromRecord(r))
	}
	return out, nil
}

func (s *SQLCategoryStore) GetByID(ctx context.Context, id string) (model.Category, error) {
	rid, err := record.ParseID(id)
	if err != nil {
		return model.Category{}, fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	row, err := s.repo.FindByID(ctx, rid)
	if err != nil {
		return model.Category{}, notFound(err, "category", id)
	}
	return record.CategoryFromRecord(*row), nil
}

func (s *SQLCategoryStore) Create(ctx context.Context, category model.Category) (model.Category, error) {
	category.ID = ""
	row, err := record.CategoryToRecord(category)
	if err != nil {
		return model.Category{}, err
	}
	if err := s.repo.Create(ctx, &row); err != nil {
		return model.Category{}, err
	}
	return record.CategoryFromRecord(row), nil
}

func (s *SQLCategoryStore) Update(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	rid, err := record.ParseID(id)
	if err != nil {
		return model.Category{}, fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	row, err := s.repo.Update(ctx, rid, record.CategoryPatchFields(patch))
	if err != nil {
		return model.Category{}, notFound(err, "category", id)
	}
	return record.CategoryFromRecord(*row), nil
}

func (s *SQLCategoryStore) Delete(ctx context.Context, id string) error {
	rid, err := record.ParseID(id)
	if err != nil {
		return fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	return notFound(s.repo.Delete(ctx, rid), "category", id)
}

var (
	_ TaskStore     = (*SQLTaskStore)(nil)
	_ CategoryStore = (*SQLCategoryStore)(nil)
)

// sortCategories orders categories by Order, keeping id order for ties.
func sortCategories(cs []model.Category) {
	slices.SortStableFunc(cs, func(a, b model.Category) int {
		return cmp.Compare(a.Order, b.Order)
	})
}
