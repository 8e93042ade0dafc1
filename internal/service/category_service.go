package service

import (
	"context"
	"fmt"
	"strings"

	"taskflow/internal/model"
	"taskflow/internal/store"
)

// WithTaskCounts returns a copy of categories with TaskCount set to the
// number of non-archived tasks in each. Tasks in unknown categories are
// ignored.
func WithTaskCounts(categories []model.Category, tasks []model.Task) []model.Category {
	counts := make(map[string]int)
	for _, t := range tasks {
		if t.Archived || t.CategoryID == nil {
			continue
		}
		counts[*t.CategoryID]++
	}
	out := make([]model.Category, len(categories))
	for i, c := range categories {
		c.TaskCount = counts[c.ID]
		out[i] = c
	}
	return out
}

// CanDelete reports whether a category has no active tasks.
func CanDelete(c model.Category) bool {
	return c.TaskCount == 0
}

// TaskSource supplies the current task list for category counts.
type TaskSource interface {
	Tasks() []model.Task
}

// CategoryInput is the data required to create a category.
type CategoryInput struct {
	Name  string
	Color string
	Icon  string
}

// CategoryService coordinates category changes with the category store.
type CategoryService struct {
	store     store.CategoryStore
	tasks     TaskSource
	notifier  Notifier
	confirmer Confirmer

	categories []model.Category
}

func NewCategoryService(s store.CategoryStore, tasks TaskSource, notifier Notifier, confirmer Confirmer) *CategoryService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if confirmer == nil {
		confirmer = AlwaysConfirm
	}
	return &CategoryService{store: s, tasks: tasks, notifier: notifier, confirmer: confirmer}
}

// Load replaces the local list with the store's categories.
func (s *CategoryService) Load(ctx context.Context) error {
	categories, err := s.store.GetAll(ctx)
	if err != nil {
		s.notifier.Notify(LevelError, "Failed to load categories")
		return fmt.Errorf("%w: load categories: %w", ErrRemoteFailure, err)
	}
	s.categories = categories
	return nil
}

func (s *CategoryService) currentTasks() []model.Task {
	if s.tasks == nil {
		return nil
	}
	return s.tasks.Tasks()
}

// Categories returns the categories with fresh task counts.
func (s *CategoryService) Categories() []model.Category {
	return WithTaskCounts(s.categories, s.currentTasks())
}

// Category returns one category with its task count.
func (s *CategoryService) Category(id string) (model.Category, error) {
	for _, c := range s.Categories() {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Category{}, fmt.Errorf("%w: category %s", ErrNotFound, id)
}

// Names maps category ids to names.
func (s *CategoryService) Names() map[string]string {
	names := make(map[string]string, len(s.categories))
	for _, c := range s.categories {
		names[c.ID] = c.Name
	}
	return names
}

func (s *CategoryService) indexOf(id string) int {
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, fmt.Errorf("%w: category name is required", ErrValidation)
	}

	category := model.Category{
		Name:  name,
		Color: in.Color,
		Icon:  in.Icon,
		Order: len(s.categories),
	}
	if category.Color == "" {
		category.Color = model.DefaultColors[0]
	}
	if category.Icon == "" {
		category.Icon = model.DefaultIcons[0]
	}

	created, err := s.store.Create(ctx, category)
	if err != nil {
		s.notifier.Notify(LevelError, "Failed to create category")
		return model.Category{}, fmt.Errorf("%w: create category: %w", ErrRemoteFailure, err)
	}

	s.categories = append(append([]model.Category(nil), s.categories...), created)
	s.notifier.Notify(LevelSuccess, "Category created successfully!")
	return created, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Category{}, fmt.Errorf("%w: category %s", ErrNotFound, id)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return model.Category{}, fmt.Errorf("%w: category name is required", ErrValidation)
		}
		patch.Name = &name
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		s.notifier.Notify(LevelError, "Failed to update category")
		return model.Category{}, fmt.Errorf("%w: update category: %w", ErrRemoteFailure, err)
	}

	next := append([]model.Category(nil), s.categories...)
	next[i] = updated
	s.categories = next
	s.notifier.Notify(LevelSuccess, "Category updated successfully!")
	return updated, nil
}

// Delete removes a category that has no active tasks, after confirmation.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	category, err := s.Category(id)
	if err != nil {
		return err
	}
	if !CanDelete(category) {
		s.notifier.Notify(LevelError, "Cannot delete category with existing tasks")
		return fmt.Errorf("%w: category %q has %d tasks", ErrPolicyViolation, category.Name, category.TaskCount)
	}

	ok, err := s.confirmer.Confirm(ctx, fmt.Sprintf("Are you sure you want to delete the category %q?", category.Name))
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		return ErrCancelled
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.notifier.Notify(LevelError, "Failed to delete category")
		return fmt.Errorf("%w: delete category: %w", ErrRemoteFailure, err)
	}

	next := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.ID != id {
			next = append(next, c)
		}
	}
	s.categories = next
	s.notifier.Notify(LevelSuccess, "Category deleted successfully!")
	return nil
}
