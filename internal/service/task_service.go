package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/model"
	"taskflow/internal/store"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	CategoryID  *string
	// Priority defaults to medium when empty.
	Priority model.Priority
	// DueDate defaults to now unless NoDueDate is set.
	DueDate   *time.Time
	NoDueDate bool
}

// TaskService coordinates task changes: the store is called first and the
// local list only changes when that call succeeds.
type TaskService struct {
	store     store.TaskStore
	notifier  Notifier
	confirmer Confirmer
	now       func() time.Time

	tasks []model.Task
}

// TaskOption configures a TaskService.
type TaskOption func(*TaskService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TaskOption {
	return func(s *TaskService) { s.now = now }
}

func NewTaskService(s store.TaskStore, notifier Notifier, confirmer Confirmer, opts ...TaskOption) *TaskService {
	svc := &TaskService{store: s, notifier: notifier, confirmer: confirmer, now: time.Now}
	if svc.notifier == nil {
		svc.notifier = LogNotifier{}
	}
	if svc.confirmer == nil {
		svc.confirmer = AlwaysConfirm
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Now returns the service clock's current time.
func (s *TaskService) Now() time.Time {
	return s.now()
}

func (s *TaskService) remoteFailure(message, op string, err error) error {
	s.notifier.Notify(LevelError, message)
	return fmt.Errorf("%w: %s: %w", ErrRemoteFailure, op, err)
}

// Load replaces the local list with the store's tasks.
func (s *TaskService) Load(ctx context.Context) error {
	tasks, err := s.store.GetAll(ctx)
	if err != nil {
		return s.remoteFailure("Failed to load tasks", "load tasks", err)
	}
	s.tasks = tasks
	return nil
}

// Tasks returns a copy of the local list.
func (s *TaskService) Tasks() []model.Task {
	out := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *TaskService) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Task returns one task from the local list.
func (s *TaskService) Task(id string) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	return s.tasks[i].Clone(), nil
}

// View selects tasks for a view at the current time.
func (s *TaskService) View(view View, query string) []model.Task {
	return SelectView(s.tasks, view, s.now(), query)
}

func (s *TaskService) replace(i int, t model.Task) {
	next := make([]model.Task, len(s.tasks))
	copy(next, s.tasks)
	next[i] = t
	s.tasks = next
}

func (s *TaskService) Create(ctx context.Context, in TaskInput) (model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Task{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return model.Task{}, fmt.Errorf("%w: invalid priority %q", ErrValidation, priority)
	}

	now := s.now()
	task := model.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		CategoryID:  in.CategoryID,
		Priority:    priority,
		CreatedAt:   now,
	}
	switch {
	case in.NoDueDate:
	case in.DueDate != nil:
		due := *in.DueDate
		task.DueDate = &due
	default:
		task.DueDate = &now
	}

	created, err := s.store.Create(ctx, task)
	if err != nil {
		return model.Task{}, s.remoteFailure("Failed to add task", "create task", err)
	}

	s.tasks = append(s.Tasks(), created)
	s.notifier.Notify(LevelSuccess, "Task added successfully!")
	return created.Clone(), nil
}

// Update applies an edit. Changing Completed also sets or clears CompletedAt.
func (s *TaskService) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return model.Task{}, fmt.Errorf("%w: title is required", ErrValidation)
		}
		patch.Title = &title
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return model.Task{}, fmt.Errorf("%w: invalid priority %q", ErrValidation, *patch.Priority)
	}
	if patch.Completed != nil && *patch.Completed != s.tasks[i].Completed {
		if *patch.Completed {
			patch.CompletedAt = model.Set(s.now())
		} else {
			patch.CompletedAt = model.Clear[time.Time]()
		}
	}
	if patch.IsEmpty() {
		return s.tasks[i].Clone(), nil
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return model.Task{}, s.remoteFailure("Failed to update task", "update task", err)
	}
	s.replace(i, updated)
	s.notifier.Notify(LevelSuccess, "Task updated successfully!")
	return updated.Clone(), nil
}

// ToggleComplete flips the completion state of a task.
func (s *TaskService) ToggleComplete(ctx context.Context, id string) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	completed := !s.tasks[i].Completed
	patch := model.TaskPatch{Completed: &completed, CompletedAt: model.Clear[time.Time]()}
	if completed {
		patch.CompletedAt = model.Set(s.now())
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return model.Task{}, s.remoteFailure("Failed to update task", "toggle task", err)
	}
	s.replace(i, updated)
	if completed {
		s.notifier.Notify(LevelSuccess, "Task completed! 🎉")
	} else {
		s.notifier.Notify(LevelInfo, "Task marked as incomplete")
	}
	return updated.Clone(), nil
}

// Archive hides a task from the active views without deleting it.
func (s *TaskService) Archive(ctx context.Context, id string) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	updated, err := s.store.Update(ctx, id, model.TaskPatch{Archived: model.Ptr(true)})
	if err != nil {
		return model.Task{}, s.remoteFailure("Failed to archive task", "archive task", err)
	}
	s.replace(i, updated)
	s.notifier.Notify(LevelSuccess, "Task archived")
	return updated.Clone(), nil
}

// Restore brings an archived task back as an open task.
func (s *TaskService) Restore(ctx context.Context, id string) (model.Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	patch := model.TaskPatch{
		Archived:    model.Ptr(false),
		Completed:   model.Ptr(false),
		CompletedAt: model.Clear[time.Time](),
	}
	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return model.Task{}, s.remoteFailure("Failed to restore task", "restore task", err)
	}
	s.replace(i, updated)
	s.notifier.Notify(LevelSuccess, "Task restored successfully!")
	return updated.Clone(), nil
}

// Delete permanently removes a task once the user confirms.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	ok, err := s.confirmer.Confirm(ctx, fmt.Sprintf("Are you sure you want to permanently delete %q?", s.tasks[i].Title))
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		return ErrCancelled
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return s.remoteFailure("Failed to delete task", "delete task", err)
	}

	next := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.ID != id {
			next = append(next, t)
		}
	}
	s.tasks = next
	s.notifier.Notify(LevelSuccess, "Task permanently deleted")
	return nil
}

// Progress counts completed tasks among today's tasks.
type Progress struct {
	Completed int
	Total     int
}

func (p Progress) String() string {
	return fmt.Sprintf("%d of %d tasks completed", p.Completed, p.Total)
}

// Percent returns the completion ratio as a whole percentage.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return p.Completed * 100 / p.Total
}

// ProgressFor reports completion over the today view at now.
func ProgressFor(tasks []model.Task, now time.Time) Progress {
	today := SelectView(tasks, ViewToday, now, "")
	p := Progress{Total: len(today)}
	for _, t := range today {
		if t.Completed {
			p.Completed++
		}
	}
	return p
}

// Progress reports today's completion at the service clock.
func (s *TaskService) Progress() Progress {
	return ProgressFor(s.tasks, s.now())
}
