// Package store provides the record store clients used by the coordinators:
// an in-memory mock, a local SQL database and a remote record service.
package store

import (
	"context"
	"errors"

	"taskflow/internal/model"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// TaskStore performs CRUD on tasks.
type TaskStore interface {
	GetAll(ctx context.Context) ([]model.Task, error)
	GetByID(ctx context.Context, id string) (model.Task, error)
	Create(ctx context.Context, task model.Task) (model.Task, error)
	Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error)
	Delete(ctx context.Context, id string) error
}

// CategoryStore performs CRUD on categories.
type CategoryStore interface {
	GetAll(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id string) (model.Category, error)
	Create(ctx context.Context, category model.Category) (model.Category, error)
	Update(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error)
	Delete(ctx context.Context, id string) error
}
