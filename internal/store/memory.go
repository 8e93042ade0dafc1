package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/model"
)

// MemoryOption configures an in-memory store.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	latency time.Duration
}

// WithLatency delays every call by d to mimic a network round trip.
func WithLatency(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.latency = d }
}

// memory keeps records in insertion order and hands out copies only.
type memory[T, P any] struct {
	mu      sync.Mutex
	items   []T
	latency time.Duration
	kind    string

	id    func(T) string
	setID func(*T, string)
	clone func(T) T
	apply func(P, T) T
}

func (m *memory[T, P]) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (m *memory[T, P]) indexOf(id string) int {
	for i, item := range m.items {
		if m.id(item) == id {
			return i
		}
	}
	return -1
}

func (m *memory[T, P]) GetAll(ctx context.Context) ([]T, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]T, len(m.items))
	for i, item := range m.items {
		out[i] = m.clone(item)
	}
	return out, nil
}

func (m *memory[T, P]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	if err := m.wait(ctx); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return zero, fmt.Errorf("%w: %s %s", ErrNotFound, m.kind, id)
	}
	return m.clone(m.items[i]), nil
}

func (m *memory[T, P]) create(ctx context.Context, item T, prepare func(*T, int)) (T, error) {
	var zero T
	if err := m.wait(ctx); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.clone(item)
	m.setID(&stored, uuid.NewString())
	if prepare != nil {
		prepare(&stored, len(m.items))
	}
	m.items = append(m.items, stored)
	return m.clone(stored), nil
}

func (m *memory[T, P]) Update(ctx context.Context, id string, patch P) (T, error) {
	var zero T
	if err := m.wait(ctx); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return zero, fmt.Errorf("%w: %s %s", ErrNotFound, m.kind, id)
	}
	m.items[i] = m.apply(patch, m.items[i])
	return m.clone(m.items[i]), nil
}

func (m *memory[T, P]) Delete(ctx context.Context, id string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, m.kind, id)
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return nil
}

// MemoryTaskStore is an in-memory TaskStore.
type MemoryTaskStore struct {
	memory[model.Task, model.TaskPatch]
}

// NewMemoryTaskStore returns a store holding copies of tasks.
func NewMemoryTaskStore(tasks []model.Task, opts ...MemoryOption) *MemoryTaskStore {
	var cfg memoryConfig
	for _, o := range opts {
		o(&cfg)
	}
	s := &MemoryTaskStore{memory[model.Task, model.TaskPatch]{
		latency: cfg.latency,
		kind:    "task",
		id:      func(t model.Task) string { return t.ID },
		setID:   func(t *model.Task, id string) { t.ID = id },
		clone:   model.Task.Clone,
		apply:   model.TaskPatch.Apply,
	}}
	for _, t := range tasks {
		s.items = append(s.items, t.Clone())
	}
	return s
}

// Create stores a copy of task under a new id.
func (s *MemoryTaskStore) Create(ctx context.Context, task model.Task) (model.Task, error) {
	return s.create(ctx, task, nil)
}

// MemoryCategoryStore is an in-memory CategoryStore.
type MemoryCategoryStore struct {
	memory[model.Category, model.CategoryPatch]
}

// NewMemoryCategoryStore returns a store holding copies of categories.
func NewMemoryCategoryStore(categories []model.Category, opts ...MemoryOption) *MemoryCategoryStore {
	var cfg memoryConfig
	for _, o := range opts {
		o(&cfg)
	}
	s := &MemoryCategoryStore{memory[model.Category, model.CategoryPatch]{
		latency: cfg.latency,
		kind:    "category",
		id:      func(c model.Category) string { return c.ID },
		setID:   func(c *model.Category, id string) { c.ID = id },
		clone:   func(c model.Category) model.Category { return c },
		apply:   model.CategoryPatch.Apply,
	}}
	s.items = append(s.items, categories...)
	return s
}

// Create stores category under a new id at the end of the list with a zero
// task count.
func (s *MemoryCategoryStore) Create(ctx context.Context, category model.Category) (model.Category, error) {
	return s.create(ctx, category, func(c *model.Category, n int) {
		c.TaskCount = 0
		c.Order = n
	})
}

var (
	_ TaskStore     = (*MemoryTaskStore)(nil)
	_ CategoryStore = (*MemoryCategoryStore)(nil)
)

// GetAll returns the categories sorted by Order.
func (s *MemoryCategoryStore) GetAll(ctx context.Context) ([]model.Category, error) {
	out, err := s.memory.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sortCategories(out)
	return out, nil
}
