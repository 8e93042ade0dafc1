package service

import (
	"context"
	"errors"

	"taskflow/internal/model"
	"taskflow/internal/store"
)

var errBoom = errors.New("boom")

type notification struct {
	level   Level
	message string
}

type recordingNotifier struct {
	got []notification
}

func (n *recordingNotifier) Notify(level Level, message string) {
	n.got = append(n.got, notification{level, message})
}

func (n *recordingNotifier) last() notification {
	if len(n.got) == 0 {
		return notification{}
	}
	return n.got[len(n.got)-1]
}

type scriptedConfirmer struct {
	answer  bool
	prompts []string
}

func (c *scriptedConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, nil
}

// flakyTaskStore counts calls and fails them on demand.
type flakyTaskStore struct {
	*store.MemoryTaskStore
	fail  bool
	calls int
}

func (s *flakyTaskStore) Create(ctx context.Context, t model.Task) (model.Task, error) {
	s.calls++
	if s.fail {
		return model.Task{}, errBoom
	}
	return s.MemoryTaskStore.Create(ctx, t)
}

func (s *flakyTaskStore) Update(ctx context.Context, id string, p model.TaskPatch) (model.Task, error) {
	s.calls++
	if s.fail {
		return model.Task{}, errBoom
	}
	return s.MemoryTaskStore.Update(ctx, id, p)
}

func (s *flakyTaskStore) Delete(ctx context.Context, id string) error {
	s.calls++
	if s.fail {
		return errBoom
	}
	return s.MemoryTaskStore.Delete(ctx, id)
}

type flakyCategoryStore struct {
	*store.MemoryCategoryStore
	calls int
}

func (s *flakyCategoryStore) Delete(ctx context.Context, id string) error {
	s.calls++
	return s.MemoryCategoryStore.Delete(ctx, id)
}

type staticTasks []model.Task

func (s staticTasks) Tasks() []model.Task { return s }
