package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BuzzLyutic/task-list/internal/model"
	"github.com/BuzzLyutic/task-list/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

type TaskService struct {
	repo repo.TaskRepository
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// Lookup is the outcome of resolving an id: either Found with Task set,
// or not found for ID.
type Lookup struct {
	ID    int64
	Task  model.Task
	Found bool
}

// ParseID resolves a raw path id. Anything that is not an integer can never
// name a task, so it is reported as not found rather than as bad input.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: task id %q", repo.ErrorNotFound, raw)
	}
	return id, nil
}

// Find returns a not-found Lookup instead of an error for missing ids.
// The error is reserved for store failures.
func (s *TaskService) Find(ctx context.Context, id int64) (Lookup, error) {
	t, err := s.repo.Get(ctx, id)
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		return Lookup{ID: id}, nil
	case err != nil:
		return Lookup{ID: id}, err
	}
	return Lookup{ID: id, Task: t, Found: true}, nil
}

func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	return s.repo.List(ctx)
}

// Create stores a new task. A repeated idempotency key returns the task
// created under it instead of a new one.
func (s *TaskService) Create(ctx context.Context, p model.TaskParams, idempKey string) (model.Task, error) {
	t := p.Apply(model.Task{})
	if err := s.validate(t); err != nil {
		return t, err
	}

	if idempKey != "" {
		existingID, err := s.repo.GetIdempotencyKey(ctx, idempKey)
		switch {
		case err == nil:
			existing, err := s.repo.Get(ctx, existingID)
			if !errors.Is(err, repo.ErrorNotFound) {
				return existing, err
			}
		case !errors.Is(err, repo.ErrorNotFound):
			return model.Task{}, fmt.Errorf("look up idempotency key: %w", err)
		}
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return created, err
	}

	if idempKey != "" {
		err := s.repo.SaveIdempotencyKey(ctx, idempKey, created.ID)
		if errors.Is(err, repo.ErrorConflict) {
			return s.resolveKeyRace(ctx, idempKey, created.ID)
		}
		if err != nil {
			return created, fmt.Errorf("save idempotency key: %w", err)
		}
	}

	return created, nil
}

// resolveKeyRace runs when a concurrent request claimed idempKey first:
// the duplicate is removed and the winner's task returned.
func (s *TaskService) resolveKeyRace(ctx context.Context, idempKey string, duplicateID int64) (model.Task, error) {
	if err := s.repo.Delete(ctx, duplicateID); err != nil && !errors.Is(err, repo.ErrorNotFound) {
		return model.Task{}, fmt.Errorf("drop duplicate task %d: %w", duplicateID, err)
	}
	winnerID, err := s.repo.GetIdempotencyKey(ctx, idempKey)
	if err != nil {
		return model.Task{}, err
	}
	return s.repo.Get(ctx, winnerID)
}

// Update applies the supplied fields only.
func (s *TaskService) Update(ctx context.Context, id int64, p model.TaskParams) (model.Task, error) {
	if p.BlankName() {
		return model.Task{ID: id}, fmt.Errorf("%w: name can't be blank", ErrValidation)
	}
	return s.repo.Update(ctx, id, p)
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ToggleCompletion marks an incomplete task complete as of now, or clears
// the completion date of a complete one.
func (s *TaskService) ToggleCompletion(ctx context.Context, id int64) (model.Task, error) {
	return s.repo.ToggleCompletion(ctx, id)
}

func (s *TaskService) GetStats(ctx context.Context) (repo.Stats, error) {
	return s.repo.GetStats(ctx)
}

func (s *TaskService) validate(t model.Task) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name can't be blank", ErrValidation)
	}
	return nil
}
