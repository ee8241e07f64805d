package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/task-list/internal/model"
)

// TaskRepository is the task store contract shared by every driver.
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	Update(ctx context.Context, id int64, p model.TaskParams) (model.Task, error)
	ToggleCompletion(ctx context.Context, id int64) (model.Task, error)
	Delete(ctx context.Context, id int64) error
	SaveIdempotencyKey(ctx context.Context, key string, resourceID int64) error
	GetIdempotencyKey(ctx context.Context, key string) (int64, error)
	PruneIdempotencyKeys(ctx context.Context, before time.Time) (int64, error)
	GetStats(ctx context.Context) (Stats, error)
}

// Store is a TaskRepository that owns its connection.
type Store interface {
	TaskRepository
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close()
}

type Stats struct {
	TotalTasks int            `json:"total_tasks"`
	ByStatus   map[string]int `json:"by_status"`
}

const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
)

func newStats(total, completed int) Stats {
	return Stats{
		TotalTasks: total,
		ByStatus: map[string]int{
			StatusComplete:   completed,
			StatusIncomplete: total - completed,
		},
	}
}
