package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/task-list/internal/model"
)

// testTaskRepository runs the behaviour every driver must share.
// newRepo must return a repository over an empty store.
func testTaskRepository(t *testing.T, newRepo func(t *testing.T) TaskRepository) {
	ctx := context.Background()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		r := newRepo(t)

		created, err := r.Create(ctx, model.Task{Name: "new task", Description: "new task description"})
		require.NoError(t, err)

		assert.NotZero(t, created.ID)
		assert.Equal(t, "new task", created.Name)
		assert.Equal(t, "new task description", created.Description)
		assert.Nil(t, created.CompletionDate)
		assert.False(t, created.UpdatedAt.IsZero())

		got, err := r.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, created.Name, got.Name)
	})

	t.Run("ids are not reused after delete", func(t *testing.T) {
		r := newRepo(t)

		first, err := r.Create(ctx, model.Task{Name: "first"})
		require.NoError(t, err)
		require.NoError(t, r.Delete(ctx, first.ID))

		second, err := r.Create(ctx, model.Task{Name: "second"})
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("get missing", func(t *testing.T) {
		r := newRepo(t)

		_, err := r.Get(ctx, -1)
		assert.ErrorIs(t, err, ErrorNotFound)
	})

	t.Run("list in id order", func(t *testing.T) {
		r := newRepo(t)

		for _, name := range []string{"a", "b", "c"} {
			_, err := r.Create(ctx, model.Task{Name: name})
			require.NoError(t, err)
		}

		tasks, err := r.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, "a", tasks[0].Name)
		assert.Equal(t, "c", tasks[2].Name)
	})

	t.Run("update applies only supplied fields", func(t *testing.T) {
		r := newRepo(t)

		done := time.Now().Add(5 * 24 * time.Hour).UTC().Truncate(time.Second)
		created, err := r.Create(ctx, model.Task{Name: "sample task", Description: "keep", CompletionDate: &done})
		require.NoError(t, err)

		updated, err := r.Update(ctx, created.ID, model.TaskParams{Name: model.Some("renamed")})
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Name)
		assert.Equal(t, "keep", updated.Description)
		require.NotNil(t, updated.CompletionDate)
		assert.True(t, done.Equal(*updated.CompletionDate))
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		cleared, err := r.Update(ctx, created.ID, model.TaskParams{
			Name:           model.Some("update task"),
			Description:    model.Some("update description"),
			CompletionDate: model.Some[*time.Time](nil),
		})
		require.NoError(t, err)
		assert.Equal(t, "update task", cleared.Name)
		assert.Equal(t, "update description", cleared.Description)
		assert.Nil(t, cleared.CompletionDate)
	})

	t.Run("update missing", func(t *testing.T) {
		r := newRepo(t)

		_, err := r.Update(ctx, -1, model.TaskParams{Name: model.Some("x")})
		assert.ErrorIs(t, err, ErrorNotFound)
	})

	t.Run("toggle completion", func(t *testing.T) {
		r := newRepo(t)

		created, err := r.Create(ctx, model.Task{Name: "New Task for completion"})
		require.NoError(t, err)

		completed, err := r.ToggleCompletion(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, completed.CompletionDate)
		assert.True(t, completed.CompletionDate.Equal(completed.UpdatedAt))
		assert.Equal(t, created.Name, completed.Name)
		assert.Equal(t, created.Description, completed.Description)

		reopened, err := r.ToggleCompletion(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, reopened.CompletionDate)
		assert.Equal(t, created.Name, reopened.Name)

		_, err = r.ToggleCompletion(ctx, -1)
		assert.ErrorIs(t, err, ErrorNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		r := newRepo(t)

		created, err := r.Create(ctx, model.Task{Name: "New Task"})
		require.NoError(t, err)

		require.NoError(t, r.Delete(ctx, created.ID))
		_, err = r.Get(ctx, created.ID)
		assert.ErrorIs(t, err, ErrorNotFound)

		assert.ErrorIs(t, r.Delete(ctx, -1), ErrorNotFound)
	})

	t.Run("idempotency keys", func(t *testing.T) {
		r := newRepo(t)

		created, err := r.Create(ctx, model.Task{Name: "idempotent"})
		require.NoError(t, err)

		_, err = r.GetIdempotencyKey(ctx, "key-1")
		assert.ErrorIs(t, err, ErrorNotFound)

		require.NoError(t, r.SaveIdempotencyKey(ctx, "key-1", created.ID))
		require.NoError(t, r.SaveIdempotencyKey(ctx, "key-1", created.ID))

		other, err := r.Create(ctx, model.Task{Name: "other"})
		require.NoError(t, err)
		assert.ErrorIs(t, r.SaveIdempotencyKey(ctx, "key-1", other.ID), ErrorConflict)

		id, err := r.GetIdempotencyKey(ctx, "key-1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, id)

		pruned, err := r.PruneIdempotencyKeys(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Zero(t, pruned)

		pruned, err = r.PruneIdempotencyKeys(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(1), pruned)

		_, err = r.GetIdempotencyKey(ctx, "key-1")
		assert.ErrorIs(t, err, ErrorNotFound)
	})

	t.Run("idempotency key removed with its task", func(t *testing.T) {
		r := newRepo(t)

		created, err := r.Create(ctx, model.Task{Name: "cascade"})
		require.NoError(t, err)
		require.NoError(t, r.SaveIdempotencyKey(ctx, "key-2", created.ID))
		require.NoError(t, r.Delete(ctx, created.ID))

		_, err = r.GetIdempotencyKey(ctx, "key-2")
		assert.ErrorIs(t, err, ErrorNotFound)
	})

	t.Run("stats", func(t *testing.T) {
		r := newRepo(t)

		a, err := r.Create(ctx, model.Task{Name: "a"})
		require.NoError(t, err)
		_, err = r.Create(ctx, model.Task{Name: "b"})
		require.NoError(t, err)
		_, err = r.ToggleCompletion(ctx, a.ID)
		require.NoError(t, err)

		stats, err := r.GetStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalTasks)
		assert.Equal(t, 1, stats.ByStatus[StatusComplete])
		assert.Equal(t, 1, stats.ByStatus[StatusIncomplete])
	})
}
