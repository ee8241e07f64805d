package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/task-list/internal/model"
	"github.com/BuzzLyutic/task-list/migrations"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")
)

const taskColumns = `id, name, description, completion_date, created_at, updated_at`

// TaskRepo is the Postgres store.
type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{
		pool: pool,
	}
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CompletionDate, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	return t, err
}

func (r *TaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	created, err := scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (name, description, completion_date)
		VALUES ($1, $2, $3)
		RETURNING `+taskColumns,
		t.Name, t.Description, t.CompletionDate,
	))
	return created, r.mapError(err)
}

func (r *TaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1
	`, id))
}

func (r *TaskRepo) List(ctx context.Context) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update writes only the supplied fields in a single statement.
func (r *TaskRepo) Update(ctx context.Context, id int64, p model.TaskParams) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks SET
			name            = CASE WHEN $2::boolean THEN $3::text ELSE name END,
			description     = CASE WHEN $4::boolean THEN $5::text ELSE description END,
			completion_date = CASE WHEN $6::boolean THEN $7::timestamptz ELSE completion_date END,
			updated_at      = now()
		WHERE id = $1
		RETURNING `+taskColumns,
		id,
		p.Name.Set, p.Name.Value,
		p.Description.Set, p.Description.Value,
		p.CompletionDate.Set, p.CompletionDate.Value,
	))
	return t, r.mapError(err)
}

// ToggleCompletion flips completion_date in one statement. now() is fixed per
// transaction, so a freshly completed task has completion_date = updated_at.
func (r *TaskRepo) ToggleCompletion(ctx context.Context, id int64) (model.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks SET
			completion_date = CASE WHEN completion_date IS NULL THEN now() ELSE NULL END,
			updated_at      = now()
		WHERE id = $1
		RETURNING `+taskColumns,
		id,
	))
}

func (r *TaskRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

// SaveIdempotencyKey is a no-op when key already names resourceID and
// fails with ErrorConflict when it names another task.
func (r *TaskRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID int64) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, resource_id) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET key = EXCLUDED.key
		WHERE idempotency_keys.resource_id = EXCLUDED.resource_id
	`, key, resourceID)
	if err != nil {
		return r.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrorConflict
	}
	return nil
}

func (r *TaskRepo) GetIdempotencyKey(ctx context.Context, key string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = $1
	`, key).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrorNotFound
	}
	return id, err
}

func (r *TaskRepo) PruneIdempotencyKeys(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM idempotency_keys WHERE created_at < $1", before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *TaskRepo) GetStats(ctx context.Context) (Stats, error) {
	var total, completed int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*), count(completion_date) FROM tasks
	`).Scan(&total, &completed)
	if err != nil {
		return Stats{}, err
	}
	return newStats(total, completed), nil
}

func (r *TaskRepo) Migrate(ctx context.Context) error {
	scripts, err := migrations.Up(migrations.DialectPostgres)
	if err != nil {
		return err
	}
	for _, script := range scripts {
		if _, err := r.pool.Exec(ctx, script); err != nil {
			return err
		}
	}
	return nil
}

func (r *TaskRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *TaskRepo) Close() {
	r.pool.Close()
}

// mapError turns a unique violation into ErrorConflict.
func (r *TaskRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return ErrorConflict
		}
	}
	return err
}
