package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/BuzzLyutic/task-list/internal/model"
	"github.com/BuzzLyutic/task-list/migrations"
)

// SQLiteTaskRepo is the single-file store used for local runs and fast tests.
// Writes are serialized through one connection.
type SQLiteTaskRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteTaskRepo(db *sql.DB) *SQLiteTaskRepo {
	db.SetMaxOpenConns(1)
	return &SQLiteTaskRepo{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// OpenSQLite opens path with foreign keys enforced.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSQLite(ctx context.Context, q queryer, id int64) (model.Task, error) {
	var (
		t    model.Task
		done sql.NullTime
	)
	err := q.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = ?
	`, id).Scan(&t.ID, &t.Name, &t.Description, &done, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrorNotFound
	}
	if done.Valid {
		t.CompletionDate = &done.Time
	}
	return t, err
}

// inTx runs fn and commits when it succeeds.
func (r *SQLiteTaskRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteTaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	var created model.Task
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		now := r.now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (name, description, completion_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, t.Name, t.Description, utcPtr(t.CompletionDate), now, now)
		if err != nil {
			return mapSQLiteError(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		created, err = getSQLite(ctx, tx, id)
		return err
	})
	return created, err
}

func (r *SQLiteTaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	return getSQLite(ctx, r.db, id)
}

func (r *SQLiteTaskRepo) List(ctx context.Context) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
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
		var (
			t    model.Task
			done sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &done, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		if done.Valid {
			t.CompletionDate = &done.Time
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *SQLiteTaskRepo) Update(ctx context.Context, id int64, p model.TaskParams) (model.Task, error) {
	var updated model.Task
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE tasks SET
				name            = CASE WHEN ? THEN ? ELSE name END,
				description     = CASE WHEN ? THEN ? ELSE description END,
				completion_date = CASE WHEN ? THEN ? ELSE completion_date END,
				updated_at      = ?
			WHERE id = ?
		`,
			p.Name.Set, p.Name.Value,
			p.Description.Set, p.Description.Value,
			p.CompletionDate.Set, utcPtr(p.CompletionDate.Value),
			r.now(), id,
		)
		if err != nil {
			return mapSQLiteError(err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
		updated, err = getSQLite(ctx, tx, id)
		return err
	})
	return updated, err
}

func (r *SQLiteTaskRepo) ToggleCompletion(ctx context.Context, id int64) (model.Task, error) {
	var toggled model.Task
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		now := r.now()
		res, err := tx.ExecContext(ctx, `
			UPDATE tasks SET
				completion_date = CASE WHEN completion_date IS NULL THEN ? ELSE NULL END,
				updated_at      = ?
			WHERE id = ?
		`, now, now, id)
		if err != nil {
			return err
		}
		if err := requireRow(res); err != nil {
			return err
		}
		toggled, err = getSQLite(ctx, tx, id)
		return err
	})
	return toggled, err
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *SQLiteTaskRepo) SaveIdempotencyKey(ctx context.Context, key string, resourceID int64) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO idempotency_keys (key, resource_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET key = excluded.key
		WHERE idempotency_keys.resource_id = excluded.resource_id
	`, key, resourceID, r.now().Unix())
	if err != nil {
		return mapSQLiteError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrorConflict
	}
	return nil
}

func (r *SQLiteTaskRepo) GetIdempotencyKey(ctx context.Context, key string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT resource_id FROM idempotency_keys WHERE key = ?
	`, key).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrorNotFound
	}
	return id, err
}

func (r *SQLiteTaskRepo) PruneIdempotencyKeys(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM idempotency_keys WHERE created_at < ?", before.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteTaskRepo) GetStats(ctx context.Context) (Stats, error) {
	var total, completed int
	err := r.db.QueryRowContext(ctx, `
		SELECT count(*), count(completion_date) FROM tasks
	`).Scan(&total, &completed)
	if err != nil {
		return Stats{}, err
	}
	return newStats(total, completed), nil
}

func (r *SQLiteTaskRepo) Migrate(ctx context.Context) error {
	scripts, err := migrations.Up(migrations.DialectSQLite)
	if err != nil {
		return err
	}
	for _, script := range scripts {
		if _, err := r.db.ExecContext(ctx, script); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteTaskRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteTaskRepo) Close() {
	r.db.Close()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrorNotFound
	}
	return nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func mapSQLiteError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrorConflict
	}
	return err
}
