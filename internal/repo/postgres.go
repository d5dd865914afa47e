package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/todo-app/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id         BIGINT PRIMARY KEY,
	text       TEXT NOT NULL CHECK (btrim(text) <> ''),
	completed  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

type PostgresRepo struct { // Альтернативное хранилище поверх Postgres
	pool *pgxpool.Pool
	ids  *idGenerator
	now  func() time.Time
}

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{
		pool: pool,
		ids:  newIDGenerator(utcNow),
		now:  utcNow,
	}
}

// Init создает таблицу при необходимости и подтягивает максимальный id,
// чтобы генератор не выдал уже занятый.
func (r *PostgresRepo) Init(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var maxID int64
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM tasks`).Scan(&maxID); err != nil {
		return fmt.Errorf("load max id: %w", err)
	}
	r.ids.Observe(maxID)
	return nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, text, completed, created_at, updated_at
		FROM tasks
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, normalize(t))
	}
	return tasks, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		SELECT id, text, completed, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Text, &t.Completed, &t.CreatedAt, &t.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrNotFound
	}
	return normalize(t), err
}

func (r *PostgresRepo) Create(ctx context.Context, text string) (model.Task, error) {
	now := r.now()
	t := model.Task{
		ID:        r.ids.Next(),
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (id, text, completed, created_at, updated_at)
		VALUES ($1, $2, FALSE, $3, $3)
	`, t.ID, t.Text, now)
	return t, r.mapError(err)
}

func (r *PostgresRepo) Update(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error) {
	var t model.Task
	// updated_at всегда строго растет, даже если часы не сдвинулись
	err := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET text = COALESCE($2, text),
		    completed = COALESCE($3, completed),
		    updated_at = GREATEST($4, updated_at + interval '1 millisecond')
		WHERE id = $1
		RETURNING id, text, completed, created_at, updated_at
	`, id, patch.Text, patch.Completed, r.now()).Scan(
		&t.ID, &t.Text, &t.Completed, &t.CreatedAt, &t.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrNotFound
	}
	return normalize(t), r.mapError(err)
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return r.mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetStats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := r.pool.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE completed)
		FROM tasks
	`).Scan(&s.Total, &s.Completed)
	if err != nil {
		return s, err
	}
	s.Pending = s.Total - s.Completed
	return s, nil
}

// mapError превращает ошибки записи в ErrPersistence, сохраняя детали Postgres.
func (r *PostgresRepo) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s (code %s)", ErrPersistence, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// normalize приводит время к UTC с миллисекундной точностью, как у файлового хранилища.
func normalize(t model.Task) model.Task {
	t.CreatedAt = t.CreatedAt.UTC().Truncate(time.Millisecond)
	t.UpdatedAt = t.UpdatedAt.UTC().Truncate(time.Millisecond)
	return t
}
