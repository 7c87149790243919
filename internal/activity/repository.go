package activity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists activity entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends one entry.
func (r *Repository) Insert(ctx context.Context, entry Entry) (int64, error) {
	if r == nil {
		return 0, errors.New("activity repository not initialised")
	}
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO activity_logs (kind, subject, detail, actor_id, actor_name, occurred_at)
VALUES ($1,$2,$3,$4,$5,COALESCE($6, NOW())) RETURNING id`,
		string(entry.Kind), entry.Subject, entry.Detail, entry.ActorID, entry.ActorName, nullTime(entry.OccurredAt)).Scan(&id)
	return id, err
}

// Recent returns the most recent entries, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if r == nil {
		return nil, errors.New("activity repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, kind, subject, detail, actor_id, actor_name, occurred_at
FROM activity_logs ORDER BY occurred_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.Subject, &e.Detail, &e.ActorID, &e.ActorName, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
