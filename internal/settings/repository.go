package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// Repository persists settings as key/value JSONB documents.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the raw JSON document for key.
func (r *Repository) Get(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT value FROM app_settings WHERE key=$1`, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return raw, nil
}

// Set upserts the JSON document for key.
func (r *Repository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO app_settings (key, value, updated_at) VALUES ($1,$2,NOW())
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`, key, value)
	return err
}
