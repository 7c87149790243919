package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// Repository persists profiles in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a profile by the auth user id.
func (r *Repository) GetByID(ctx context.Context, id int64) (Profile, error) {
	if r == nil {
		return Profile{}, errors.New("profile repository not initialised")
	}
	var p Profile
	var role string
	err := r.pool.QueryRow(ctx, `SELECT id, name, email, role, created_at, updated_at FROM profiles WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Email, &role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, shared.ErrNotFound
		}
		return Profile{}, err
	}
	p.Role = Role(role)
	return p, nil
}

// Create inserts a new profile row.
func (r *Repository) Create(ctx context.Context, p Profile) (Profile, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO profiles (id, name, email, role, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW()) RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Email, string(p.Role)).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}

// UpdateRole reconciles the stored role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role Role) error {
	_, err := r.pool.Exec(ctx, `UPDATE profiles SET role=$1, updated_at=NOW() WHERE id=$2`, string(role), id)
	return err
}

// UpdateName changes the display name.
func (r *Repository) UpdateName(ctx context.Context, id int64, name string) error {
	_, err := r.pool.Exec(ctx, `UPDATE profiles SET name=$1, updated_at=NOW() WHERE id=$2`, name, id)
	return err
}
