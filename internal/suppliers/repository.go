package suppliers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// Repository persists suppliers in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// supplierRow mirrors the suppliers relation with nullable contact fields.
type supplierRow struct {
	ID          int64
	CompanyName pgtype.Text
	ContactName pgtype.Text
	Email       pgtype.Text
	Phone       pgtype.Text
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

func fromRow(row supplierRow) Supplier {
	return Supplier{
		ID:          row.ID,
		CompanyName: row.CompanyName.String,
		ContactName: row.ContactName.String,
		Email:       row.Email.String,
		Phone:       row.Phone.String,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

// List returns all suppliers ordered by company name.
func (r *Repository) List(ctx context.Context) ([]Supplier, error) {
	if r == nil {
		return nil, errors.New("suppliers repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, company_name, contact_name, email, phone, created_at, updated_at
FROM suppliers ORDER BY company_name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Supplier{}
	for rows.Next() {
		var row supplierRow
		if err := rows.Scan(&row.ID, &row.CompanyName, &row.ContactName, &row.Email, &row.Phone, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, fromRow(row))
	}
	return out, rows.Err()
}

// Get fetches one supplier by id.
func (r *Repository) Get(ctx context.Context, id int64) (Supplier, error) {
	var row supplierRow
	err := r.pool.QueryRow(ctx, `SELECT id, company_name, contact_name, email, phone, created_at, updated_at
FROM suppliers WHERE id=$1`, id).
		Scan(&row.ID, &row.CompanyName, &row.ContactName, &row.Email, &row.Phone, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, shared.ErrNotFound
		}
		return Supplier{}, err
	}
	return fromRow(row), nil
}

// Create writes a new supplier row.
func (r *Repository) Create(ctx context.Context, s Supplier) (Supplier, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO suppliers (company_name, contact_name, email, phone, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		s.CompanyName, s.ContactName, s.Email, s.Phone).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Supplier{}, err
	}
	return s, nil
}

// Update rewrites a supplier row.
func (r *Repository) Update(ctx context.Context, id int64, s Supplier) (Supplier, error) {
	err := r.pool.QueryRow(ctx, `UPDATE suppliers SET company_name=$1, contact_name=$2, email=$3, phone=$4, updated_at=NOW()
WHERE id=$5 RETURNING created_at, updated_at`,
		s.CompanyName, s.ContactName, s.Email, s.Phone, id).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, shared.ErrNotFound
		}
		return Supplier{}, err
	}
	s.ID = id
	return s, nil
}

// Delete removes a supplier row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
