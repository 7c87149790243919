package invoices

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

const invoiceColumns = `id, number, customer_name, customer_email, customer_address, issue_date, items, total_amount, created_at, updated_at`

// Repository persists invoices in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// IsUndefinedTable reports whether the error is PostgreSQL 42P01, the signal
// that the invoices relation has not been provisioned yet.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

// List returns all invoices, newest issue date first.
func (r *Repository) List(ctx context.Context) ([]Invoice, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY issue_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Invoice{}
	for rows.Next() {
		var row invoiceRow
		if err := scanInvoice(rows, &row); err != nil {
			return nil, err
		}
		out = append(out, invoiceFromRow(row))
	}
	return out, rows.Err()
}

// Get fetches one invoice by its numeric id.
func (r *Repository) Get(ctx context.Context, id string) (Invoice, error) {
	numeric, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Invoice{}, shared.ErrNotFound
	}
	var row invoiceRow
	err = scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, numeric), &row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, shared.ErrNotFound
		}
		return Invoice{}, err
	}
	return invoiceFromRow(row), nil
}

// Create writes a new invoice row and returns it with its assigned id.
func (r *Repository) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO invoices (number, customer_name, customer_email, customer_address, issue_date, items, total_amount, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW()) RETURNING id, created_at, updated_at`,
		inv.Number, inv.CustomerName, inv.CustomerEmail, inv.CustomerAddress, inv.IssueDate,
		encodeItems(inv.Items), inv.TotalAmount).
		Scan(&id, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return Invoice{}, err
	}
	inv.ID = strconv.FormatInt(id, 10)
	inv.Local = false
	return inv, nil
}

// Delete removes an invoice row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	numeric, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return shared.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id=$1`, numeric)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(s rowScanner, row *invoiceRow) error {
	return s.Scan(&row.ID, &row.Number, &row.CustomerName, &row.CustomerEmail, &row.CustomerAddress,
		&row.IssueDate, &row.Items, &row.TotalAmount, &row.CreatedAt, &row.UpdatedAt)
}
