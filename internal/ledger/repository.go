package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/db"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

const productColumns = `id, name, category, unit, supplier_name, origin, delivery_agent,
qty_warehouse, qty_office, reorder_level, price, production_date, expiration_date, created_at, updated_at`

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional stock operations used by the service.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Product, error)
	UpdateQuantities(ctx context.Context, id int64, qtyWarehouse, qtyOffice float64) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// List returns every product row mapped to its entity shape.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	if r == nil {
		return nil, errors.New("ledger repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []Product{}
	for rows.Next() {
		var row ProductRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Category, &row.Unit, &row.SupplierName, &row.Origin, &row.DeliveryAgent,
			&row.QtyWarehouse, &row.QtyOffice, &row.ReorderLevel, &row.Price, &row.ProductionDate, &row.ExpirationDate, &row.CreatedAt, &row.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, ProductFromRow(row))
	}
	return products, rows.Err()
}

// Get fetches one product by id.
func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	var row ProductRow
	err := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id).
		Scan(&row.ID, &row.Name, &row.Category, &row.Unit, &row.SupplierName, &row.Origin, &row.DeliveryAgent,
			&row.QtyWarehouse, &row.QtyOffice, &row.ReorderLevel, &row.Price, &row.ProductionDate, &row.ExpirationDate, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return ProductFromRow(row), nil
}

// Create writes a new product row and returns the stored entity.
func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	row := ProductToRow(p)
	err := r.pool.QueryRow(ctx, `INSERT INTO products
(name, category, unit, supplier_name, origin, delivery_agent, qty_warehouse, qty_office, reorder_level, price, production_date, expiration_date, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW())
RETURNING id, created_at, updated_at`,
		row.Name, row.Category, row.Unit, row.SupplierName, row.Origin, row.DeliveryAgent,
		row.QtyWarehouse, row.QtyOffice, row.ReorderLevel, row.Price, row.ProductionDate, row.ExpirationDate).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

// Update rewrites the descriptive and threshold fields of a product. Stock
// counters move only through the transactional operations.
func (r *Repository) Update(ctx context.Context, id int64, p Product) (Product, error) {
	row := ProductToRow(p)
	err := r.pool.QueryRow(ctx, `UPDATE products SET
name=$1, category=$2, unit=$3, supplier_name=$4, origin=$5, delivery_agent=$6,
reorder_level=$7, price=$8, production_date=$9, expiration_date=$10, updated_at=NOW()
WHERE id=$11
RETURNING qty_warehouse, qty_office, created_at, updated_at`,
		row.Name, row.Category, row.Unit, row.SupplierName, row.Origin, row.DeliveryAgent,
		row.ReorderLevel, row.Price, row.ProductionDate, row.ExpirationDate, id).
		Scan(&p.QtyWarehouse, &p.QtyOffice, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	p.ID = id
	return p, nil
}

// Delete removes a product row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Product, error) {
	var row ProductRow
	err := r.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1 FOR UPDATE`, id).
		Scan(&row.ID, &row.Name, &row.Category, &row.Unit, &row.SupplierName, &row.Origin, &row.DeliveryAgent,
			&row.QtyWarehouse, &row.QtyOffice, &row.ReorderLevel, &row.Price, &row.ProductionDate, &row.ExpirationDate, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return ProductFromRow(row), nil
}

func (r *txRepository) UpdateQuantities(ctx context.Context, id int64, qtyWarehouse, qtyOffice float64) error {
	_, err := r.tx.Exec(ctx, `UPDATE products SET qty_warehouse=$1, qty_office=$2, updated_at=NOW() WHERE id=$3`,
		qtyWarehouse, qtyOffice, id)
	return err
}
