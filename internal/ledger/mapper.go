package ledger

import (
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
)

// ProductRow mirrors the products relation: flat, snake_case, nullable. The
// mapper is the only place that knows both shapes; it is pure and never
// panics on missing or oddly-typed values.
type ProductRow struct {
	ID             int64
	Name           pgtype.Text
	Category       pgtype.Text
	Unit           pgtype.Text
	SupplierName   pgtype.Text
	Origin         pgtype.Text
	DeliveryAgent  pgtype.Text
	QtyWarehouse   pgtype.Numeric
	QtyOffice      pgtype.Numeric
	ReorderLevel   pgtype.Numeric
	Price          pgtype.Numeric
	ProductionDate pgtype.Date
	ExpirationDate pgtype.Date
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

// ProductFromRow converts a stored row into the typed entity. Null text maps
// to "", null numerics to 0, null dates to the zero time.
func ProductFromRow(row ProductRow) Product {
	return Product{
		ID:             row.ID,
		Name:           row.Name.String,
		Category:       row.Category.String,
		Unit:           row.Unit.String,
		SupplierName:   row.SupplierName.String,
		Origin:         row.Origin.String,
		DeliveryAgent:  row.DeliveryAgent.String,
		QtyWarehouse:   numericToFloat(row.QtyWarehouse),
		QtyOffice:      numericToFloat(row.QtyOffice),
		ReorderLevel:   numericToFloat(row.ReorderLevel),
		Price:          numericToFloat(row.Price),
		ProductionDate: row.ProductionDate.Time,
		ExpirationDate: row.ExpirationDate.Time,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

// ProductToRow converts the entity back into its row shape. Empty optional
// strings become NULL so the round trip preserves semantic values.
func ProductToRow(p Product) ProductRow {
	return ProductRow{
		ID:             p.ID,
		Name:           textValue(p.Name),
		Category:       textValue(p.Category),
		Unit:           textValue(p.Unit),
		SupplierName:   textValue(p.SupplierName),
		Origin:         textValue(p.Origin),
		DeliveryAgent:  textValue(p.DeliveryAgent),
		QtyWarehouse:   floatToNumeric(p.QtyWarehouse),
		QtyOffice:      floatToNumeric(p.QtyOffice),
		ReorderLevel:   floatToNumeric(p.ReorderLevel),
		Price:          floatToNumeric(p.Price),
		ProductionDate: pgtype.Date{Time: p.ProductionDate, Valid: !p.ProductionDate.IsZero()},
		ExpirationDate: pgtype.Date{Time: p.ExpirationDate, Valid: !p.ExpirationDate.IsZero()},
		CreatedAt:      pgtype.Timestamptz{Time: p.CreatedAt, Valid: !p.CreatedAt.IsZero()},
		UpdatedAt:      pgtype.Timestamptz{Time: p.UpdatedAt, Valid: !p.UpdatedAt.IsZero()},
	}
}

// CoerceFloat accepts numbers that arrive as float64, int, or text. Rows that
// pass through JSON intermediaries sometimes carry numerics as strings; a
// value of unexpected shape maps to 0 rather than failing the whole row.
func CoerceFloat(v any) float64 {
	switch value := v.(type) {
	case float64:
		return value
	case float32:
		return float64(value)
	case int:
		return float64(value)
	case int64:
		return float64(value)
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func textValue(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func numericToFloat(n pgtype.Numeric) float64 {
	f, _ := n.Float64Value()
	return f.Float64
}

func floatToNumeric(f float64) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(fmt.Sprintf("%f", f))
	return n
}
