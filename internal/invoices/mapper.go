package invoices

import (
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// invoiceRow mirrors the invoices relation. Line items are stored as a JSONB
// document alongside the scalar columns.
type invoiceRow struct {
	ID              int64
	Number          pgtype.Text
	CustomerName    pgtype.Text
	CustomerEmail   pgtype.Text
	CustomerAddress pgtype.Text
	IssueDate       pgtype.Date
	Items           []byte
	TotalAmount     pgtype.Numeric
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type itemDoc struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
}

func invoiceFromRow(row invoiceRow) Invoice {
	inv := Invoice{
		ID:              strconv.FormatInt(row.ID, 10),
		Number:          row.Number.String,
		CustomerName:    row.CustomerName.String,
		CustomerEmail:   row.CustomerEmail.String,
		CustomerAddress: row.CustomerAddress.String,
		IssueDate:       row.IssueDate.Time,
		Items:           parseItems(row.Items),
		TotalAmount:     numericToDecimal(row.TotalAmount),
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
	return inv
}

// parseItems tolerates malformed or missing item documents. A row with a
// broken items column still lists, just with no lines.
func parseItems(raw []byte) []Item {
	if len(raw) == 0 {
		return []Item{}
	}
	var docs []itemDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return []Item{}
	}
	items := make([]Item, 0, len(docs))
	for _, d := range docs {
		items = append(items, Item{
			Description: d.Description,
			Quantity:    parseDecimal(d.Quantity),
			Rate:        parseDecimal(d.Rate),
			Amount:      parseDecimal(d.Amount),
		})
	}
	return items
}

func encodeItems(items []Item) []byte {
	docs := make([]itemDoc, 0, len(items))
	for _, it := range items {
		docs = append(docs, itemDoc{
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			Rate:        it.Rate.String(),
			Amount:      it.Amount.String(),
		})
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return []byte("[]")
	}
	return raw
}

func parseDecimal(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	value, err := n.Value()
	if err != nil {
		return decimal.Zero
	}
	text, ok := value.(string)
	if !ok {
		return decimal.Zero
	}
	return parseDecimal(text)
}
