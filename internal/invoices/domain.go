package invoices

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LocalIDPrefix marks invoices that only exist in the file fallback store.
const LocalIDPrefix = "loc-"

// Item is a single invoice line. Amount is always recomputed server-side.
type Item struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// Invoice is a customer invoice. IDs are strings so locally persisted
// invoices and remote rows share one listing.
type Invoice struct {
	ID              string          `json:"id"`
	Number          string          `json:"number"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerAddress string          `json:"customer_address"`
	IssueDate       time.Time       `json:"issue_date"`
	Items           []Item          `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Local           bool            `json:"local"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsLocal reports whether the invoice lives only in the fallback store.
func (i Invoice) IsLocal() bool {
	return i.Local || strings.HasPrefix(i.ID, LocalIDPrefix)
}

// ComputeTotals rewrites every line amount as quantity*rate and sums them.
// Client-supplied amounts are never trusted.
func (i *Invoice) ComputeTotals() {
	total := decimal.Zero
	for idx := range i.Items {
		i.Items[idx].Amount = i.Items[idx].Quantity.Mul(i.Items[idx].Rate)
		total = total.Add(i.Items[idx].Amount)
	}
	i.TotalAmount = total
}

// MintNumber produces a display invoice number, e.g. INV-2026-4821.
func MintNumber(now time.Time) string {
	return fmt.Sprintf("INV-%d-%04d", now.Year(), rand.Intn(10000))
}

// ErrInvalid indicates an invoice missing required fields.
var ErrInvalid = errors.New("invoices: customer name and at least one item are required")
