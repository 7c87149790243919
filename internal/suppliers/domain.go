package suppliers

import (
	"errors"
	"time"
)

// Supplier represents a supplier contact record. Products reference suppliers
// by free-text name only; no relational constraint is enforced here.
type Supplier struct {
	ID          int64     `json:"id"`
	CompanyName string    `json:"company_name"`
	ContactName string    `json:"contact_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ErrInvalid rejects a supplier missing required fields.
var ErrInvalid = errors.New("suppliers: company name is required")
