package alerts

import "time"

// Severity grades a notification.
type Severity string

const (
	// SeverityWarning flags conditions needing attention soon.
	SeverityWarning Severity = "WARNING"
	// SeverityDanger flags conditions already in a bad state.
	SeverityDanger Severity = "DANGER"
)

// Notification is a derived alert about one product. IDs are deterministic
// per product and condition so read state survives recomputation.
type Notification struct {
	ID        string    `json:"id"`
	ProductID int64     `json:"product_id"`
	Product   string    `json:"product"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

const (
	lowStockPrefix    = "low-"
	expiredPrefix     = "exp-"
	expiresSoonPrefix = "soon-"
)
