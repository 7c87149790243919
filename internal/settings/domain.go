package settings

import "errors"

// CompanyInfo is the letterhead block shown on exports and invoices.
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	TaxID   string `json:"tax_id"`
}

// Setting keys in the app_settings relation.
const (
	KeyCompanyInfo         = "company_info"
	KeyExpiryThresholdDays = "expiry_threshold_days"
)

// ErrInvalidThreshold indicates an out-of-range expiry window.
var ErrInvalidThreshold = errors.New("settings: expiry threshold must be between 1 and 365 days")
