package ledger

import (
	"errors"
	"time"
)

// Location names one of the two stock buckets.
type Location string

const (
	// LocationWarehouse is the warehouse bucket.
	LocationWarehouse Location = "WAREHOUSE"
	// LocationOffice is the main-office bucket.
	LocationOffice Location = "OFFICE"
)

// Valid reports whether the location is one of the two known buckets.
func (l Location) Valid() bool {
	return l == LocationWarehouse || l == LocationOffice
}

// Product is the canonical in-memory product entity. Quantities live in two
// independent location counters; total stock is always their sum.
type Product struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Unit           string    `json:"unit"`
	SupplierName   string    `json:"supplier_name"`
	Origin         string    `json:"origin"`
	DeliveryAgent  string    `json:"delivery_agent"`
	QtyWarehouse   float64   `json:"qty_warehouse"`
	QtyOffice      float64   `json:"qty_office"`
	ReorderLevel   float64   `json:"reorder_level"`
	Price          float64   `json:"price"`
	ProductionDate time.Time `json:"production_date"`
	ExpirationDate time.Time `json:"expiration_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TotalStock returns the combined quantity across both locations.
func (p Product) TotalStock() float64 {
	return p.QtyWarehouse + p.QtyOffice
}

// Qty returns the counter for one location.
func (p Product) Qty(loc Location) float64 {
	if loc == LocationWarehouse {
		return p.QtyWarehouse
	}
	return p.QtyOffice
}

// AdjustInput describes a signed stock adjustment on one location counter.
type AdjustInput struct {
	ProductID int64
	Location  Location
	Delta     float64
	Reason    string
}

// TransferInput describes a stock movement between the two locations.
type TransferInput struct {
	ProductID int64
	From      Location
	To        Location
	Amount    float64
}

// CollectionState tracks the coarse load state of the product collection.
type CollectionState string

const (
	// StateUnloaded means no fetch has been attempted yet.
	StateUnloaded CollectionState = "UNLOADED"
	// StateLoading means a fetch is in progress.
	StateLoading CollectionState = "LOADING"
	// StateLoaded means a fetch has succeeded at least once.
	StateLoaded CollectionState = "LOADED"
)

var (
	// ErrInsufficientStock rejects a movement that would drive a counter negative.
	ErrInsufficientStock = errors.New("ledger: insufficient stock")
	// ErrSameLocation rejects a transfer whose source equals its destination.
	ErrSameLocation = errors.New("ledger: source and destination location must differ")
	// ErrInvalidLocation rejects an unknown location bucket.
	ErrInvalidLocation = errors.New("ledger: unknown location")
	// ErrInvalidAmount rejects a zero or non-positive movement amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
	// ErrInvalidDelta rejects a zero adjustment delta.
	ErrInvalidDelta = errors.New("ledger: delta must be non zero")
	// ErrProductInvalid rejects a product missing required fields.
	ErrProductInvalid = errors.New("ledger: product requires a name")
)
