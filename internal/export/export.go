// Package export assembles a full data snapshot for download, used for
// backups and offline analysis.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/chemtrade-erp/chemtrade-erp/internal/invoices"
	"github.com/chemtrade-erp/chemtrade-erp/internal/ledger"
	"github.com/chemtrade-erp/chemtrade-erp/internal/settings"
	"github.com/chemtrade-erp/chemtrade-erp/internal/suppliers"
)

// Document is the exported snapshot envelope.
type Document struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Company     settings.CompanyInfo `json:"company"`
	Products    []ledger.Product     `json:"products"`
	Suppliers   []suppliers.Supplier `json:"suppliers"`
	Invoices    []invoices.Invoice   `json:"invoices"`
}

// ProductSource exposes the current product snapshot.
type ProductSource interface {
	Products() []ledger.Product
}

// SupplierSource lists suppliers.
type SupplierSource interface {
	List(ctx context.Context) ([]suppliers.Supplier, error)
}

// InvoiceSource lists invoices including local fallback rows.
type InvoiceSource interface {
	List(ctx context.Context) ([]invoices.Invoice, error)
}

// CompanySource resolves the letterhead block.
type CompanySource interface {
	CompanyInfo(ctx context.Context) (settings.CompanyInfo, error)
}

// Service assembles export documents.
type Service struct {
	products  ProductSource
	suppliers SupplierSource
	invoices  InvoiceSource
	company   CompanySource
	now       func() time.Time
}

// NewService wires dependencies.
func NewService(products ProductSource, sup SupplierSource, inv InvoiceSource, company CompanySource) *Service {
	return &Service{products: products, suppliers: sup, invoices: inv, company: company, now: time.Now}
}

// Build gathers every collection into one document.
func (s *Service) Build(ctx context.Context) (Document, error) {
	company, err := s.company.CompanyInfo(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export company info: %w", err)
	}
	sup, err := s.suppliers.List(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export suppliers: %w", err)
	}
	inv, err := s.invoices.List(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("export invoices: %w", err)
	}
	return Document{
		GeneratedAt: s.now(),
		Company:     company,
		Products:    s.products.Products(),
		Suppliers:   sup,
		Invoices:    inv,
	}, nil
}
