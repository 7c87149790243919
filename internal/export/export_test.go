package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtrade-erp/chemtrade-erp/internal/invoices"
	"github.com/chemtrade-erp/chemtrade-erp/internal/ledger"
	"github.com/chemtrade-erp/chemtrade-erp/internal/settings"
	"github.com/chemtrade-erp/chemtrade-erp/internal/suppliers"
)

type stubProducts []ledger.Product

func (s stubProducts) Products() []ledger.Product { return s }

type stubSuppliers struct {
	list []suppliers.Supplier
	err  error
}

func (s stubSuppliers) List(context.Context) ([]suppliers.Supplier, error) { return s.list, s.err }

type stubInvoices []invoices.Invoice

func (s stubInvoices) List(context.Context) ([]invoices.Invoice, error) { return s, nil }

type stubCompany settings.CompanyInfo

func (s stubCompany) CompanyInfo(context.Context) (settings.CompanyInfo, error) {
	return settings.CompanyInfo(s), nil
}

func TestBuildGathersEveryCollection(t *testing.T) {
	svc := NewService(
		stubProducts{{ID: 1, Name: "Acetone"}},
		stubSuppliers{list: []suppliers.Supplier{{ID: 2, CompanyName: "Helios Chemie GmbH"}}},
		stubInvoices{{ID: "3", Number: "INV-2026-0001"}},
		stubCompany{Name: "ChemTrade Handels GmbH"},
	)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }

	doc, err := svc.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ChemTrade Handels GmbH", doc.Company.Name)
	require.Len(t, doc.Products, 1)
	require.Len(t, doc.Suppliers, 1)
	require.Len(t, doc.Invoices, 1)
	assert.Equal(t, 2026, doc.GeneratedAt.Year())
}

func TestBuildPropagatesErrors(t *testing.T) {
	svc := NewService(
		stubProducts{},
		stubSuppliers{err: errors.New("connection refused")},
		stubInvoices{},
		stubCompany{},
	)

	_, err := svc.Build(context.Background())
	assert.Error(t, err)
}
