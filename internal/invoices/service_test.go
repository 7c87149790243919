package invoices

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtrade-erp/chemtrade-erp/internal/activity"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

type memoryRemote struct {
	available bool
	nextID    int64
	invoices  map[string]Invoice
}

func newMemoryRemote(available bool) *memoryRemote {
	return &memoryRemote{available: available, nextID: 1, invoices: map[string]Invoice{}}
}

func undefinedTableErr() error {
	return &pgconn.PgError{Code: "42P01", Message: `relation "invoices" does not exist`}
}

func (m *memoryRemote) List(context.Context) ([]Invoice, error) {
	if !m.available {
		return nil, undefinedTableErr()
	}
	out := make([]Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, inv)
	}
	return out, nil
}

func (m *memoryRemote) Get(_ context.Context, id string) (Invoice, error) {
	if !m.available {
		return Invoice{}, undefinedTableErr()
	}
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrNotFound
	}
	return inv, nil
}

func (m *memoryRemote) Create(_ context.Context, inv Invoice) (Invoice, error) {
	if !m.available {
		return Invoice{}, undefinedTableErr()
	}
	inv.ID = strconv.FormatInt(m.nextID, 10)
	m.nextID++
	inv.Local = false
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *memoryRemote) Delete(_ context.Context, id string) error {
	if !m.available {
		return undefinedTableErr()
	}
	if _, ok := m.invoices[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.invoices, id)
	return nil
}

type memoryLocal struct {
	invoices []Invoice
}

func (m *memoryLocal) Load() ([]Invoice, error) {
	return append([]Invoice{}, m.invoices...), nil
}

func (m *memoryLocal) Add(inv Invoice) error {
	inv.Local = true
	m.invoices = append(m.invoices, inv)
	return nil
}

func (m *memoryLocal) Remove(id string) error {
	kept := m.invoices[:0]
	for _, inv := range m.invoices {
		if inv.ID != id {
			kept = append(kept, inv)
		}
	}
	m.invoices = kept
	return nil
}

func (m *memoryLocal) Replace(invoices []Invoice) error {
	m.invoices = append([]Invoice{}, invoices...)
	return nil
}

type recordedActivity struct {
	entries []activity.Entry
}

func (r *recordedActivity) Record(_ context.Context, e activity.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

type countingEnqueuer struct {
	calls int
}

func (c *countingEnqueuer) EnqueueInvoiceReconcile(context.Context) error {
	c.calls++
	return nil
}

func newTestService(t *testing.T, remoteAvailable bool) (*Service, *memoryRemote, *memoryLocal, *recordedActivity, *countingEnqueuer) {
	t.Helper()
	remote := newMemoryRemote(remoteAvailable)
	local := &memoryLocal{}
	act := &recordedActivity{}
	enq := &countingEnqueuer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, remote, local, act, nil, enq)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return svc, remote, local, act, enq
}

var (
	manager = profile.Profile{ID: 1, Name: "Mara", Role: profile.RoleManager}
	staff   = profile.Profile{ID: 2, Name: "Sam", Role: profile.RoleStaff}
)

func draft() Invoice {
	return Invoice{
		CustomerName: "Baltic Paints OU",
		Items: []Item{
			{Description: "Toluene 200L", Quantity: decimal.NewFromInt(3), Rate: decimal.RequireFromString("412.50")},
			{Description: "Drum deposit", Quantity: decimal.NewFromInt(3), Rate: decimal.NewFromInt(15)},
		},
	}
}

func TestCreateRecomputesTotals(t *testing.T) {
	svc, remote, _, act, _ := newTestService(t, true)

	in := draft()
	// Client-supplied amounts are ignored.
	in.Items[0].Amount = decimal.NewFromInt(1)
	in.TotalAmount = decimal.NewFromInt(1)

	created, err := svc.Create(context.Background(), manager, in)
	require.NoError(t, err)
	assert.True(t, created.Items[0].Amount.Equal(decimal.RequireFromString("1237.50")))
	assert.True(t, created.Items[1].Amount.Equal(decimal.NewFromInt(45)))
	assert.True(t, created.TotalAmount.Equal(decimal.RequireFromString("1282.50")))
	assert.False(t, created.IsLocal())
	assert.Len(t, remote.invoices, 1)

	require.Len(t, act.entries, 1)
	assert.Equal(t, activity.KindCreate, act.entries[0].Kind)
	assert.Equal(t, created.Number, act.entries[0].Subject)
}

func TestCreateZeroQuantityLineContributesNothing(t *testing.T) {
	svc, _, _, _, _ := newTestService(t, true)

	in := draft()
	in.Items = append(in.Items, Item{Description: "Sample", Quantity: decimal.Zero, Rate: decimal.NewFromInt(90)})

	created, err := svc.Create(context.Background(), manager, in)
	require.NoError(t, err)
	assert.True(t, created.Items[2].Amount.IsZero())
	assert.True(t, created.TotalAmount.Equal(decimal.RequireFromString("1282.50")))
}

func TestCreateMintsNumberAndIssueDate(t *testing.T) {
	svc, _, _, _, _ := newTestService(t, true)

	created, err := svc.Create(context.Background(), manager, draft())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.Number, "INV-2026-"), created.Number)
	assert.Len(t, created.Number, len("INV-2026-0000"))
	assert.Equal(t, 2026, created.IssueDate.Year())
}

func TestCreateFallsBackWhenTableMissing(t *testing.T) {
	svc, _, local, _, enq := newTestService(t, false)

	created, err := svc.Create(context.Background(), manager, draft())
	require.NoError(t, err)
	assert.True(t, created.IsLocal())
	assert.True(t, strings.HasPrefix(created.ID, LocalIDPrefix))
	assert.Len(t, local.invoices, 1)
	assert.Equal(t, 1, enq.calls)
}

func TestCreateRejectsStaff(t *testing.T) {
	svc, remote, local, act, _ := newTestService(t, true)

	_, err := svc.Create(context.Background(), staff, draft())
	assert.ErrorIs(t, err, shared.ErrManagerOnly)
	assert.Empty(t, remote.invoices)
	assert.Empty(t, local.invoices)
	assert.Empty(t, act.entries)
}

func TestCreateRequiresItems(t *testing.T) {
	svc, _, _, _, _ := newTestService(t, true)

	_, err := svc.Create(context.Background(), manager, Invoice{CustomerName: "Baltic Paints OU"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestListMergesPreferringFresherCopy(t *testing.T) {
	svc, remote, local, _, _ := newTestService(t, true)

	stale := draft()
	stale.ID = "7"
	stale.Number = "INV-2026-0007"
	stale.UpdatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	remote.invoices["7"] = stale

	fresher := stale
	fresher.CustomerName = "Baltic Paints OU (amended)"
	fresher.UpdatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, local.Add(fresher))

	localOnly := draft()
	localOnly.ID = LocalIDPrefix + "abc"
	require.NoError(t, local.Add(localOnly))

	out, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)

	byID := map[string]Invoice{}
	for _, inv := range out {
		byID[inv.ID] = inv
	}
	assert.Equal(t, "Baltic Paints OU (amended)", byID["7"].CustomerName)
	assert.True(t, byID[LocalIDPrefix+"abc"].IsLocal())
}

func TestListSurvivesMissingRemoteTable(t *testing.T) {
	svc, _, local, _, _ := newTestService(t, false)

	inv := draft()
	inv.ID = LocalIDPrefix + "abc"
	require.NoError(t, local.Add(inv))

	out, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestDeleteLocalInvoiceNeverTouchesRemote(t *testing.T) {
	svc, remote, local, act, _ := newTestService(t, false)

	created, err := svc.Create(context.Background(), manager, draft())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), manager, created.ID))
	assert.Empty(t, local.invoices)
	assert.Empty(t, remote.invoices)

	require.Len(t, act.entries, 2)
	assert.Equal(t, activity.KindDelete, act.entries[1].Kind)
}

func TestDeleteRemoteInvoice(t *testing.T) {
	svc, remote, _, _, _ := newTestService(t, true)

	created, err := svc.Create(context.Background(), manager, draft())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), manager, created.ID))
	assert.Empty(t, remote.invoices)
}

func TestReconcileMovesLocalRowsRemote(t *testing.T) {
	svc, remote, local, _, _ := newTestService(t, false)

	_, err := svc.Create(context.Background(), manager, draft())
	require.NoError(t, err)
	second := draft()
	second.CustomerName = "Rhein Coatings AG"
	_, err = svc.Create(context.Background(), manager, second)
	require.NoError(t, err)
	require.Len(t, local.invoices, 2)

	// Relation appears; reconciliation drains the fallback.
	remote.available = true
	moved, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, moved)
	assert.Empty(t, local.invoices)
	assert.Len(t, remote.invoices, 2)
}

func TestReconcileKeepsRowsWhileTableStillMissing(t *testing.T) {
	svc, _, local, _, _ := newTestService(t, false)

	_, err := svc.Create(context.Background(), manager, draft())
	require.NoError(t, err)

	moved, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, moved)
	assert.Len(t, local.invoices, 1)
}
