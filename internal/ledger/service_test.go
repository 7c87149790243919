package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chemtrade-erp/chemtrade-erp/internal/activity"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

type memoryRepo struct {
	products map[int64]Product
	nextID   int64
	listErr  error
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) List(ctx context.Context) ([]Product, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) Create(ctx context.Context, p Product) (Product, error) {
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, p Product) (Product, error) {
	stored, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	p.ID = id
	p.QtyWarehouse = stored.QtyWarehouse
	p.QtyOffice = stored.QtyOffice
	r.products[id] = p
	return p, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (tx *memoryTx) GetForUpdate(ctx context.Context, id int64) (Product, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *memoryTx) UpdateQuantities(ctx context.Context, id int64, qtyWarehouse, qtyOffice float64) error {
	p, ok := tx.repo.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.QtyWarehouse = qtyWarehouse
	p.QtyOffice = qtyOffice
	tx.repo.products[id] = p
	return nil
}

type recordedActivity struct {
	entries []activity.Entry
}

func (r *recordedActivity) Record(ctx context.Context, entry activity.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

var (
	manager = profile.Profile{ID: 1, Name: "Amira", Role: profile.RoleManager}
	staff   = profile.Profile{ID: 2, Name: "Budi", Role: profile.RoleStaff}
)

func newTestService(repo *memoryRepo, log *recordedActivity) *Service {
	return NewService(repo, NewSnapshot(), log, nil, nil, nil)
}

func TestTransferConservesTotalStock(t *testing.T) {
	repo := newMemoryRepo()
	log := &recordedActivity{}
	svc := newTestService(repo, log)
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, manager, Product{Name: "Sodium Hypochlorite", Unit: "drum", QtyWarehouse: 100, QtyOffice: 20})
	require.NoError(t, err)

	updated, err := svc.TransferStock(ctx, staff, TransferInput{ProductID: created.ID, From: LocationWarehouse, To: LocationOffice, Amount: 30})
	require.NoError(t, err)
	require.InDelta(t, 70, updated.QtyWarehouse, 0.0001)
	require.InDelta(t, 50, updated.QtyOffice, 0.0001)
	require.InDelta(t, 120, updated.TotalStock(), 0.0001)

	require.Len(t, log.entries, 2)
	require.Equal(t, activity.KindTransfer, log.entries[1].Kind)
	require.Equal(t, "Sodium Hypochlorite", log.entries[1].Subject)
}

func TestTransferRejectsOverdraw(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &recordedActivity{})
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, manager, Product{Name: "Citric Acid", QtyWarehouse: 5})
	require.NoError(t, err)

	_, err = svc.TransferStock(ctx, staff, TransferInput{ProductID: created.ID, From: LocationWarehouse, To: LocationOffice, Amount: 50})
	require.ErrorIs(t, err, ErrInsufficientStock)

	stored, _ := repo.Get(ctx, created.ID)
	require.InDelta(t, 5, stored.QtyWarehouse, 0.0001)
	require.InDelta(t, 0, stored.QtyOffice, 0.0001)
}

func TestTransferRejectsSameLocation(t *testing.T) {
	svc := newTestService(newMemoryRepo(), &recordedActivity{})
	_, err := svc.TransferStock(context.Background(), staff, TransferInput{ProductID: 1, From: LocationOffice, To: LocationOffice, Amount: 1})
	require.ErrorIs(t, err, ErrSameLocation)
}

func TestAdjustStockGuardsNegativeCounter(t *testing.T) {
	repo := newMemoryRepo()
	log := &recordedActivity{}
	svc := newTestService(repo, log)
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, manager, Product{Name: "Acetone", QtyWarehouse: 3})
	require.NoError(t, err)

	_, err = svc.AdjustStock(ctx, manager, AdjustInput{ProductID: created.ID, Location: LocationWarehouse, Delta: -4, Reason: "spill"})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Rejected mutations append no activity entry beyond the create.
	require.Len(t, log.entries, 1)
}

func TestAdjustStockAppendsOneEntryWithAmount(t *testing.T) {
	repo := newMemoryRepo()
	log := &recordedActivity{}
	svc := newTestService(repo, log)
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, manager, Product{Name: "Caustic Soda", Unit: "bag", QtyWarehouse: 10, ReorderLevel: 15})
	require.NoError(t, err)

	updated, err := svc.AdjustStock(ctx, manager, AdjustInput{ProductID: created.ID, Location: LocationWarehouse, Delta: 10, Reason: "restock"})
	require.NoError(t, err)
	require.InDelta(t, 20, updated.QtyWarehouse, 0.0001)

	require.Len(t, log.entries, 2)
	entry := log.entries[1]
	require.Equal(t, activity.KindAdd, entry.Kind)
	require.Equal(t, "Caustic Soda", entry.Subject)
	require.Contains(t, entry.Detail, "10")
	require.Contains(t, entry.Detail, "restock")
	require.Equal(t, manager.ID, entry.ActorID)
	require.Equal(t, manager.Name, entry.ActorName)
}

func TestAdjustStockNegativeDeltaLogsRemove(t *testing.T) {
	repo := newMemoryRepo()
	log := &recordedActivity{}
	svc := newTestService(repo, log)
	ctx := context.Background()

	created, err := svc.AddProduct(ctx, manager, Product{Name: "Toluene", QtyOffice: 8})
	require.NoError(t, err)

	_, err = svc.AdjustStock(ctx, manager, AdjustInput{ProductID: created.ID, Location: LocationOffice, Delta: -3, Reason: "sample"})
	require.NoError(t, err)
	require.Equal(t, activity.KindRemove, log.entries[1].Kind)
}

func TestStaffCannotMutateProducts(t *testing.T) {
	repo := newMemoryRepo()
	log := &recordedActivity{}
	svc := newTestService(repo, log)
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, staff, Product{Name: "Ethanol"})
	require.ErrorIs(t, err, shared.ErrManagerOnly)

	created, err := svc.AddProduct(ctx, manager, Product{Name: "Ethanol"})
	require.NoError(t, err)

	_, err = svc.UpdateProduct(ctx, staff, created.ID, Product{Name: "Ethanol 96%"})
	require.ErrorIs(t, err, shared.ErrManagerOnly)

	err = svc.DeleteProduct(ctx, staff, created.ID)
	require.ErrorIs(t, err, shared.ErrManagerOnly)

	_, err = svc.AdjustStock(ctx, staff, AdjustInput{ProductID: created.ID, Location: LocationWarehouse, Delta: 1})
	require.ErrorIs(t, err, shared.ErrManagerOnly)

	// Only the successful manager create touched state or the log.
	require.Len(t, log.entries, 1)
	require.Len(t, repo.products, 1)
}

func TestRefreshKeepsPriorStateOnFailure(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &recordedActivity{})
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, manager, Product{Name: "Glycerine", QtyWarehouse: 4})
	require.NoError(t, err)
	require.NoError(t, svc.Refresh(ctx))
	require.Equal(t, StateLoaded, svc.Snapshot().State())
	require.Len(t, svc.Products(), 1)

	repo.listErr = errors.New("connection refused")
	err = svc.Refresh(ctx)
	require.Error(t, err)
	require.Equal(t, StateLoaded, svc.Snapshot().State())
	require.Len(t, svc.Products(), 1)
}

func TestDeltaDescriptionTrimsTrailingZeroes(t *testing.T) {
	require.Equal(t, "Added 10", describeDelta(10))
	require.Equal(t, "Removed 2.5", describeDelta(-2.5))
	require.False(t, strings.Contains(describeDelta(3), "."))
}
