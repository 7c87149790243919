package suppliers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtrade-erp/chemtrade-erp/internal/activity"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

type memoryRepo struct {
	nextID    int64
	suppliers map[int64]Supplier
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, suppliers: map[int64]Supplier{}}
}

func (m *memoryRepo) List(context.Context) ([]Supplier, error) {
	out := make([]Supplier, 0, len(m.suppliers))
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) Create(_ context.Context, s Supplier) (Supplier, error) {
	s.ID = m.nextID
	m.nextID++
	m.suppliers[s.ID] = s
	return s, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, s Supplier) (Supplier, error) {
	if _, ok := m.suppliers[id]; !ok {
		return Supplier{}, shared.ErrNotFound
	}
	s.ID = id
	m.suppliers[id] = s
	return s, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.suppliers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.suppliers, id)
	return nil
}

type recordedActivity struct {
	entries []activity.Entry
}

func (r *recordedActivity) Record(_ context.Context, e activity.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *recordedActivity) {
	t.Helper()
	repo := newMemoryRepo()
	act := &recordedActivity{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, act, nil), repo, act
}

var (
	manager = profile.Profile{ID: 1, Name: "Mara", Email: "mara@chemtrade.test", Role: profile.RoleManager}
	staff   = profile.Profile{ID: 2, Name: "Sam", Email: "sam@chemtrade.test", Role: profile.RoleStaff}
)

func TestCreateNormalizesAndRecords(t *testing.T) {
	svc, repo, act := newTestService(t)

	created, err := svc.Create(context.Background(), manager, Supplier{
		CompanyName: "  Helios Chemie GmbH ",
		Email:       " Sales@Helios.DE ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Helios Chemie GmbH", created.CompanyName)
	assert.Equal(t, "sales@helios.de", created.Email)
	assert.Len(t, repo.suppliers, 1)

	require.Len(t, act.entries, 1)
	assert.Equal(t, activity.KindCreate, act.entries[0].Kind)
	assert.Equal(t, "Helios Chemie GmbH", act.entries[0].Subject)
	assert.Equal(t, int64(1), act.entries[0].ActorID)
	assert.Equal(t, "Mara", act.entries[0].ActorName)
}

func TestCreateRejectsBlankCompanyName(t *testing.T) {
	svc, repo, act := newTestService(t)

	_, err := svc.Create(context.Background(), manager, Supplier{CompanyName: "   "})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Empty(t, repo.suppliers)
	assert.Empty(t, act.entries)
}

func TestStaffCannotMutateSuppliers(t *testing.T) {
	svc, repo, act := newTestService(t)

	seeded, err := svc.Create(context.Background(), manager, Supplier{CompanyName: "Nordsolv AB"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), staff, Supplier{CompanyName: "Intruder Ltd"})
	assert.ErrorIs(t, err, shared.ErrManagerOnly)

	_, err = svc.Update(context.Background(), staff, seeded.ID, Supplier{CompanyName: "Renamed"})
	assert.ErrorIs(t, err, shared.ErrManagerOnly)

	err = svc.Delete(context.Background(), staff, seeded.ID)
	assert.ErrorIs(t, err, shared.ErrManagerOnly)

	assert.Len(t, repo.suppliers, 1)
	assert.Len(t, act.entries, 1)
}

func TestDeleteRecordsCompanyName(t *testing.T) {
	svc, repo, act := newTestService(t)

	seeded, err := svc.Create(context.Background(), manager, Supplier{CompanyName: "Nordsolv AB"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), manager, seeded.ID))
	assert.Empty(t, repo.suppliers)

	require.Len(t, act.entries, 2)
	assert.Equal(t, activity.KindDelete, act.entries[1].Kind)
	assert.Equal(t, "Nordsolv AB", act.entries[1].Subject)
}

func TestDeleteMissingSupplier(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Delete(context.Background(), manager, 99)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
