package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

type memoryRepo struct {
	profiles    map[int64]Profile
	lookupErr   error
	createErr   error
	roleUpdates []Role
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{profiles: map[int64]Profile{}}
}

func (m *memoryRepo) GetByID(_ context.Context, id int64) (Profile, error) {
	if m.lookupErr != nil {
		return Profile{}, m.lookupErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return Profile{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(_ context.Context, p Profile) (Profile, error) {
	if m.createErr != nil {
		return Profile{}, m.createErr
	}
	m.profiles[p.ID] = p
	return p, nil
}

func (m *memoryRepo) UpdateRole(_ context.Context, id int64, role Role) error {
	p := m.profiles[id]
	p.Role = role
	m.profiles[id] = p
	m.roleUpdates = append(m.roleUpdates, role)
	return nil
}

func (m *memoryRepo) UpdateName(_ context.Context, id int64, name string) error {
	p, ok := m.profiles[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Name = name
	m.profiles[id] = p
	return nil
}

type adminList map[string]bool

func (a adminList) IsAdminEmail(email string) bool { return a[email] }

func newTestService(repo *memoryRepo, admins AdminChecker) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, admins, logger)
	// Run write-behind reconciliation inline so tests can assert on it.
	svc.reconcile = func(fn func()) { fn() }
	return svc
}

func TestResolveSelfHealsMissingProfile(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, adminList{})

	p := svc.Resolve(context.Background(), 7, "mara@chemtrade.test")
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "mara", p.Name)
	assert.Equal(t, RoleStaff, p.Role)
	assert.False(t, p.Transient)
	assert.Contains(t, repo.profiles, int64(7))
}

func TestResolveAdminGetsManagerWithWriteBehind(t *testing.T) {
	repo := newMemoryRepo()
	repo.profiles[7] = Profile{ID: 7, Name: "Mara", Email: "mara@chemtrade.test", Role: RoleStaff}
	svc := newTestService(repo, adminList{"mara@chemtrade.test": true})

	p := svc.Resolve(context.Background(), 7, "mara@chemtrade.test")
	assert.Equal(t, RoleManager, p.Role)
	require.Len(t, repo.roleUpdates, 1)
	assert.Equal(t, RoleManager, repo.profiles[7].Role)
}

func TestResolveAdminAlreadyManagerSkipsReconcile(t *testing.T) {
	repo := newMemoryRepo()
	repo.profiles[7] = Profile{ID: 7, Role: RoleManager}
	svc := newTestService(repo, adminList{"mara@chemtrade.test": true})

	p := svc.Resolve(context.Background(), 7, "mara@chemtrade.test")
	assert.Equal(t, RoleManager, p.Role)
	assert.Empty(t, repo.roleUpdates)
}

func TestResolveFallsBackToTransientProfile(t *testing.T) {
	repo := newMemoryRepo()
	repo.lookupErr = errors.New("connection refused")
	repo.createErr = errors.New("connection refused")
	svc := newTestService(repo, adminList{"mara@chemtrade.test": true})

	p := svc.Resolve(context.Background(), 7, "mara@chemtrade.test")
	assert.True(t, p.Transient)
	assert.Equal(t, RoleManager, p.Role)
	assert.Equal(t, "mara", p.Name)
}

func TestResolveLookupErrorTreatedAsAbsent(t *testing.T) {
	repo := newMemoryRepo()
	repo.lookupErr = errors.New("connection refused")
	svc := newTestService(repo, adminList{})

	p := svc.Resolve(context.Background(), 7, "mara@chemtrade.test")
	assert.False(t, p.Transient)
	assert.Contains(t, repo.profiles, int64(7))
}

func TestRenameRequiresName(t *testing.T) {
	repo := newMemoryRepo()
	repo.profiles[7] = Profile{ID: 7, Name: "Mara"}
	svc := newTestService(repo, adminList{})

	assert.Error(t, svc.Rename(context.Background(), 7, "   "))
	require.NoError(t, svc.Rename(context.Background(), 7, "Mara Lind"))
	assert.Equal(t, "Mara Lind", repo.profiles[7].Name)
}
