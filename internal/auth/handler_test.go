package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

type memoryRepo struct {
	users    map[string]*User
	nextID   int64
	sessions map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[string]*User{}, nextID: 1, sessions: map[string]int64{}}
}

func (m *memoryRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memoryRepo) CreateUser(_ context.Context, email, passwordHash string) (*User, error) {
	user := &User{ID: m.nextID, Email: email, PasswordHash: passwordHash, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.nextID++
	m.users[email] = user
	copied := *user
	return &copied, nil
}

func (m *memoryRepo) CreateSession(_ context.Context, id string, userID int64, _ time.Time, _, _ string) error {
	m.sessions[id] = userID
	return nil
}

func (m *memoryRepo) DeleteSession(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

type memoryProfiles struct {
	profiles map[int64]profile.Profile
}

func (m *memoryProfiles) GetByID(_ context.Context, id int64) (profile.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return profile.Profile{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryProfiles) Create(_ context.Context, p profile.Profile) (profile.Profile, error) {
	m.profiles[p.ID] = p
	return p, nil
}

func (m *memoryProfiles) UpdateRole(_ context.Context, id int64, role profile.Role) error {
	p := m.profiles[id]
	p.Role = role
	m.profiles[id] = p
	return nil
}

func (m *memoryProfiles) UpdateName(_ context.Context, id int64, name string) error {
	p := m.profiles[id]
	p.Name = name
	m.profiles[id] = p
	return nil
}

type noAdmins struct{}

func (noAdmins) IsAdminEmail(string) bool { return false }

func newTestHandler(t *testing.T) (*Handler, *memoryRepo, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := shared.NewSessionManager(rdb, "chemtrade_session", "test-secret", time.Hour, false)
	repo := newMemoryRepo()
	profiles := profile.NewService(&memoryProfiles{profiles: map[int64]profile.Profile{}}, noAdmins{}, logger)
	return NewHandler(logger, NewService(repo), profiles, sessions), repo, sessions
}

func withSession(t *testing.T, sessions *shared.SessionManager, r *http.Request) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := sessions.Load(r.Context(), r)
	require.NoError(t, err)
	return r.WithContext(shared.ContextWithSession(r.Context(), sess)), sess
}

func TestLoginHappyPath(t *testing.T) {
	h, repo, sessions := newTestHandler(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("chemtrade1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.users["mara@chemtrade.test"] = &User{ID: 7, Email: "mara@chemtrade.test", PasswordHash: string(hash), IsActive: true}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"mara@chemtrade.test","password":"chemtrade1"}`))
	req, sess := withSession(t, sessions, req)
	rec := httptest.NewRecorder()
	h.handleLogin(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", sess.User())
	assert.Equal(t, "mara@chemtrade.test", sess.Get("email"))
	assert.Contains(t, repo.sessions, sess.ID)
	assert.Contains(t, rec.Body.String(), `"role":"STAFF"`)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h, repo, sessions := newTestHandler(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("chemtrade1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.users["mara@chemtrade.test"] = &User{ID: 7, Email: "mara@chemtrade.test", PasswordHash: string(hash), IsActive: true}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"mara@chemtrade.test","password":"wrong-password"}`))
	req, sess := withSession(t, sessions, req)
	rec := httptest.NewRecorder()
	h.handleLogin(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, sess.User())
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	h, repo, sessions := newTestHandler(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("chemtrade1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	repo.users["mara@chemtrade.test"] = &User{ID: 7, Email: "mara@chemtrade.test", PasswordHash: string(hash), IsActive: false}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"mara@chemtrade.test","password":"chemtrade1"}`))
	req, _ = withSession(t, sessions, req)
	rec := httptest.NewRecorder()
	h.handleLogin(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterCreatesAccountAndProfile(t *testing.T) {
	h, repo, sessions := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"name":"Mara Lind","email":"Mara@chemtrade.test","password":"chemtrade1"}`))
	req, sess := withSession(t, sessions, req)
	rec := httptest.NewRecorder()
	h.handleRegister(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	// Emails are stored lowercased.
	require.Contains(t, repo.users, "mara@chemtrade.test")
	assert.Equal(t, "1", sess.User())
	assert.Contains(t, rec.Body.String(), `"name":"Mara Lind"`)
	assert.Contains(t, rec.Body.String(), `"role":"STAFF"`)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	h, repo, sessions := newTestHandler(t)
	repo.users["mara@chemtrade.test"] = &User{ID: 7, Email: "mara@chemtrade.test", IsActive: true}

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"name":"Mara","email":"mara@chemtrade.test","password":"chemtrade1"}`))
	req, _ = withSession(t, sessions, req)
	rec := httptest.NewRecorder()
	h.handleRegister(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	h, repo, sessions := newTestHandler(t)
	repo.sessions["sess-1"] = 7

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req, sess := withSession(t, sessions, req)
	sess.ID = "sess-1"
	rec := httptest.NewRecorder()
	h.handleLogout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, repo.sessions, "sess-1")
}
