package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// RepositoryPort abstracts profile persistence for the service.
type RepositoryPort interface {
	GetByID(ctx context.Context, id int64) (Profile, error)
	Create(ctx context.Context, p Profile) (Profile, error)
	UpdateRole(ctx context.Context, id int64, role Role) error
	UpdateName(ctx context.Context, id int64, name string) error
}

// AdminChecker reports whether an email belongs to a bootstrap administrator.
type AdminChecker interface {
	IsAdminEmail(email string) bool
}

// Service resolves authenticated identities to application profiles.
type Service struct {
	repo   RepositoryPort
	admins AdminChecker
	logger *slog.Logger

	// reconcile is invoked asynchronously for write-behind role fixes. It is
	// replaceable in tests to run synchronously.
	reconcile func(fn func())
}

// NewService builds Service.
func NewService(repo RepositoryPort, admins AdminChecker, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		admins:    admins,
		logger:    logger,
		reconcile: func(fn func()) { go fn() },
	}
}

// Resolve maps an auth identity to a profile. Storage errors during lookup are
// treated as "profile absent"; when both the lookup and the self-heal create
// fail, a transient profile is returned so the session stays usable instead of
// hard-failing login.
func (s *Service) Resolve(ctx context.Context, userID int64, email string) Profile {
	isAdmin := s.admins != nil && s.admins.IsAdminEmail(email)

	stored, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) && s.logger != nil {
			s.logger.Warn("profile lookup degraded", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		created, createErr := s.repo.Create(ctx, Profile{
			ID:    userID,
			Name:  displayNameFromEmail(email),
			Email: email,
			Role:  RoleStaff,
		})
		if createErr != nil {
			if s.logger != nil {
				s.logger.Warn("profile self-heal failed", slog.Int64("user_id", userID), slog.Any("error", createErr))
			}
			return s.transient(userID, email, isAdmin)
		}
		stored = created
	}

	if isAdmin && stored.Role != RoleManager {
		// Write-behind reconciliation: the session resolves with MANAGER now,
		// the stored role catches up without blocking. Single attempt.
		id := stored.ID
		s.reconcile(func() {
			if err := s.repo.UpdateRole(context.WithoutCancel(ctx), id, RoleManager); err != nil && s.logger != nil {
				s.logger.Warn("admin role reconcile failed", slog.Int64("user_id", id), slog.Any("error", err))
			}
		})
	}
	if isAdmin {
		stored.Role = RoleManager
	}
	return stored
}

// Get fetches a stored profile without the resolution fallbacks.
func (s *Service) Get(ctx context.Context, userID int64) (Profile, error) {
	return s.repo.GetByID(ctx, userID)
}

// Rename updates the display name. Historical activity entries keep their
// recorded name snapshot.
func (s *Service) Rename(ctx context.Context, userID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("profile: name is required")
	}
	return s.repo.UpdateName(ctx, userID, name)
}

func (s *Service) transient(userID int64, email string, isAdmin bool) Profile {
	role := RoleStaff
	if isAdmin {
		role = RoleManager
	}
	return Profile{
		ID:        userID,
		Name:      displayNameFromEmail(email),
		Email:     email,
		Role:      role,
		Transient: true,
	}
}

func displayNameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
