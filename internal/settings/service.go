package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chemtrade-erp/chemtrade-erp/internal/activity"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// RepositoryPort abstracts settings persistence.
type RepositoryPort interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// ActivityPort records settings mutations.
type ActivityPort interface {
	Record(ctx context.Context, e activity.Entry) error
}

// Recomputer re-derives notifications after settings changes.
type Recomputer interface {
	Recompute(ctx context.Context)
}

// Service reads and writes application settings. Mutations are manager only.
// It also serves as the expiry threshold source for notification derivation.
type Service struct {
	logger           *slog.Logger
	repo             RepositoryPort
	activity         ActivityPort
	recomputer       Recomputer
	defaultThreshold int
}

// NewService wires dependencies. defaultThreshold is used until a value is
// stored, and whenever the stored value cannot be read.
func NewService(logger *slog.Logger, repo RepositoryPort, act ActivityPort, defaultThreshold int) *Service {
	return &Service{logger: logger, repo: repo, activity: act, defaultThreshold: defaultThreshold}
}

// SetRecomputer attaches the notification recomputer. Wired after
// construction to break the settings/alerts cycle.
func (s *Service) SetRecomputer(r Recomputer) {
	s.recomputer = r
}

// CompanyInfo returns the stored letterhead block, empty when unset.
func (s *Service) CompanyInfo(ctx context.Context) (CompanyInfo, error) {
	raw, err := s.repo.Get(ctx, KeyCompanyInfo)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return CompanyInfo{}, nil
		}
		return CompanyInfo{}, err
	}
	var info CompanyInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		s.logger.Warn("decode company info", "err", err)
		return CompanyInfo{}, nil
	}
	return info, nil
}

// SetCompanyInfo stores the letterhead block. Manager only.
func (s *Service) SetCompanyInfo(ctx context.Context, actor profile.Profile, info CompanyInfo) error {
	if !actor.IsManager() {
		return shared.ErrManagerOnly
	}
	info.Name = strings.TrimSpace(info.Name)
	raw, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode company info: %w", err)
	}
	if err := s.repo.Set(ctx, KeyCompanyInfo, raw); err != nil {
		return fmt.Errorf("store company info: %w", err)
	}
	s.record(ctx, actor, "Company info", "Company info updated")
	return nil
}

// ExpiryThresholdDays returns the expiry warning window, falling back to the
// configured default when unset or unreadable.
func (s *Service) ExpiryThresholdDays(ctx context.Context) int {
	raw, err := s.repo.Get(ctx, KeyExpiryThresholdDays)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("read expiry threshold", "err", err)
		}
		return s.defaultThreshold
	}
	var days int
	if err := json.Unmarshal(raw, &days); err != nil || days < 1 || days > 365 {
		return s.defaultThreshold
	}
	return days
}

// SetExpiryThresholdDays stores the expiry warning window and triggers a
// notification recompute. Manager only.
func (s *Service) SetExpiryThresholdDays(ctx context.Context, actor profile.Profile, days int) error {
	if !actor.IsManager() {
		return shared.ErrManagerOnly
	}
	if days < 1 || days > 365 {
		return ErrInvalidThreshold
	}
	raw, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("encode expiry threshold: %w", err)
	}
	if err := s.repo.Set(ctx, KeyExpiryThresholdDays, raw); err != nil {
		return fmt.Errorf("store expiry threshold: %w", err)
	}
	s.record(ctx, actor, "Expiry threshold", fmt.Sprintf("Expiry warning window set to %d days", days))
	if s.recomputer != nil {
		s.recomputer.Recompute(ctx)
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor profile.Profile, subject, detail string) {
	if s.activity == nil {
		return
	}
	err := s.activity.Record(ctx, activity.Entry{
		Kind:      activity.KindUpdate,
		Subject:   subject,
		Detail:    detail,
		ActorID:   actor.ID,
		ActorName: actor.Name,
	})
	if err != nil {
		s.logger.Warn("record settings activity", "err", err)
	}
}
