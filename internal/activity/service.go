package activity

import (
	"context"
	"log/slog"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, entry Entry) (int64, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Service validates and records activity entries.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

const (
	defaultWindow = 100
	maxWindow     = 500
)

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends one entry. Entries carry both the actor id and a display-name
// snapshot so history stays accurate when a user is renamed later.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if entry.Kind == "" || entry.Subject == "" {
		return ErrIncomplete
	}
	if _, err := s.repo.Insert(ctx, entry); err != nil {
		return err
	}
	return nil
}

// Recent lists the newest entries within a bounded window.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultWindow
	}
	if limit > maxWindow {
		limit = maxWindow
	}
	return s.repo.Recent(ctx, limit)
}
