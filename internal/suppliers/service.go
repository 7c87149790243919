package suppliers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chemtrade-erp/chemtrade-erp/internal/activity"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// RepositoryPort abstracts supplier persistence.
type RepositoryPort interface {
	List(ctx context.Context) ([]Supplier, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	Create(ctx context.Context, s Supplier) (Supplier, error)
	Update(ctx context.Context, id int64, s Supplier) (Supplier, error)
	Delete(ctx context.Context, id int64) error
}

// ActivityPort records supplier mutations.
type ActivityPort interface {
	Record(ctx context.Context, e activity.Entry) error
}

// Publisher fans out change notifications.
type Publisher interface {
	Publish(ctx context.Context, entity string) error
}

// Service applies supplier rules and role gates.
type Service struct {
	logger   *slog.Logger
	repo     RepositoryPort
	activity ActivityPort
	feed     Publisher
}

// NewService wires dependencies.
func NewService(logger *slog.Logger, repo RepositoryPort, act ActivityPort, feed Publisher) *Service {
	return &Service{logger: logger, repo: repo, activity: act, feed: feed}
}

// List returns all suppliers.
func (s *Service) List(ctx context.Context) ([]Supplier, error) {
	return s.repo.List(ctx)
}

// Get returns one supplier.
func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.Get(ctx, id)
}

// Create adds a supplier. Manager only.
func (s *Service) Create(ctx context.Context, actor profile.Profile, in Supplier) (Supplier, error) {
	if !actor.IsManager() {
		return Supplier{}, shared.ErrManagerOnly
	}
	in = normalize(in)
	if in.CompanyName == "" {
		return Supplier{}, ErrInvalid
	}
	created, err := s.repo.Create(ctx, in)
	if err != nil {
		return Supplier{}, fmt.Errorf("create supplier: %w", err)
	}
	s.record(ctx, actor, activity.KindCreate, created.CompanyName, "Supplier created")
	s.publish(ctx)
	return created, nil
}

// Update rewrites a supplier. Manager only.
func (s *Service) Update(ctx context.Context, actor profile.Profile, id int64, in Supplier) (Supplier, error) {
	if !actor.IsManager() {
		return Supplier{}, shared.ErrManagerOnly
	}
	in = normalize(in)
	if in.CompanyName == "" {
		return Supplier{}, ErrInvalid
	}
	updated, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Supplier{}, err
	}
	s.record(ctx, actor, activity.KindUpdate, updated.CompanyName, "Supplier updated")
	s.publish(ctx)
	return updated, nil
}

// Delete removes a supplier. Manager only.
func (s *Service) Delete(ctx context.Context, actor profile.Profile, id int64) error {
	if !actor.IsManager() {
		return shared.ErrManagerOnly
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actor, activity.KindDelete, existing.CompanyName, "Supplier deleted")
	s.publish(ctx)
	return nil
}

func (s *Service) record(ctx context.Context, actor profile.Profile, kind activity.Kind, subject, detail string) {
	if s.activity == nil {
		return
	}
	err := s.activity.Record(ctx, activity.Entry{
		Kind:      kind,
		Subject:   subject,
		Detail:    detail,
		ActorID:   actor.ID,
		ActorName: actor.Name,
	})
	if err != nil {
		s.logger.Warn("record supplier activity", "err", err)
	}
}

func (s *Service) publish(ctx context.Context) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, "suppliers"); err != nil {
		s.logger.Warn("publish supplier change", "err", err)
	}
}

func normalize(in Supplier) Supplier {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.ContactName = strings.TrimSpace(in.ContactName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}
