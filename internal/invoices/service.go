package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chemtrade-erp/chemtrade-erp/internal/activity"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// RemotePort abstracts the PostgreSQL invoice store.
type RemotePort interface {
	List(ctx context.Context) ([]Invoice, error)
	Get(ctx context.Context, id string) (Invoice, error)
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	Delete(ctx context.Context, id string) error
}

// LocalPort abstracts the file fallback store.
type LocalPort interface {
	Load() ([]Invoice, error)
	Add(inv Invoice) error
	Remove(id string) error
	Replace(invoices []Invoice) error
}

// ActivityPort records invoice mutations.
type ActivityPort interface {
	Record(ctx context.Context, e activity.Entry) error
}

// Publisher fans out change notifications.
type Publisher interface {
	Publish(ctx context.Context, entity string) error
}

// Enqueuer schedules background reconciliation of locally persisted invoices.
type Enqueuer interface {
	EnqueueInvoiceReconcile(ctx context.Context) error
}

// Service applies invoice rules: totals are always recomputed server-side,
// and writes fall back to the local file while the remote relation is absent.
type Service struct {
	logger   *slog.Logger
	remote   RemotePort
	local    LocalPort
	activity ActivityPort
	feed     Publisher
	enqueuer Enqueuer
	now      func() time.Time
}

// NewService wires dependencies.
func NewService(logger *slog.Logger, remote RemotePort, local LocalPort, act ActivityPort, feed Publisher, enq Enqueuer) *Service {
	return &Service{
		logger:   logger,
		remote:   remote,
		local:    local,
		activity: act,
		feed:     feed,
		enqueuer: enq,
		now:      time.Now,
	}
}

// List merges remote and locally persisted invoices into one listing. When
// both stores hold the same id the fresher UpdatedAt wins. A missing remote
// relation degrades to the local file instead of failing the listing.
func (s *Service) List(ctx context.Context) ([]Invoice, error) {
	remote, err := s.remote.List(ctx)
	if err != nil {
		if !IsUndefinedTable(err) {
			return nil, fmt.Errorf("list remote invoices: %w", err)
		}
		s.logger.Warn("invoices relation missing, serving local fallback only")
		remote = nil
	}
	local, err := s.local.Load()
	if err != nil {
		s.logger.Warn("load local invoices", "err", err)
		local = nil
	}
	merged := map[string]Invoice{}
	for _, inv := range remote {
		merged[inv.ID] = inv
	}
	for _, inv := range local {
		if existing, ok := merged[inv.ID]; ok && !existing.UpdatedAt.Before(inv.UpdatedAt) {
			continue
		}
		merged[inv.ID] = inv
	}
	out := make([]Invoice, 0, len(merged))
	for _, inv := range merged {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssueDate.Equal(out[j].IssueDate) {
			return out[i].IssueDate.After(out[j].IssueDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Get returns one invoice, checking the remote store first.
func (s *Service) Get(ctx context.Context, id string) (Invoice, error) {
	if !strings.HasPrefix(id, LocalIDPrefix) {
		inv, err := s.remote.Get(ctx, id)
		if err == nil {
			return inv, nil
		}
		if !IsUndefinedTable(err) {
			return Invoice{}, err
		}
	}
	local, err := s.local.Load()
	if err != nil {
		return Invoice{}, err
	}
	for _, inv := range local {
		if inv.ID == id {
			return inv, nil
		}
	}
	return Invoice{}, shared.ErrNotFound
}

// Create stores a new invoice. Manager only. When the remote relation is
// missing the invoice lands in the local file under a loc- id and a
// reconciliation job is scheduled.
func (s *Service) Create(ctx context.Context, actor profile.Profile, inv Invoice) (Invoice, error) {
	if !actor.IsManager() {
		return Invoice{}, shared.ErrManagerOnly
	}
	inv.CustomerName = strings.TrimSpace(inv.CustomerName)
	if inv.CustomerName == "" || len(inv.Items) == 0 {
		return Invoice{}, ErrInvalid
	}
	now := s.now()
	if inv.Number == "" {
		inv.Number = MintNumber(now)
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = now
	}
	inv.ComputeTotals()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	created, err := s.remote.Create(ctx, inv)
	switch {
	case err == nil:
	case IsUndefinedTable(err):
		created, err = s.createLocal(ctx, inv)
		if err != nil {
			return Invoice{}, err
		}
	default:
		return Invoice{}, fmt.Errorf("create invoice: %w", err)
	}
	s.record(ctx, actor, activity.KindCreate, created.Number, "Invoice created for "+created.CustomerName)
	s.publish(ctx)
	return created, nil
}

func (s *Service) createLocal(ctx context.Context, inv Invoice) (Invoice, error) {
	inv.ID = LocalIDPrefix + uuid.NewString()
	inv.Local = true
	if err := s.local.Add(inv); err != nil {
		return Invoice{}, fmt.Errorf("persist local invoice: %w", err)
	}
	s.logger.Warn("invoices relation missing, invoice persisted locally", "id", inv.ID)
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueInvoiceReconcile(ctx); err != nil {
			s.logger.Warn("enqueue invoice reconciliation", "err", err)
		}
	}
	return inv, nil
}

// Delete removes an invoice. Manager only. Local invoices are removed from
// the fallback only; remote deletes also clear any stale fallback copy.
func (s *Service) Delete(ctx context.Context, actor profile.Profile, id string) error {
	if !actor.IsManager() {
		return shared.ErrManagerOnly
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if strings.HasPrefix(id, LocalIDPrefix) {
		if err := s.local.Remove(id); err != nil {
			return err
		}
	} else {
		if err := s.remote.Delete(ctx, id); err != nil && !IsUndefinedTable(err) {
			return err
		}
		if err := s.local.Remove(id); err != nil {
			s.logger.Warn("remove fallback invoice copy", "id", id, "err", err)
		}
	}
	s.record(ctx, actor, activity.KindDelete, existing.Number, "Invoice deleted")
	s.publish(ctx)
	return nil
}

// Reconcile pushes locally persisted invoices into the remote store. Rows
// that fail to insert stay in the fallback for the next attempt.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	local, err := s.local.Load()
	if err != nil {
		return 0, err
	}
	if len(local) == 0 {
		return 0, nil
	}
	remaining := make([]Invoice, 0, len(local))
	moved := 0
	for idx, inv := range local {
		pushed := inv
		pushed.Local = false
		if _, err := s.remote.Create(ctx, pushed); err != nil {
			if IsUndefinedTable(err) {
				// Relation still missing, keep this and the rest for later.
				remaining = append(remaining, local[idx:]...)
				break
			}
			s.logger.Warn("reconcile invoice", "id", inv.ID, "err", err)
			remaining = append(remaining, inv)
			continue
		}
		moved++
	}
	if err := s.local.Replace(remaining); err != nil {
		return moved, err
	}
	if moved > 0 {
		s.publish(ctx)
	}
	return moved, nil
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
		s.logger.Warn("record invoice activity", "err", err)
	}
}

func (s *Service) publish(ctx context.Context) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, "invoices"); err != nil {
		s.logger.Warn("publish invoice change", "err", err)
	}
}
