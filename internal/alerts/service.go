package alerts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chemtrade-erp/chemtrade-erp/internal/ledger"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// ProductSource exposes the current product snapshot.
type ProductSource interface {
	Products() []ledger.Product
}

// ThresholdSource resolves the expiry warning window in days.
type ThresholdSource interface {
	ExpiryThresholdDays(ctx context.Context) int
}

// Service maintains the derived notification set. Notifications are
// recomputed from products on every change; read state is keyed by the
// deterministic notification id so marking one read survives recomputes.
type Service struct {
	logger    *slog.Logger
	products  ProductSource
	threshold ThresholdSource
	now       func() time.Time

	mu      sync.RWMutex
	current []Notification
	read    map[string]bool
}

// NewService wires dependencies.
func NewService(logger *slog.Logger, products ProductSource, threshold ThresholdSource) *Service {
	return &Service{
		logger:    logger,
		products:  products,
		threshold: threshold,
		now:       time.Now,
		read:      map[string]bool{},
	}
}

// HandleProductsChanged recomputes notifications after a product change.
func (s *Service) HandleProductsChanged(ctx context.Context) {
	s.Recompute(ctx)
}

// Recompute rebuilds the notification set from the current products. Read
// marks for ids no longer derived are dropped.
func (s *Service) Recompute(ctx context.Context) {
	derived := Derive(s.products.Products(), s.threshold.ExpiryThresholdDays(ctx), s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	alive := make(map[string]bool, len(derived))
	for i := range derived {
		alive[derived[i].ID] = true
		derived[i].IsRead = s.read[derived[i].ID]
	}
	for id := range s.read {
		if !alive[id] {
			delete(s.read, id)
		}
	}
	s.current = derived
	s.logger.Debug("notifications recomputed", "count", len(derived))
}

// List returns the current notifications, unread first.
func (s *Service) List() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, 0, len(s.current))
	for _, n := range s.current {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	for _, n := range s.current {
		if n.IsRead {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount returns how many current notifications are unread.
func (s *Service) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.current {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// MarkRead flags one notification as read.
func (s *Service) MarkRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.current {
		if s.current[i].ID == id {
			s.current[i].IsRead = true
			s.read[id] = true
			return nil
		}
	}
	return shared.ErrNotFound
}

// MarkAllRead flags every current notification as read.
func (s *Service) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.current {
		s.current[i].IsRead = true
		s.read[s.current[i].ID] = true
	}
}
