package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chemtrade-erp/chemtrade-erp/internal/activity"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// RepositoryPort abstracts the remote store for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id int64, p Product) (Product, error)
	Delete(ctx context.Context, id int64) error
}

// ActivityPort appends audit entries.
type ActivityPort interface {
	Record(ctx context.Context, entry activity.Entry) error
}

// Publisher broadcasts coarse change events to other sessions.
type Publisher interface {
	Publish(ctx context.Context, entity string) error
}

// ChangeHandler reacts to confirmed product-set changes (alert recomputation).
type ChangeHandler interface {
	HandleProductsChanged(ctx context.Context)
}

// Service is the sole mutator of product state. Mutations are write-through:
// memory is updated only after the remote store confirms, and every
// successful mutation appends exactly one activity entry.
type Service struct {
	repo     RepositoryPort
	snapshot *Snapshot
	activity ActivityPort
	feed     Publisher
	onChange ChangeHandler
	logger   *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, snapshot *Snapshot, act ActivityPort, feed Publisher, onChange ChangeHandler, logger *slog.Logger) *Service {
	if snapshot == nil {
		snapshot = NewSnapshot()
	}
	return &Service{repo: repo, snapshot: snapshot, activity: act, feed: feed, onChange: onChange, logger: logger}
}

// Snapshot exposes the in-memory collection for read surfaces.
func (s *Service) Snapshot() *Snapshot {
	return s.snapshot
}

// Products returns the current in-memory collection.
func (s *Service) Products() []Product {
	return s.snapshot.Products()
}

// Refresh refetches the whole collection. A failed fetch keeps the prior
// state in place and only surfaces the error to the caller.
func (s *Service) Refresh(ctx context.Context) error {
	s.snapshot.BeginLoad()
	products, err := s.repo.List(ctx)
	if err != nil {
		s.snapshot.FailLoad()
		return fmt.Errorf("ledger: refresh products: %w", err)
	}
	s.snapshot.CompleteLoad(products)
	s.notifyChanged(ctx)
	return nil
}

// AddProduct creates a product. MANAGER only; rejected calls have no side
// effect and append no activity entry.
func (s *Service) AddProduct(ctx context.Context, actor profile.Profile, p Product) (Product, error) {
	if !actor.IsManager() {
		return Product{}, shared.ErrManagerOnly
	}
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Product{}, fmt.Errorf("ledger: add product: %w", err)
	}
	s.snapshot.Upsert(created)
	s.record(ctx, actor, activity.KindCreate, created.Name, "Product created")
	s.publish(ctx)
	return created, nil
}

// UpdateProduct rewrites descriptive fields. MANAGER only.
func (s *Service) UpdateProduct(ctx context.Context, actor profile.Profile, id int64, p Product) (Product, error) {
	if !actor.IsManager() {
		return Product{}, shared.ErrManagerOnly
	}
	if err := validateProduct(p); err != nil {
		return Product{}, err
	}
	s.snapshot.MarkInFlight(id)
	defer s.snapshot.ClearInFlight(id)

	updated, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return Product{}, fmt.Errorf("ledger: update product: %w", err)
	}
	s.snapshot.Upsert(updated)
	s.record(ctx, actor, activity.KindUpdate, updated.Name, "Product details updated")
	s.publish(ctx)
	return updated, nil
}

// DeleteProduct removes a product. MANAGER only.
func (s *Service) DeleteProduct(ctx context.Context, actor profile.Profile, id int64) error {
	if !actor.IsManager() {
		return shared.ErrManagerOnly
	}
	name := s.subjectName(ctx, id)
	s.snapshot.MarkInFlight(id)
	defer s.snapshot.ClearInFlight(id)

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("ledger: delete product: %w", err)
	}
	s.snapshot.Remove(id)
	s.record(ctx, actor, activity.KindDelete, name, "Product deleted")
	s.publish(ctx)
	return nil
}

// AdjustStock applies a signed delta to exactly one location counter. The
// negative-stock guard lives here, not in any input widget: a delta that
// would drive the counter below zero is rejected with ErrInsufficientStock
// before anything is written. MANAGER only.
func (s *Service) AdjustStock(ctx context.Context, actor profile.Profile, input AdjustInput) (Product, error) {
	if !actor.IsManager() {
		return Product{}, shared.ErrManagerOnly
	}
	if !input.Location.Valid() {
		return Product{}, ErrInvalidLocation
	}
	if input.Delta == 0 {
		return Product{}, ErrInvalidDelta
	}

	s.snapshot.MarkInFlight(input.ProductID)
	defer s.snapshot.ClearInFlight(input.ProductID)

	var updated Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		warehouse, office := current.QtyWarehouse, current.QtyOffice
		switch input.Location {
		case LocationWarehouse:
			warehouse += input.Delta
			if warehouse < 0 {
				return ErrInsufficientStock
			}
		case LocationOffice:
			office += input.Delta
			if office < 0 {
				return ErrInsufficientStock
			}
		}
		if err := tx.UpdateQuantities(ctx, input.ProductID, warehouse, office); err != nil {
			return err
		}
		current.QtyWarehouse = warehouse
		current.QtyOffice = office
		updated = current
		return nil
	})
	if err != nil {
		return Product{}, fmt.Errorf("ledger: adjust stock: %w", err)
	}

	s.snapshot.Upsert(updated)
	kind := activity.KindAdd
	if input.Delta < 0 {
		kind = activity.KindRemove
	}
	detail := fmt.Sprintf("%s %s at %s", describeDelta(input.Delta), updated.Unit, input.Location)
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		detail += ": " + reason
	}
	s.record(ctx, actor, kind, updated.Name, detail)
	s.publish(ctx)
	return updated, nil
}

// TransferStock atomically moves an amount between the two locations for one
// product. Total stock is conserved; availability is checked inside the same
// transaction that applies the move. Any authenticated user may transfer.
func (s *Service) TransferStock(ctx context.Context, actor profile.Profile, input TransferInput) (Product, error) {
	if !input.From.Valid() || !input.To.Valid() {
		return Product{}, ErrInvalidLocation
	}
	if input.From == input.To {
		return Product{}, ErrSameLocation
	}
	if input.Amount <= 0 {
		return Product{}, ErrInvalidAmount
	}

	s.snapshot.MarkInFlight(input.ProductID)
	defer s.snapshot.ClearInFlight(input.ProductID)

	var updated Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if current.Qty(input.From) < input.Amount {
			return ErrInsufficientStock
		}
		warehouse, office := current.QtyWarehouse, current.QtyOffice
		if input.From == LocationWarehouse {
			warehouse -= input.Amount
			office += input.Amount
		} else {
			office -= input.Amount
			warehouse += input.Amount
		}
		if err := tx.UpdateQuantities(ctx, input.ProductID, warehouse, office); err != nil {
			return err
		}
		current.QtyWarehouse = warehouse
		current.QtyOffice = office
		updated = current
		return nil
	})
	if err != nil {
		return Product{}, fmt.Errorf("ledger: transfer stock: %w", err)
	}

	s.snapshot.Upsert(updated)
	detail := fmt.Sprintf("Moved %s %s from %s to %s", trimFloat(input.Amount), updated.Unit, input.From, input.To)
	s.record(ctx, actor, activity.KindTransfer, updated.Name, detail)
	s.publish(ctx)
	return updated, nil
}

func (s *Service) record(ctx context.Context, actor profile.Profile, kind activity.Kind, subject, detail string) {
	if s.activity == nil {
		return
	}
	entry := activity.Entry{
		Kind:      kind,
		Subject:   subject,
		Detail:    detail,
		ActorID:   actor.ID,
		ActorName: actor.Name,
	}
	if err := s.activity.Record(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn("record activity", slog.Any("error", err))
	}
}

func (s *Service) publish(ctx context.Context) {
	s.notifyChanged(ctx)
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, "products"); err != nil && s.logger != nil {
		s.logger.Warn("publish change event", slog.Any("error", err))
	}
}

func (s *Service) notifyChanged(ctx context.Context) {
	if s.onChange != nil {
		s.onChange.HandleProductsChanged(ctx)
	}
}

func (s *Service) subjectName(ctx context.Context, id int64) string {
	if p, ok := s.snapshot.Get(id); ok {
		return p.Name
	}
	if p, err := s.repo.Get(ctx, id); err == nil {
		return p.Name
	}
	return fmt.Sprintf("product %d", id)
}

func validateProduct(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrProductInvalid
	}
	if p.QtyWarehouse < 0 || p.QtyOffice < 0 || p.ReorderLevel < 0 || p.Price < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func describeDelta(delta float64) string {
	if delta > 0 {
		return "Added " + trimFloat(delta)
	}
	return "Removed " + trimFloat(-delta)
}

func trimFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", f), "0"), ".")
}
