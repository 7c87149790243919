package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/httpx"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// Handler wires HTTP endpoints for the product ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	profiles  profile.Middleware
	validator *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service, profiles profile.Middleware) *Handler {
	return &Handler{logger: logger, service: service, profiles: profiles, validator: validator.New()}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.profiles.RequireAuthenticated)
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Post("/refresh", h.refresh)
		r.Post("/{id}/transfer", h.transfer)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.profiles.RequireManager)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/adjust", h.adjust)
	})
}

type productForm struct {
	Name           string  `json:"name" validate:"required"`
	Category       string  `json:"category"`
	Unit           string  `json:"unit"`
	SupplierName   string  `json:"supplier_name"`
	Origin         string  `json:"origin"`
	DeliveryAgent  string  `json:"delivery_agent"`
	QtyWarehouse   float64 `json:"qty_warehouse" validate:"gte=0"`
	QtyOffice      float64 `json:"qty_office" validate:"gte=0"`
	ReorderLevel   float64 `json:"reorder_level" validate:"gte=0"`
	Price          float64 `json:"price" validate:"gte=0"`
	ProductionDate string  `json:"production_date"`
	ExpirationDate string  `json:"expiration_date"`
}

type adjustForm struct {
	Location string  `json:"location" validate:"required"`
	Delta    float64 `json:"delta"`
	Reason   string  `json:"reason"`
}

type transferForm struct {
	From   string  `json:"from" validate:"required"`
	To     string  `json:"to" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

type productView struct {
	Product
	TotalStock float64 `json:"total_stock"`
	InFlight   bool    `json:"in_flight"`
}

type collectionView struct {
	State    CollectionState `json:"state"`
	Products []productView   `json:"products"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	snap := h.service.Snapshot()
	if snap.State() == StateUnloaded {
		if err := h.service.Refresh(r.Context()); err != nil {
			h.logger.Error("initial product load", slog.Any("error", err))
		}
	}
	products := h.service.Products()
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, productView{Product: p, TotalStock: p.TotalStock(), InFlight: snap.InFlight(p.ID)})
	}
	httpx.JSON(w, http.StatusOK, collectionView{State: snap.State(), Products: views})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}
	if p, ok := h.service.Snapshot().Get(id); ok {
		httpx.JSON(w, http.StatusOK, productView{Product: p, TotalStock: p.TotalStock(), InFlight: h.service.Snapshot().InFlight(id)})
		return
	}
	httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		h.logger.Error("refresh products", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Refresh Failed", "could not fetch products")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"state": string(h.service.Snapshot().State())})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, actor, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	created, err := h.service.AddProduct(r.Context(), actor, form)
	if err != nil {
		h.respondError(w, "add product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, productView{Product: created, TotalStock: created.TotalStock()})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}
	form, actor, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	updated, err := h.service.UpdateProduct(r.Context(), actor, id, form)
	if err != nil {
		h.respondError(w, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, productView{Product: updated, TotalStock: updated.TotalStock()})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}
	actor, _ := profile.FromContext(r.Context())
	if err := h.service.DeleteProduct(r.Context(), actor, id); err != nil {
		h.respondError(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}
	var form adjustForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := profile.FromContext(r.Context())
	updated, err := h.service.AdjustStock(r.Context(), actor, AdjustInput{
		ProductID: id,
		Location:  Location(form.Location),
		Delta:     form.Delta,
		Reason:    form.Reason,
	})
	if err != nil {
		h.respondError(w, "adjust stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, productView{Product: updated, TotalStock: updated.TotalStock()})
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}
	var form transferForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := profile.FromContext(r.Context())
	updated, err := h.service.TransferStock(r.Context(), actor, TransferInput{
		ProductID: id,
		From:      Location(form.From),
		To:        Location(form.To),
		Amount:    form.Amount,
	})
	if err != nil {
		h.respondError(w, "transfer stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, productView{Product: updated, TotalStock: updated.TotalStock()})
}

func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request) (Product, profile.Profile, bool) {
	var form productForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return Product{}, profile.Profile{}, false
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return Product{}, profile.Profile{}, false
	}
	actor, _ := profile.FromContext(r.Context())
	return Product{
		Name:           form.Name,
		Category:       form.Category,
		Unit:           form.Unit,
		SupplierName:   form.SupplierName,
		Origin:         form.Origin,
		DeliveryAgent:  form.DeliveryAgent,
		QtyWarehouse:   form.QtyWarehouse,
		QtyOffice:      form.QtyOffice,
		ReorderLevel:   form.ReorderLevel,
		Price:          form.Price,
		ProductionDate: parseDate(form.ProductionDate),
		ExpirationDate: parseDate(form.ExpirationDate),
	}, actor, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrManagerOnly):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "manager role required")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrSameLocation), errors.Is(err, ErrInvalidLocation),
		errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidDelta), errors.Is(err, ErrProductInvalid):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Remote Store Error", op+" failed")
	}
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}
	}
	return t
}
