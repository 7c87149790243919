package invoices

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/httpx"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// Handler wires HTTP endpoints for invoices.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	profiles  profile.Middleware
	validator *validator.Validate
}

// NewHandler constructs the invoice handler.
func NewHandler(logger *slog.Logger, service *Service, profiles profile.Middleware) *Handler {
	return &Handler{logger: logger, service: service, profiles: profiles, validator: validator.New()}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.profiles.RequireAuthenticated)
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.profiles.RequireManager)
		r.Post("/", h.create)
		r.Delete("/{id}", h.delete)
	})
}

type itemForm struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gte=0"`
	Rate        float64 `json:"rate" validate:"gte=0"`
}

type invoiceForm struct {
	CustomerName    string     `json:"customer_name" validate:"required"`
	CustomerEmail   string     `json:"customer_email" validate:"omitempty,email"`
	CustomerAddress string     `json:"customer_address"`
	IssueDate       string     `json:"issue_date"`
	Items           []itemForm `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form invoiceForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := profile.FromContext(r.Context())
	items := make([]Item, 0, len(form.Items))
	for _, it := range form.Items {
		items = append(items, Item{
			Description: it.Description,
			Quantity:    decimal.NewFromFloat(it.Quantity),
			Rate:        decimal.NewFromFloat(it.Rate),
		})
	}
	created, err := h.service.Create(r.Context(), actor, Invoice{
		CustomerName:    form.CustomerName,
		CustomerEmail:   form.CustomerEmail,
		CustomerAddress: form.CustomerAddress,
		IssueDate:       parseDate(form.IssueDate),
		Items:           items,
	})
	if err != nil {
		h.respondError(w, "create invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := profile.FromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.respondError(w, "delete invoice", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrManagerOnly):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "manager role required")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "invoice not found")
	case errors.Is(err, ErrInvalid):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Remote Store Error", op+" failed")
	}
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
