package settings

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/httpx"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// Handler wires HTTP endpoints for settings.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	profiles  profile.Middleware
	validator *validator.Validate
}

// NewHandler constructs the settings handler.
func NewHandler(logger *slog.Logger, service *Service, profiles profile.Middleware) *Handler {
	return &Handler{logger: logger, service: service, profiles: profiles, validator: validator.New()}
}

// MountRoutes registers settings routes. Reads are authenticated, writes are
// manager only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.profiles.RequireAuthenticated)
		r.Get("/", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.profiles.RequireManager)
		r.Put("/company", h.setCompany)
		r.Put("/expiry-threshold", h.setThreshold)
	})
}

type settingsView struct {
	Company             CompanyInfo `json:"company"`
	ExpiryThresholdDays int         `json:"expiry_threshold_days"`
}

type companyForm struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	TaxID   string `json:"tax_id"`
}

type thresholdForm struct {
	Days int `json:"days" validate:"required,gte=1,lte=365"`
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	company, err := h.service.CompanyInfo(r.Context())
	if err != nil {
		h.respondError(w, "read settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, settingsView{
		Company:             company,
		ExpiryThresholdDays: h.service.ExpiryThresholdDays(r.Context()),
	})
}

func (h *Handler) setCompany(w http.ResponseWriter, r *http.Request) {
	var form companyForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := profile.FromContext(r.Context())
	err := h.service.SetCompanyInfo(r.Context(), actor, CompanyInfo{
		Name:    form.Name,
		Address: form.Address,
		Email:   form.Email,
		Phone:   form.Phone,
		TaxID:   form.TaxID,
	})
	if err != nil {
		h.respondError(w, "update company info", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setThreshold(w http.ResponseWriter, r *http.Request) {
	var form thresholdForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor, _ := profile.FromContext(r.Context())
	if err := h.service.SetExpiryThresholdDays(r.Context(), actor, form.Days); err != nil {
		h.respondError(w, "update expiry threshold", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, shared.ErrManagerOnly):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "manager role required")
	case errors.Is(err, ErrInvalidThreshold):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Remote Store Error", op+" failed")
	}
}
