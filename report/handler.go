package report

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chemtrade-erp/chemtrade-erp/internal/invoices"
	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/httpx"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/settings"
)

// InvoiceSource resolves invoices for rendering.
type InvoiceSource interface {
	Get(ctx context.Context, id string) (invoices.Invoice, error)
}

// CompanySource resolves the letterhead block.
type CompanySource interface {
	CompanyInfo(ctx context.Context) (settings.CompanyInfo, error)
}

// Handler manages report endpoints.
type Handler struct {
	logger   *slog.Logger
	client   *Client
	invoices InvoiceSource
	company  CompanySource
	profiles profile.Middleware
}

// NewHandler creates a report handler.
func NewHandler(logger *slog.Logger, client *Client, inv InvoiceSource, company CompanySource, profiles profile.Middleware) *Handler {
	return &Handler{logger: logger, client: client, invoices: inv, company: company, profiles: profiles}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Group(func(r chi.Router) {
		r.Use(h.profiles.RequireAuthenticated)
		r.Get("/invoices/{id}/pdf", h.invoicePDF)
	})
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Renderer Unavailable", "pdf renderer is not reachable")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invoices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "invoice not found")
		return
	}
	company, err := h.company.CompanyInfo(r.Context())
	if err != nil {
		h.logger.Warn("read company info for invoice pdf", slog.Any("error", err))
	}

	html, err := RenderInvoiceHTML(company, inv)
	if err != nil {
		h.logger.Error("render invoice html", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not lay out invoice")
		return
	}
	pdf, err := h.client.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render invoice pdf", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Renderer Error", "pdf rendering failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+inv.Number+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
