package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/chemtrade-erp/chemtrade-erp/internal/activity"
	"github.com/chemtrade-erp/chemtrade-erp/internal/alerts"
	"github.com/chemtrade-erp/chemtrade-erp/internal/auth"
	"github.com/chemtrade-erp/chemtrade-erp/internal/export"
	"github.com/chemtrade-erp/chemtrade-erp/internal/invoices"
	"github.com/chemtrade-erp/chemtrade-erp/internal/ledger"
	"github.com/chemtrade-erp/chemtrade-erp/internal/observability"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/settings"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
	"github.com/chemtrade-erp/chemtrade-erp/internal/suppliers"
	"github.com/chemtrade-erp/chemtrade-erp/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	ProfileMiddleware profile.Middleware

	AuthHandler     *auth.Handler
	ProductHandler  *ledger.Handler
	SupplierHandler *suppliers.Handler
	InvoiceHandler  *invoices.Handler
	AlertHandler    *alerts.Handler
	SettingsHandler *settings.Handler
	ActivityHandler *activity.Handler
	ExportHandler   *export.Handler
	ReportHandler   *report.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router for the API surface.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.ProfileMiddleware.Resolve)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(AuthRateLimit())
		params.AuthHandler.MountRoutes(r)
	})
	r.Route("/products", params.ProductHandler.MountRoutes)
	r.Route("/suppliers", params.SupplierHandler.MountRoutes)
	r.Route("/invoices", params.InvoiceHandler.MountRoutes)
	r.Route("/notifications", params.AlertHandler.MountRoutes)
	r.Route("/settings", params.SettingsHandler.MountRoutes)
	r.Route("/activity", params.ActivityHandler.MountRoutes)
	r.Route("/export", params.ExportHandler.MountRoutes)
	if params.ReportHandler != nil {
		r.Route("/report", params.ReportHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
