package export

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/httpx"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
)

// Handler wires the export download endpoint.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	profiles profile.Middleware
}

// NewHandler constructs the export handler.
func NewHandler(logger *slog.Logger, service *Service, profiles profile.Middleware) *Handler {
	return &Handler{logger: logger, service: service, profiles: profiles}
}

// MountRoutes registers export routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.profiles.RequireAuthenticated)
		r.Get("/", h.download)
	})
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Build(r.Context())
	if err != nil {
		h.logger.Error("build export", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Remote Store Error", "export failed")
		return
	}
	filename := fmt.Sprintf("chemtrade-export-%s.json", doc.GeneratedAt.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	httpx.JSON(w, http.StatusOK, doc)
}
