package activity

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/httpx"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
)

// Handler wires HTTP endpoints for the activity log.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	profiles profile.Middleware
}

// NewHandler constructs the activity handler.
func NewHandler(logger *slog.Logger, service *Service, profiles profile.Middleware) *Handler {
	return &Handler{logger: logger, service: service, profiles: profiles}
}

// MountRoutes registers activity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.profiles.RequireAuthenticated)
		r.Get("/", h.recent)
	})
}

type entryView struct {
	ID         int64     `json:"id"`
	Kind       Kind      `json:"kind"`
	Subject    string    `json:"subject"`
	Detail     string    `json:"detail"`
	ActorID    int64     `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (h *Handler) recent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list activity", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Remote Store Error", "list activity failed")
		return
	}
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			ID:         e.ID,
			Kind:       e.Kind,
			Subject:    e.Subject,
			Detail:     e.Detail,
			ActorID:    e.ActorID,
			ActorName:  e.ActorName,
			OccurredAt: e.OccurredAt,
		})
	}
	httpx.JSON(w, http.StatusOK, views)
}
