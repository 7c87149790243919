package alerts

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chemtrade-erp/chemtrade-erp/internal/platform/httpx"
	"github.com/chemtrade-erp/chemtrade-erp/internal/profile"
	"github.com/chemtrade-erp/chemtrade-erp/internal/shared"
)

// Handler wires HTTP endpoints for notifications.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	profiles profile.Middleware
}

// NewHandler constructs the notification handler.
func NewHandler(logger *slog.Logger, service *Service, profiles profile.Middleware) *Handler {
	return &Handler{logger: logger, service: service, profiles: profiles}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.profiles.RequireAuthenticated)
		r.Get("/", h.list)
		r.Post("/recompute", h.recompute)
		r.Post("/{id}/read", h.markRead)
		r.Post("/read-all", h.markAllRead)
	})
}

type listView struct {
	Unread        int            `json:"unread"`
	Notifications []Notification `json:"notifications"`
}

func (h *Handler) list(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, listView{
		Unread:        h.service.UnreadCount(),
		Notifications: h.service.List(),
	})
}

func (h *Handler) recompute(w http.ResponseWriter, r *http.Request) {
	h.service.Recompute(r.Context())
	httpx.JSON(w, http.StatusOK, listView{
		Unread:        h.service.UnreadCount(),
		Notifications: h.service.List(),
	})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkRead(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "notification not found")
			return
		}
		h.logger.Error("mark notification read", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not mark notification read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, _ *http.Request) {
	h.service.MarkAllRead()
	w.WriteHeader(http.StatusNoContent)
}
