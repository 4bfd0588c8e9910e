package notificationshandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ewa/internal/domain/notifications"
	"ewa/internal/platform/requestctx"
	"ewa/internal/transport/http/api"
	"ewa/internal/transport/http/middleware"
	"ewa/internal/transport/http/shared"
)

type Handler struct {
	Service *notifications.Service
}

func NewHandler(service *notifications.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/notifications", h.HandleList)
		r.Post("/notifications/{id}/read", h.HandleMarkRead)
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	list, err := h.Service.List(r.Context(), user.UserID, page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list notifications", requestID)
		return
	}
	api.Success(w, list, requestID)
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	err := h.Service.MarkRead(r.Context(), id, user.UserID)
	if errors.Is(err, notifications.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "notification not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "read_error", "failed to mark notification read", requestID)
		return
	}
	api.Success(w, map[string]any{"id": id, "read": true}, requestID)
}
