package riskhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ewa/internal/domain/audit"
	"ewa/internal/domain/auth"
	"ewa/internal/domain/core"
	"ewa/internal/domain/risk"
	"ewa/internal/platform/requestctx"
	"ewa/internal/transport/http/api"
	"ewa/internal/transport/http/middleware"
	"ewa/internal/transport/http/shared"
)

type Handler struct {
	Service *risk.Service
	Audit   *audit.Recorder
}

func NewHandler(service *risk.Service, recorder *audit.Recorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Post("/risk/{entityType}/{id}/review", h.HandleReview)
		r.Post("/risk/{entityType}/{id}/override", h.HandleOverride)
		r.Get("/risk/{entityType}/{id}", h.HandleLatest)
		r.Get("/risk/{entityType}/{id}/history", h.HandleHistory)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/risk/weights/{entityType}", h.HandleWeights)
	})
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	entityType := chi.URLParam(r, "entityType")
	id := chi.URLParam(r, "id")

	var input risk.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	rec, err := h.Service.Review(r.Context(), entityType, id, user.UserID, input)
	switch {
	case errors.Is(err, risk.ErrUnknownEntity):
		api.Fail(w, http.StatusBadRequest, "unknown_entity", "entity type must be employer or employee", requestID)
		return
	case errors.Is(err, risk.ErrNoScoresSupplied):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "scores", Reason: "at least one factor score is required"}})
		return
	case errors.Is(err, risk.ErrScoreOutOfRange):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "scores", Reason: err.Error()}})
		return
	case errors.Is(err, core.ErrEmployerNotFound), errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "entity not found", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "review_error", "failed to record review", requestID)
		return
	}

	h.Audit.Record(r.Context(), audit.Event{
		ActorID:    user.UserID,
		Action:     "risk.review",
		EntityType: entityType,
		EntityID:   id,
		After:      rec,
		RequestID:  requestID,
	})
	api.Created(w, rec, requestID)
}

func (h *Handler) HandleOverride(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	entityType := chi.URLParam(r, "entityType")
	id := chi.URLParam(r, "id")

	var input risk.OverrideInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	rec, err := h.Service.Override(r.Context(), entityType, id, user.UserID, input)
	switch {
	case errors.Is(err, risk.ErrUnknownEntity):
		api.Fail(w, http.StatusBadRequest, "unknown_entity", "entity type must be employer or employee", requestID)
		return
	case errors.Is(err, risk.ErrScoreOutOfRange):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "score", Reason: "must be between 0 and 5"}})
		return
	case errors.Is(err, risk.ErrReasonRequired):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "reason", Reason: "override reason is required"}})
		return
	case errors.Is(err, core.ErrEmployerNotFound), errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "entity not found", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "override_error", "failed to record override", requestID)
		return
	}

	h.Audit.Record(r.Context(), audit.Event{
		ActorID:    user.UserID,
		Action:     "risk.override",
		EntityType: entityType,
		EntityID:   id,
		After:      rec,
		RequestID:  requestID,
	})
	api.Created(w, rec, requestID)
}

func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	entityType := chi.URLParam(r, "entityType")
	id := chi.URLParam(r, "id")

	rec, err := h.Service.Latest(r.Context(), entityType, id)
	switch {
	case errors.Is(err, risk.ErrUnknownEntity):
		api.Fail(w, http.StatusBadRequest, "unknown_entity", "entity type must be employer or employee", requestID)
		return
	case errors.Is(err, risk.ErrRecordNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "no risk record for entity", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "load_error", "failed to load risk record", requestID)
		return
	}
	api.Success(w, rec, requestID)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	entityType := chi.URLParam(r, "entityType")
	id := chi.URLParam(r, "id")
	page := shared.ParsePagination(r, 50, 200)

	records, err := h.Service.History(r.Context(), entityType, id, page.Limit)
	switch {
	case errors.Is(err, risk.ErrUnknownEntity):
		api.Fail(w, http.StatusBadRequest, "unknown_entity", "entity type must be employer or employee", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "history_error", "failed to load risk history", requestID)
		return
	}
	api.Success(w, records, requestID)
}

func (h *Handler) HandleWeights(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	entityType := chi.URLParam(r, "entityType")

	switch entityType {
	case risk.EntityEmployer:
		api.Success(w, risk.EmployerWeights(), requestID)
	case risk.EntityEmployee:
		api.Success(w, risk.EmployeeWeights(), requestID)
	default:
		api.Fail(w, http.StatusBadRequest, "unknown_entity", "entity type must be employer or employee", requestID)
	}
}
