package advanceshandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ewa/internal/domain/advance"
	"ewa/internal/domain/audit"
	"ewa/internal/domain/auth"
	"ewa/internal/domain/core"
	"ewa/internal/platform/requestctx"
	"ewa/internal/transport/http/api"
	"ewa/internal/transport/http/middleware"
)

type Handler struct {
	Service *advance.Service
	Core    *core.Store
	Audit   *audit.Recorder
}

func NewHandler(service *advance.Service, coreStore *core.Store, recorder *audit.Recorder) *Handler {
	return &Handler{Service: service, Core: coreStore, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleEmployee))
		r.Post("/advances", h.HandleCreate)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/advances", h.HandleList)
		r.Get("/advances/{id}", h.HandleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Post("/advances/{id}/approve", h.HandleApprove)
		r.Post("/advances/{id}/reject", h.HandleReject)
		r.Post("/advances/{id}/disburse", h.HandleDisburse)
		r.Post("/advances/{id}/flag", h.HandleFlag)
		r.Get("/advances/{id}/flags", h.HandleFlags)
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var input advance.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	adv, err := h.Service.Create(r.Context(), user.UserID, input)
	switch {
	case errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee profile not found", requestID)
		return
	case errors.Is(err, advance.ErrInvalidAmount):
		api.Fail(w, http.StatusBadRequest, "invalid_amount", "amount must be positive", requestID)
		return
	case errors.Is(err, advance.ErrInvalidMethod):
		api.Fail(w, http.StatusBadRequest, "invalid_method", "unknown disbursement method", requestID)
		return
	case errors.Is(err, advance.ErrUnverified):
		api.Fail(w, http.StatusForbidden, "unverified", "profile and kyc must both be approved", requestID)
		return
	case errors.Is(err, advance.ErrLimitExceeded):
		api.Fail(w, http.StatusBadRequest, "limit_exceeded", err.Error(), requestID)
		return
	case errors.Is(err, advance.ErrInsufficientEarned):
		api.Fail(w, http.StatusBadRequest, "insufficient_earned_wages", err.Error(), requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to create advance", requestID)
		return
	}
	api.Created(w, adv, requestID)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	filter := advance.Filter{Status: r.URL.Query().Get("status")}
	switch user.RoleName {
	case auth.RoleEmployee:
		emp, err := h.Core.EmployeeByUserID(r.Context(), user.UserID)
		if err != nil {
			api.Fail(w, http.StatusNotFound, "not_found", "employee profile not found", requestID)
			return
		}
		filter.EmployeeID = emp.ID
	case auth.RoleEmployer:
		employer, err := h.Core.EmployerByUserID(r.Context(), user.UserID)
		if err != nil {
			api.Fail(w, http.StatusNotFound, "not_found", "employer profile not found", requestID)
			return
		}
		filter.EmployerID = employer.ID
	}

	advances, err := h.Service.List(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list advances", requestID)
		return
	}
	api.Success(w, advances, requestID)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	adv, err := h.Service.Get(r.Context(), id)
	if errors.Is(err, advance.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "advance not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "load_error", "failed to load advance", requestID)
		return
	}

	if !h.canView(r, user, adv) {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
		return
	}
	api.Success(w, adv, requestID)
}

func (h *Handler) canView(r *http.Request, user auth.UserContext, adv advance.Advance) bool {
	switch user.RoleName {
	case auth.RoleAdmin:
		return true
	case auth.RoleEmployee:
		emp, err := h.Core.EmployeeByUserID(r.Context(), user.UserID)
		return err == nil && emp.ID == adv.EmployeeID
	case auth.RoleEmployer:
		employer, err := h.Core.EmployerByUserID(r.Context(), user.UserID)
		return err == nil && employer.ID != "" && employer.ID == adv.EmployerID
	}
	return false
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	adv, err := h.Service.Approve(r.Context(), id, user.UserID)
	switch {
	case errors.Is(err, advance.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "advance not found", requestID)
		return
	case errors.Is(err, advance.ErrAlreadyProcessed):
		api.Fail(w, http.StatusConflict, "already_processed", "advance already processed", requestID)
		return
	case errors.Is(err, advance.ErrInsufficientEarned):
		api.Fail(w, http.StatusConflict, "insufficient_earned_wages", "earned wages no longer cover this advance", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "approve_error", "failed to approve advance", requestID)
		return
	}

	h.Audit.Record(r.Context(), audit.Event{
		ActorID:    user.UserID,
		Action:     "advance.approve",
		EntityType: "advance",
		EntityID:   adv.ID,
		After:      adv,
		RequestID:  requestID,
	})
	api.Success(w, adv, requestID)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	// The reason is optional; a bodiless reject is valid.
	var payload rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	adv, err := h.Service.Reject(r.Context(), id, user.UserID, payload.Reason)
	switch {
	case errors.Is(err, advance.ErrNotFoundOrProcessed):
		api.Fail(w, http.StatusNotFound, "not_found_or_processed", "advance not found or already processed", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "reject_error", "failed to reject advance", requestID)
		return
	}

	h.Audit.Record(r.Context(), audit.Event{
		ActorID:    user.UserID,
		Action:     "advance.reject",
		EntityType: "advance",
		EntityID:   adv.ID,
		After:      adv,
		RequestID:  requestID,
	})
	api.Success(w, adv, requestID)
}

func (h *Handler) HandleDisburse(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	adv, err := h.Service.Disburse(r.Context(), id, user.UserID)
	switch {
	case errors.Is(err, advance.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "advance not found", requestID)
		return
	case errors.Is(err, advance.ErrNotApproved):
		api.Fail(w, http.StatusConflict, "not_approved", "advance must be approved before disbursement", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "disburse_error", "failed to disburse advance", requestID)
		return
	}

	h.Audit.Record(r.Context(), audit.Event{
		ActorID:    user.UserID,
		Action:     "advance.disburse",
		EntityType: "advance",
		EntityID:   adv.ID,
		After:      adv,
		RequestID:  requestID,
	})
	api.Success(w, adv, requestID)
}

type flagRequest struct {
	FlagType string `json:"flagType"`
	Notes    string `json:"notes"`
}

func (h *Handler) HandleFlag(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	var payload flagRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	flag, err := h.Service.Flag(r.Context(), id, user.UserID, payload.FlagType, payload.Notes)
	switch {
	case errors.Is(err, advance.ErrInvalidFlagType):
		api.Fail(w, http.StatusBadRequest, "invalid_flag_type", "flag type must be suspicious, fraud or mispayment", requestID)
		return
	case errors.Is(err, advance.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "advance not found", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "flag_error", "failed to flag advance", requestID)
		return
	}

	h.Audit.Record(r.Context(), audit.Event{
		ActorID:    user.UserID,
		Action:     "advance.flag",
		EntityType: "advance",
		EntityID:   id,
		After:      flag,
		RequestID:  requestID,
	})
	api.Created(w, flag, requestID)
}

func (h *Handler) HandleFlags(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")

	flags, err := h.Service.Flags(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "flags_error", "failed to load flags", requestID)
		return
	}
	api.Success(w, flags, requestID)
}
