package employershandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ewa/internal/domain/auth"
	"ewa/internal/domain/core"
	"ewa/internal/platform/requestctx"
	"ewa/internal/transport/http/api"
	"ewa/internal/transport/http/middleware"
	"ewa/internal/transport/http/shared"
)

type Handler struct {
	Store *core.Store
}

func NewHandler(store *core.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleEmployer))
		r.Post("/employers", h.HandleCreate)
		r.Get("/employers/me", h.HandleMe)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/employers/approved", h.HandleListApproved)
		r.Get("/employers/{id}", h.HandleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/employers", h.HandleList)
		r.Patch("/employers/{id}", h.HandlePatch)
		r.Post("/employers/{id}/status", h.HandleStatus)
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var input core.EmployerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("companyName", input.CompanyName, "company name is required")
	if input.EmployeeCount < 0 {
		v.Add("employeeCount", "must not be negative")
	}
	if v.Reject(w, requestID) {
		return
	}

	employer, err := h.Store.CreateEmployer(r.Context(), user.UserID, input)
	if errors.Is(err, core.ErrProfileExists) {
		api.Fail(w, http.StatusConflict, "profile_exists", "employer profile already exists", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to create employer profile", requestID)
		return
	}
	api.Created(w, employer, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	employer, err := h.Store.EmployerByUserID(r.Context(), user.UserID)
	if errors.Is(err, core.ErrEmployerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employer profile not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "load_error", "failed to load employer profile", requestID)
		return
	}
	api.Success(w, employer, requestID)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	employer, err := h.Store.EmployerByID(r.Context(), id)
	if errors.Is(err, core.ErrEmployerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employer not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "load_error", "failed to load employer", requestID)
		return
	}

	// Non-admin viewers get the public subset only.
	if user.RoleName != auth.RoleAdmin && employer.UserID != user.UserID {
		employer = core.Employer{
			ID:          employer.ID,
			CompanyName: employer.CompanyName,
			Industry:    employer.Industry,
			Country:     employer.Country,
			Status:      employer.Status,
		}
	}
	api.Success(w, employer, requestID)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	employers, err := h.Store.ListEmployers(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list employers", requestID)
		return
	}
	api.Success(w, employers, requestID)
}

// HandleListApproved lists approved employers for employee enrollment.
// Any authenticated user may call it; the response carries the public
// subset only.
func (h *Handler) HandleListApproved(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	employers, err := h.Store.ListEmployers(r.Context(), core.StatusApproved)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list employers", requestID)
		return
	}

	public := make([]core.Employer, 0, len(employers))
	for _, employer := range employers {
		public = append(public, core.Employer{
			ID:          employer.ID,
			CompanyName: employer.CompanyName,
			Industry:    employer.Industry,
			Country:     employer.Country,
			Status:      employer.Status,
		})
	}
	api.Success(w, public, requestID)
}

func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if len(fields) == 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "no fields to update", requestID)
		return
	}

	err := h.Store.PatchEmployer(r.Context(), id, fields)
	if errors.Is(err, core.ErrUnknownField) {
		api.Fail(w, http.StatusBadRequest, "unknown_field", err.Error(), requestID)
		return
	}
	if errors.Is(err, core.ErrEmployerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employer not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "patch_error", "failed to update employer", requestID)
		return
	}

	employer, err := h.Store.EmployerByID(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "load_error", "failed to load employer", requestID)
		return
	}
	api.Success(w, employer, requestID)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")

	var payload statusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("status", payload.Status, "status is required")
	v.Enum("status", payload.Status,
		[]string{core.StatusPending, core.StatusApproved, core.StatusRejected, core.StatusSuspended},
		"must be one of pending, approved, rejected, suspended")
	if v.Reject(w, requestID) {
		return
	}

	err := h.Store.UpdateEmployerStatus(r.Context(), id, payload.Status)
	if errors.Is(err, core.ErrEmployerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employer not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "status_error", "failed to update status", requestID)
		return
	}
	api.Success(w, map[string]string{"id": id, "status": payload.Status}, requestID)
}
