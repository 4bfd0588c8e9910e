package payrollhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ewa/internal/domain/audit"
	"ewa/internal/domain/auth"
	"ewa/internal/domain/core"
	"ewa/internal/domain/payroll"
	"ewa/internal/platform/requestctx"
	"ewa/internal/transport/http/api"
	"ewa/internal/transport/http/middleware"
	"ewa/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Core    *core.Store
	Audit   *audit.Recorder
}

func NewHandler(service *payroll.Service, coreStore *core.Store, recorder *audit.Recorder) *Handler {
	return &Handler{Service: service, Core: coreStore, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin))
		r.Post("/payroll/upload", h.HandleUpload)
		r.Get("/payroll/history", h.HandleHistory)
	})
}

type uploadRequest struct {
	EmployerID string          `json:"employerId"`
	Month      string          `json:"month"`
	Entries    []payroll.Entry `json:"entries"`
}

// resolveEmployer picks the employer an upload applies to: employers
// always act on their own roster, admins name one explicitly.
func (h *Handler) resolveEmployer(r *http.Request, user auth.UserContext, explicit string) (string, error) {
	if user.RoleName == auth.RoleEmployer {
		employer, err := h.Core.EmployerByUserID(r.Context(), user.UserID)
		if err != nil {
			return "", err
		}
		return employer.ID, nil
	}
	if explicit == "" {
		return "", core.ErrEmployerNotFound
	}
	employer, err := h.Core.EmployerByID(r.Context(), explicit)
	if err != nil {
		return "", err
	}
	return employer.ID, nil
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	employerID, err := h.resolveEmployer(r, user, payload.EmployerID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employer profile not found", requestID)
		return
	}

	result, err := h.Service.ProcessUpload(r.Context(), employerID, payroll.Upload{
		Month:   payload.Month,
		Entries: payload.Entries,
	})
	switch {
	case errors.Is(err, payroll.ErrNoEntries),
		errors.Is(err, payroll.ErrInvalidMonth),
		errors.Is(err, payroll.ErrInvalidDays),
		errors.Is(err, payroll.ErrNegativeSalary),
		errors.Is(err, payroll.ErrDuplicateCode):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "entries", Reason: err.Error()}})
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "upload_error", "failed to process payroll upload", requestID)
		return
	}

	h.Audit.Record(r.Context(), audit.Event{
		ActorID:    user.UserID,
		Action:     "payroll.upload",
		EntityType: "employer",
		EntityID:   employerID,
		After:      result,
		RequestID:  requestID,
	})
	api.Success(w, result, requestID)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	employerID, err := h.resolveEmployer(r, user, r.URL.Query().Get("employerId"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employer profile not found", requestID)
		return
	}

	records, err := h.Service.History(r.Context(), employerID, page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "history_error", "failed to load payroll history", requestID)
		return
	}
	api.Success(w, records, requestID)
}
