package employeeshandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ewa/internal/domain/auth"
	"ewa/internal/domain/core"
	"ewa/internal/domain/payroll"
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
		r.Use(middleware.RequireRole(auth.RoleEmployee))
		r.Post("/employees", h.HandleCreate)
		r.Get("/employees/me", h.HandleMe)
		r.Post("/employees/kyc/submit", h.HandleKYCSubmit)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/employees/{id}", h.HandleGet)
		r.Patch("/employees/{id}", h.HandlePatch)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin, auth.RoleEmployer))
		r.Get("/employees", h.HandleList)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Post("/employees/{id}/status", h.HandleStatus)
		r.Post("/employees/{id}/kyc/approve", h.HandleKYCApprove)
		r.Post("/employees/{id}/kyc/reject", h.HandleKYCReject)
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var input core.EmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.NonNegative("monthlySalary", input.MonthlySalary, "must not be negative")
	if v.Reject(w, requestID) {
		return
	}

	// New profiles start with zero earned wages; the limit is seeded
	// from the stated salary until the first payroll upload lands.
	emp, err := h.Store.CreateEmployee(r.Context(), user.UserID, input, payroll.SeedLimit(input.MonthlySalary))
	if errors.Is(err, core.ErrProfileExists) {
		api.Fail(w, http.StatusConflict, "profile_exists", "employee profile already exists", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_error", "failed to create employee profile", requestID)
		return
	}
	api.Created(w, emp, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	emp, err := h.Store.EmployeeByUserID(r.Context(), user.UserID)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee profile not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "load_error", "failed to load employee profile", requestID)
		return
	}
	api.Success(w, emp, requestID)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	emp, err := h.Store.EmployeeByID(r.Context(), id)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "load_error", "failed to load employee", requestID)
		return
	}

	isSelf := emp.UserID == user.UserID
	if !h.canView(r, user, emp, isSelf) {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
		return
	}
	core.FilterEmployee(&emp, user, isSelf)
	api.Success(w, emp, requestID)
}

func (h *Handler) canView(r *http.Request, user auth.UserContext, emp core.Employee, isSelf bool) bool {
	switch user.RoleName {
	case auth.RoleAdmin:
		return true
	case auth.RoleEmployee:
		return isSelf
	case auth.RoleEmployer:
		employer, err := h.Store.EmployerByUserID(r.Context(), user.UserID)
		return err == nil && employer.ID != "" && employer.ID == emp.EmployerID
	}
	return false
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	filter := core.EmployeeFilter{
		Status:    r.URL.Query().Get("status"),
		KYCStatus: r.URL.Query().Get("kycStatus"),
	}
	if user.RoleName == auth.RoleEmployer {
		employer, err := h.Store.EmployerByUserID(r.Context(), user.UserID)
		if err != nil {
			api.Fail(w, http.StatusNotFound, "not_found", "employer profile not found", requestID)
			return
		}
		filter.EmployerID = employer.ID
	} else if employerID := r.URL.Query().Get("employerId"); employerID != "" {
		filter.EmployerID = employerID
	}

	employees, err := h.Store.ListEmployees(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list employees", requestID)
		return
	}
	for i := range employees {
		core.FilterEmployee(&employees[i], user, false)
	}
	api.Success(w, employees, requestID)
}

// Fields an employee may change on their own profile. Everything else
// in the patch allow-list is admin only.
var selfPatchFields = map[string]bool{
	"bank_name":             true,
	"bank_account":          true,
	"mobile_money_provider": true,
	"mobile_money_number":   true,
	"address_line1":         true,
	"address_line2":         true,
	"city":                  true,
	"postal_code":           true,
}

func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
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

	switch user.RoleName {
	case auth.RoleAdmin:
	case auth.RoleEmployee:
		emp, err := h.Store.EmployeeByID(r.Context(), id)
		if err != nil || emp.UserID != user.UserID {
			api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
			return
		}
		for key := range fields {
			if !selfPatchFields[key] {
				api.Fail(w, http.StatusForbidden, "forbidden", "field not editable: "+key, requestID)
				return
			}
		}
	default:
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
		return
	}

	err := h.Store.PatchEmployee(r.Context(), id, fields)
	if errors.Is(err, core.ErrUnknownField) {
		api.Fail(w, http.StatusBadRequest, "unknown_field", err.Error(), requestID)
		return
	}
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "patch_error", "failed to update employee", requestID)
		return
	}

	emp, err := h.Store.EmployeeByID(r.Context(), id)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "load_error", "failed to load employee", requestID)
		return
	}
	core.FilterEmployee(&emp, user, emp.UserID == user.UserID)
	api.Success(w, emp, requestID)
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

	err := h.Store.UpdateEmployeeStatus(r.Context(), id, payload.Status)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "status_error", "failed to update status", requestID)
		return
	}
	api.Success(w, map[string]string{"id": id, "status": payload.Status}, requestID)
}

type kycSubmitRequest struct {
	Step int `json:"step"`
}

func (h *Handler) HandleKYCSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload kycSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	emp, err := h.Store.EmployeeByUserID(r.Context(), user.UserID)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee profile not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "load_error", "failed to load employee profile", requestID)
		return
	}

	if payload.Step > 0 {
		if err := h.Store.UpdateEmployeeKYCStep(r.Context(), user.UserID, payload.Step); err != nil {
			api.Fail(w, http.StatusInternalServerError, "kyc_error", "failed to update kyc step", requestID)
			return
		}
	}
	if err := h.Store.UpdateEmployeeKYCStatus(r.Context(), emp.ID, core.KYCSubmitted); err != nil {
		api.Fail(w, http.StatusInternalServerError, "kyc_error", "failed to submit kyc", requestID)
		return
	}
	api.Success(w, map[string]string{"id": emp.ID, "kycStatus": core.KYCSubmitted}, requestID)
}

func (h *Handler) HandleKYCApprove(w http.ResponseWriter, r *http.Request) {
	h.updateKYC(w, r, core.KYCApproved)
}

func (h *Handler) HandleKYCReject(w http.ResponseWriter, r *http.Request) {
	h.updateKYC(w, r, core.KYCRejected)
}

func (h *Handler) updateKYC(w http.ResponseWriter, r *http.Request, status string) {
	requestID := requestctx.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")

	err := h.Store.UpdateEmployeeKYCStatus(r.Context(), id, status)
	if errors.Is(err, core.ErrEmployeeNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "kyc_error", "failed to update kyc status", requestID)
		return
	}
	api.Success(w, map[string]string{"id": id, "kycStatus": status}, requestID)
}
