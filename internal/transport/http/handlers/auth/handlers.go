package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"ewa/internal/domain/auth"
	"ewa/internal/platform/requestctx"
	"ewa/internal/transport/http/api"
	"ewa/internal/transport/http/middleware"
	"ewa/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/auth/me", h.HandleMe)
	})
}

type registerRequest struct {
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	PhoneCountryCode string `json:"phoneCountryCode"`
	FullName         string `json:"fullName"`
	Role             string `json:"role"`
	Password         string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload registerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	if payload.Email != "" && !strings.Contains(payload.Email, "@") {
		v.Add("email", "must be a valid email address")
	}
	v.Required("fullName", payload.FullName, "full name is required")
	v.Required("role", payload.Role, "role is required")
	if payload.Role != "" && !auth.ValidRole(payload.Role) {
		v.Add("role", "must be one of employee, employer, admin")
	}
	if payload.Role == auth.RoleAdmin {
		v.Add("role", "admin accounts cannot self-register")
	}
	if len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.Register(r.Context(), auth.Registration{
		Email:            payload.Email,
		Phone:            payload.Phone,
		PhoneCountryCode: payload.PhoneCountryCode,
		FullName:         payload.FullName,
		Role:             payload.Role,
		Password:         payload.Password,
	})
	if errors.Is(err, auth.ErrEmailTaken) {
		api.Fail(w, http.StatusConflict, "email_taken", "email is already registered", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "register_error", "failed to register user", requestID)
		return
	}
	api.Created(w, result, requestID)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_error", "failed to log in", requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	me, err := h.Service.Me(r.Context(), user.UserID)
	if errors.Is(err, auth.ErrUserNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "me_error", "failed to load user", requestID)
		return
	}
	api.Success(w, me, requestID)
}
