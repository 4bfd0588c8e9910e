package dashboardhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ewa/internal/domain/advance"
	"ewa/internal/domain/auth"
	"ewa/internal/domain/core"
	"ewa/internal/platform/requestctx"
	"ewa/internal/transport/http/api"
	"ewa/internal/transport/http/middleware"
)

type Handler struct {
	DB   *pgxpool.Pool
	Core *core.Store
}

func NewHandler(db *pgxpool.Pool, coreStore *core.Store) *Handler {
	return &Handler{DB: db, Core: coreStore}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/dashboard", h.HandleDashboard)
	})
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var (
		data any
		err  error
	)
	switch user.RoleName {
	case auth.RoleEmployee:
		data, err = h.employeeDashboard(r.Context(), user.UserID)
	case auth.RoleEmployer:
		data, err = h.employerDashboard(r.Context(), user.UserID)
	case auth.RoleAdmin:
		data, err = h.adminDashboard(r.Context())
	default:
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
		return
	}
	if errors.Is(err, core.ErrEmployeeNotFound) || errors.Is(err, core.ErrEmployerNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "profile not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "dashboard_error", "failed to build dashboard", requestID)
		return
	}
	api.Success(w, data, requestID)
}

func (h *Handler) employeeDashboard(ctx context.Context, userID string) (any, error) {
	emp, err := h.Core.EmployeeByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts, totalDisbursed, err := h.advanceCounts(ctx, "employee_id", emp.ID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"earnedWages":       emp.EarnedWages,
		"advanceLimit":      emp.AdvanceLimit,
		"monthlySalary":     emp.MonthlySalary,
		"kycStatus":         emp.KYCStatus,
		"status":            emp.Status,
		"lastPayrollUpdate": emp.LastPayrollUpdate,
		"advances":          counts,
		"totalDisbursed":    totalDisbursed,
	}, nil
}

func (h *Handler) employerDashboard(ctx context.Context, userID string) (any, error) {
	employer, err := h.Core.EmployerByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var rosterSize, verified int
	err = h.DB.QueryRow(ctx, `
		SELECT COUNT(1),
		       COUNT(1) FILTER (WHERE status = $2 AND kyc_status = $3)
		FROM employees WHERE employer_id = $1`,
		employer.ID, core.StatusApproved, core.KYCApproved).Scan(&rosterSize, &verified)
	if err != nil {
		return nil, err
	}

	counts, totalDisbursed, err := h.advanceCounts(ctx, "employer_id", employer.ID)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"companyName":       employer.CompanyName,
		"status":            employer.Status,
		"riskRating":        employer.RiskRating,
		"rosterSize":        rosterSize,
		"verifiedEmployees": verified,
		"advances":          counts,
		"totalDisbursed":    totalDisbursed,
	}, nil
}

func (h *Handler) adminDashboard(ctx context.Context) (any, error) {
	var employees, employers, pendingKYC int
	err := h.DB.QueryRow(ctx, `
		SELECT
		  (SELECT COUNT(1) FROM employees),
		  (SELECT COUNT(1) FROM employers),
		  (SELECT COUNT(1) FROM employees WHERE kyc_status = $1)`,
		core.KYCSubmitted).Scan(&employees, &employers, &pendingKYC)
	if err != nil {
		return nil, err
	}

	counts, totalDisbursed, err := h.advanceCounts(ctx, "", "")
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"employees":      employees,
		"employers":      employers,
		"pendingKYC":     pendingKYC,
		"advances":       counts,
		"totalDisbursed": totalDisbursed,
	}, nil
}

func (h *Handler) advanceCounts(ctx context.Context, scopeColumn, scopeID string) (map[string]int, float64, error) {
	query := `
		SELECT status, COUNT(1), COALESCE(SUM(net_amount) FILTER (WHERE status = '` + advance.StatusDisbursed + `'), 0)
		FROM advances`
	args := []any{}
	if scopeColumn != "" {
		query += " WHERE " + scopeColumn + " = $1"
		args = append(args, scopeID)
	}
	query += " GROUP BY status"

	rows, err := h.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	counts := map[string]int{}
	total := 0.0
	for rows.Next() {
		var status string
		var count int
		var disbursed float64
		if err := rows.Scan(&status, &count, &disbursed); err != nil {
			return nil, 0, err
		}
		counts[status] = count
		total += disbursed
	}
	return counts, total, rows.Err()
}
