package transactionshandler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"

	"ewa/internal/domain/advance"
	"ewa/internal/domain/auth"
	"ewa/internal/platform/requestctx"
	"ewa/internal/transport/http/api"
	"ewa/internal/transport/http/middleware"
	"ewa/internal/transport/http/shared"
)

type Handler struct {
	Service *advance.Service
	Auth    *auth.Service
}

func NewHandler(service *advance.Service, authService *auth.Service) *Handler {
	return &Handler{Service: service, Auth: authService}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/transactions", h.HandleList)
		r.Get("/transactions/statement.pdf", h.HandleStatement)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/transactions/users/{userId}", h.HandleListForUser)
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 100, 500)

	txns, err := h.Service.Transactions(r.Context(), user.UserID, page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list transactions", requestID)
		return
	}
	api.Success(w, txns, requestID)
}

func (h *Handler) HandleListForUser(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	userID := chi.URLParam(r, "userId")
	page := shared.ParsePagination(r, 100, 500)

	txns, err := h.Service.Transactions(r.Context(), userID, page.Limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list transactions", requestID)
		return
	}
	api.Success(w, txns, requestID)
}

// HandleStatement renders the caller's transaction history as a PDF
// statement, streamed directly in the response.
func (h *Handler) HandleStatement(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	account, err := h.Auth.Me(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "statement_error", "failed to load account", requestID)
		return
	}
	txns, err := h.Service.Transactions(r.Context(), user.UserID, 500)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "statement_error", "failed to load transactions", requestID)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Transaction Statement")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Account: %s", account.FullName))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Email: %s", account.Email))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Generated: %s", time.Now().UTC().Format("2006-01-02 15:04 MST")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(32, 7, "Date", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, "Type", "1", 0, "", false, 0, "")
	pdf.CellFormat(28, 7, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(24, 7, "Status", "1", 0, "", false, 0, "")
	pdf.CellFormat(76, 7, "Reference", "1", 1, "", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, txn := range txns {
		pdf.CellFormat(32, 7, txn.CreatedAt.Format("2006-01-02"), "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, txn.Type, "1", 0, "", false, 0, "")
		pdf.CellFormat(28, 7, fmt.Sprintf("%.2f", txn.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 7, txn.Status, "1", 0, "", false, 0, "")
		pdf.CellFormat(76, 7, txn.Reference, "1", 1, "", false, 0, "")
	}
	if len(txns) == 0 {
		pdf.CellFormat(190, 7, "No transactions recorded", "1", 1, "C", false, 0, "")
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="statement.pdf"`)
	if err := pdf.Output(w); err != nil {
		api.Fail(w, http.StatusInternalServerError, "statement_error", "failed to render statement", requestID)
	}
}
