package referencehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"ewa/internal/domain/advance"
	"ewa/internal/domain/risk"
	"ewa/internal/platform/requestctx"
	"ewa/internal/transport/http/api"
)

// Reference data is public: the registration and request forms need it
// before a token exists.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/reference/countries", h.HandleCountries)
	r.Get("/reference/industries", h.HandleIndustries)
	r.Get("/reference/disbursement-methods", h.HandleDisbursementMethods)
	r.Get("/reference/flag-types", h.HandleFlagTypes)
}

// Country carries the operating markets with their currency and the
// mobile money rails available for disbursement.
type Country struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Currency    string   `json:"currency"`
	MobileMoney []string `json:"mobileMoney"`
}

func Countries() []Country {
	return []Country{
		{Code: "KE", Name: "Kenya", Currency: "KES", MobileMoney: []string{"M-PESA", "Airtel Money"}},
		{Code: "UG", Name: "Uganda", Currency: "UGX", MobileMoney: []string{"MTN Mobile Money", "Airtel Money"}},
		{Code: "TZ", Name: "Tanzania", Currency: "TZS", MobileMoney: []string{"M-PESA", "Tigo Pesa", "Airtel Money"}},
		{Code: "RW", Name: "Rwanda", Currency: "RWF", MobileMoney: []string{"MTN Mobile Money", "Airtel Money"}},
	}
}

func (h *Handler) HandleCountries(w http.ResponseWriter, r *http.Request) {
	api.Success(w, Countries(), requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleIndustries(w http.ResponseWriter, r *http.Request) {
	api.Success(w, risk.IndustryRisk(), requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleDisbursementMethods(w http.ResponseWriter, r *http.Request) {
	api.Success(w, []string{advance.MethodBankTransfer, advance.MethodMobileMoney}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) HandleFlagTypes(w http.ResponseWriter, r *http.Request) {
	api.Success(w, []string{advance.FlagSuspicious, advance.FlagFraud, advance.FlagMispayment}, requestctx.GetRequestID(r.Context()))
}
