package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"ewa/internal/app/server"
	"ewa/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		Environment:        "test",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@test.local",
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
	}
}

// Migrations are loaded from a path relative to the module root.
func chdirModuleRoot(t *testing.T) {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate test file")
	}
	root := filepath.Join(filepath.Dir(file), "..", "..", "..", "..")
	if err := os.Chdir(root); err != nil {
		t.Fatalf("chdir to module root failed: %v", err)
	}
}

func TestAdvanceLifecycleJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	chdirModuleRoot(t)

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	// Reference data is served without a token.
	countries := getJSONList(t, client, ts.URL+"/api/v1/reference/countries", "")
	if len(countries) != 4 {
		t.Fatalf("expected 4 operating countries, got %d", len(countries))
	}

	nonce := time.Now().UnixNano()
	employerEmail := fmt.Sprintf("employer-%d@example.com", nonce)
	employeeEmail := fmt.Sprintf("employee-%d@example.com", nonce)

	registerUser(t, client, ts.URL, employerEmail, "Acme Payroll Ops", "employer")
	employerToken := login(t, client, ts.URL, employerEmail, "Password123!")
	employerID := createEmployer(t, client, ts.URL, employerToken)
	postJSON(t, client, ts.URL+"/api/v1/employers/"+employerID+"/status", adminToken, map[string]any{"status": "approved"})

	registerUser(t, client, ts.URL, employeeEmail, "Ada Mensah", "employee")
	employeeToken := login(t, client, ts.URL, employeeEmail, "Password123!")
	employeeCode := fmt.Sprintf("EMP-%d", nonce)

	// Enrollment picks the employer from the approved listing.
	approvedEmployers := getJSONList(t, client, ts.URL+"/api/v1/employers/approved", employeeToken)
	found := false
	for _, employer := range approvedEmployers {
		if id, _ := employer["id"].(string); id == employerID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected employer %s in approved listing", employerID)
	}

	employeeID := createEmployee(t, client, ts.URL, employeeToken, employerID, employeeCode)

	// Verification: profile approval and KYC approval are both
	// required before an advance can be requested.
	postJSON(t, client, ts.URL+"/api/v1/employees/kyc/submit", employeeToken, map[string]any{"step": 3})
	postJSON(t, client, ts.URL+"/api/v1/employees/"+employeeID+"/status", adminToken, map[string]any{"status": "approved"})
	postJSON(t, client, ts.URL+"/api/v1/employees/"+employeeID+"/kyc/approve", adminToken, nil)

	// 20 days at a 90000 monthly salary accrues 60000 earned and a
	// 30000 advance limit.
	uploadPayroll(t, client, ts.URL, employerToken, employeeCode)
	me := getEmployeeMe(t, client, ts.URL, employeeToken)
	if !almost(me["earnedWages"], 60000) {
		t.Fatalf("expected 60000 earned wages after payroll, got %v", me["earnedWages"])
	}
	if !almost(me["advanceLimit"], 30000) {
		t.Fatalf("expected 30000 advance limit after payroll, got %v", me["advanceLimit"])
	}

	reviewEmployeeRisk(t, client, ts.URL, adminToken, employeeID)

	// Combined score (4.0 + neutral 3.0) / 2 = 3.5 prices the fee at
	// 4.4 percent.
	adv := requestAdvance(t, client, ts.URL, employeeToken, 10000)
	advanceID, _ := adv["id"].(string)
	if advanceID == "" {
		t.Fatal("expected advance id")
	}
	if status, _ := adv["status"].(string); status != "pending" {
		t.Fatalf("expected pending advance, got %s", status)
	}
	if !almost(adv["feePercentage"], 4.4) {
		t.Fatalf("expected 4.4 fee percentage, got %v", adv["feePercentage"])
	}
	if !almost(adv["feeAmount"], 440) {
		t.Fatalf("expected 440 fee amount, got %v", adv["feeAmount"])
	}
	if !almost(adv["netAmount"], 9560) {
		t.Fatalf("expected 9560 net amount, got %v", adv["netAmount"])
	}

	approved := postJSONMap(t, client, ts.URL+"/api/v1/advances/"+advanceID+"/approve", adminToken, nil)
	if status, _ := approved["status"].(string); status != "approved" {
		t.Fatalf("expected approved advance, got %s", status)
	}
	me = getEmployeeMe(t, client, ts.URL, employeeToken)
	if !almost(me["earnedWages"], 50000) {
		t.Fatalf("expected gross amount deducted on approval, got %v", me["earnedWages"])
	}

	disbursed := postJSONMap(t, client, ts.URL+"/api/v1/advances/"+advanceID+"/disburse", adminToken, nil)
	if status, _ := disbursed["status"].(string); status != "disbursed" {
		t.Fatalf("expected disbursed advance, got %s", status)
	}
	ref, _ := disbursed["disbursementReference"].(string)
	if !strings.HasPrefix(ref, "EW-") {
		t.Fatalf("expected EW- disbursement reference, got %q", ref)
	}

	txns := getJSONList(t, client, ts.URL+"/api/v1/transactions", employeeToken)
	if len(txns) != 2 {
		t.Fatalf("expected advance and disbursement transactions, got %d", len(txns))
	}

	notes := getJSONList(t, client, ts.URL+"/api/v1/notifications", employeeToken)
	if len(notes) == 0 {
		t.Fatal("expected lifecycle notifications")
	}

	// Requests above the advance limit are refused outright.
	resp := postJSONStatus(t, client, ts.URL+"/api/v1/advances", employeeToken, map[string]any{
		"amount":             40000,
		"disbursementMethod": "bank_transfer",
	}, http.StatusBadRequest)
	if resp.Error == nil {
		t.Fatal("expected error payload for over-limit request")
	}

	// Rejection keeps earned wages untouched and records the reason.
	second := requestAdvance(t, client, ts.URL, employeeToken, 5000)
	secondID, _ := second["id"].(string)
	rejected := postJSONMap(t, client, ts.URL+"/api/v1/advances/"+secondID+"/reject", adminToken, map[string]any{
		"reason": "duplicate request",
	})
	if status, _ := rejected["status"].(string); status != "rejected" {
		t.Fatalf("expected rejected advance, got %s", status)
	}
	if reason, _ := rejected["rejectionReason"].(string); reason != "duplicate request" {
		t.Fatalf("expected rejection reason recorded, got %q", reason)
	}
	me = getEmployeeMe(t, client, ts.URL, employeeToken)
	if !almost(me["earnedWages"], 50000) {
		t.Fatalf("expected rejection to leave earned wages untouched, got %v", me["earnedWages"])
	}

	getJSON(t, client, ts.URL+"/api/v1/dashboard", adminToken)
}

func TestEmployeeCannotApproveAdvances(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	chdirModuleRoot(t)

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	defer app.Close()

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	email := fmt.Sprintf("guard-%d@example.com", time.Now().UnixNano())
	registerUser(t, client, ts.URL, email, "Guard Check", "employee")
	token := login(t, client, ts.URL, email, "Password123!")

	postJSONStatus(t, client, ts.URL+"/api/v1/advances/any-id/approve", token, nil, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/metrics", token, http.StatusForbidden)

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
	getJSON(t, client, ts.URL+"/metrics", adminToken)
}

func almost(value any, want float64) bool {
	got, ok := value.(float64)
	return ok && math.Abs(got-want) < 1e-6
}

func registerUser(t *testing.T, client *http.Client, baseURL, email, fullName, role string) {
	t.Helper()
	postJSON(t, client, baseURL+"/api/v1/auth/register", "", map[string]any{
		"email":    email,
		"fullName": fullName,
		"role":     role,
		"password": "Password123!",
	})
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["access_token"].(string)
	if token == "" {
		t.Fatal("expected access token")
	}
	return token
}

func createEmployer(t *testing.T, client *http.Client, baseURL, token string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/employers", token, map[string]any{
		"companyName":   "Acme Distribution",
		"industry":      "retail",
		"country":       "GH",
		"employeeCount": 40,
		"payrollCycle":  "monthly",
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode employer response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected employer id")
	}
	return id
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token, employerID, employeeCode string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/employees", token, map[string]any{
		"employerId":     employerID,
		"employeeCode":   employeeCode,
		"employmentType": "full_time",
		"jobTitle":       "Field Agent",
		"monthlySalary":  90000,
		"bankName":       "Test Bank",
		"bankAccount":    "0011223344",
		"country":        "GH",
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode employee response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected employee id")
	}
	return id
}

func uploadPayroll(t *testing.T, client *http.Client, baseURL, employerToken, employeeCode string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/payroll/upload", employerToken, map[string]any{
		"month": "2026-08",
		"entries": []map[string]any{
			{"employee_code": employeeCode, "days_worked": 20},
		},
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode payroll response: %v", err)
	}
	if processed, _ := payload["processed_count"].(float64); processed != 1 {
		t.Fatalf("expected one processed payroll entry, got %v", payload["processed_count"])
	}
}

func reviewEmployeeRisk(t *testing.T, client *http.Client, baseURL, adminToken, employeeID string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/risk/employee/"+employeeID+"/review", adminToken, map[string]any{
		"scores": map[string]map[string]int{
			"legal_compliance": {"verification_status": 4, "tax_compliance": 4, "consent_data_rights": 4},
			"financial_health": {"account_verification": 4},
			"operational":      {"employment_status": 4, "employment_contract": 4, "recent_payslips": 4, "bank_statements": 4},
		},
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode risk review response: %v", err)
	}
	if !almost(payload["composite_score"], 4.0) {
		t.Fatalf("expected 4.0 composite score, got %v", payload["composite_score"])
	}
	if rating, _ := payload["rating"].(string); rating != "A" {
		t.Fatalf("expected rating A, got %s", rating)
	}
}

func requestAdvance(t *testing.T, client *http.Client, baseURL, employeeToken string, amount float64) map[string]any {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/advances", employeeToken, map[string]any{
		"amount":             amount,
		"disbursementMethod": "bank_transfer",
		"reason":             "rent",
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode advance response: %v", err)
	}
	return payload
}

func getEmployeeMe(t *testing.T, client *http.Client, baseURL, token string) map[string]any {
	t.Helper()
	resp := getJSON(t, client, baseURL+"/api/v1/employees/me", token)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode employee profile: %v", err)
	}
	return payload
}

func postJSONMap(t *testing.T, client *http.Client, url, token string, body any) map[string]any {
	t.Helper()
	resp := postJSON(t, client, url, token, body)
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode response from %s: %v", url, err)
	}
	return payload
}

func getJSONList(t *testing.T, client *http.Client, url, token string) []map[string]any {
	t.Helper()
	resp := getJSON(t, client, url, token)
	var payload []map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode list response from %s: %v", url, err)
	}
	return payload
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	env, status := doJSON(t, client, http.MethodPost, url, token, body)
	if status >= 400 {
		t.Fatalf("unexpected status %d from POST %s: %+v", status, url, env.Error)
	}
	return env
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) envelope {
	t.Helper()
	env, status := doJSON(t, client, http.MethodPost, url, token, body)
	if status != want {
		t.Fatalf("expected status %d from POST %s, got %d", want, url, status)
	}
	return env
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	env, status := doJSON(t, client, http.MethodGet, url, token, nil)
	if status >= 400 {
		t.Fatalf("unexpected status %d from GET %s: %+v", status, url, env.Error)
	}
	return env
}

func getJSONStatus(t *testing.T, client *http.Client, url, token string, want int) envelope {
	t.Helper()
	env, status := doJSON(t, client, http.MethodGet, url, token, nil)
	if status != want {
		t.Fatalf("expected status %d from GET %s, got %d", want, url, status)
	}
	return env
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) (envelope, int) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("failed to decode response from %s: %s", url, string(raw))
		}
	}
	return env, resp.StatusCode
}
