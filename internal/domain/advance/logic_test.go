package advance

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"ewa/internal/domain/core"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func verifiedEmployee() core.Employee {
	return core.Employee{
		ID:           "e1",
		Status:       core.StatusApproved,
		KYCStatus:    core.KYCApproved,
		EarnedWages:  40000,
		AdvanceLimit: 20000,
	}
}

func TestCheckEligibility(t *testing.T) {
	emp := verifiedEmployee()
	if err := CheckEligibility(emp, 15000); err != nil {
		t.Fatalf("eligible request rejected: %v", err)
	}
	if err := CheckEligibility(emp, 20000); err != nil {
		t.Fatalf("request at limit rejected: %v", err)
	}
}

func TestCheckEligibilityOrder(t *testing.T) {
	// An unverified employee over every threshold still sees the
	// verification error first.
	emp := verifiedEmployee()
	emp.KYCStatus = core.KYCSubmitted
	if err := CheckEligibility(emp, 999999); !errors.Is(err, ErrUnverified) {
		t.Fatalf("err = %v, want unverified", err)
	}

	emp = verifiedEmployee()
	emp.Status = core.StatusPending
	if err := CheckEligibility(emp, 100); !errors.Is(err, ErrUnverified) {
		t.Fatalf("pending profile: err = %v, want unverified", err)
	}

	// Over both the limit and earned wages: limit wins.
	emp = verifiedEmployee()
	if err := CheckEligibility(emp, 50000); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("err = %v, want limit exceeded", err)
	}

	// Under the limit but over earned wages. Possible when earned
	// wages were drawn down after the limit was set.
	emp = verifiedEmployee()
	emp.EarnedWages = 10000
	if err := CheckEligibility(emp, 15000); !errors.Is(err, ErrInsufficientEarned) {
		t.Fatalf("err = %v, want insufficient earned", err)
	}
}

func TestCombinedScore(t *testing.T) {
	score := func(v float64) *float64 { return &v }
	cases := []struct {
		employee, employer *float64
		want               float64
	}{
		{nil, nil, 3.0},
		{score(5), nil, 4.0},
		{nil, score(1), 2.0},
		{score(4), score(2), 3.0},
	}
	for _, tc := range cases {
		if got := CombinedScore(tc.employee, tc.employer); !almostEqual(got, tc.want) {
			t.Fatalf("CombinedScore = %v, want %v", got, tc.want)
		}
	}
}

func TestQuote(t *testing.T) {
	// Neutral combined score prices at 4.7%.
	feePct, feeAmt, net := Quote(10000, 3.0)
	if !almostEqual(feePct, 4.7) || !almostEqual(feeAmt, 470) || !almostEqual(net, 9530) {
		t.Fatalf("Quote = %v/%v/%v", feePct, feeAmt, net)
	}
	// Best score prices at the 3.5% floor.
	feePct, feeAmt, net = Quote(10000, 5.0)
	if !almostEqual(feePct, 3.5) || !almostEqual(feeAmt, 350) || !almostEqual(net, 9650) {
		t.Fatalf("Quote = %v/%v/%v", feePct, feeAmt, net)
	}
}

func TestDisbursementRef(t *testing.T) {
	at := time.Date(2026, 8, 31, 14, 5, 9, 0, time.UTC)
	ref := DisbursementRef("a1b2c3d4-e5f6-7890-abcd-ef0123456789", at)
	if ref != "EW-20260831140509-a1b2c3d4" {
		t.Fatalf("ref = %s", ref)
	}
	if !strings.HasPrefix(DisbursementRef("short", at), "EW-20260831140509-") {
		t.Fatalf("short id ref = %s", DisbursementRef("short", at))
	}
}

func TestValidators(t *testing.T) {
	for _, status := range []string{StatusPending, StatusApproved, StatusDisbursed, StatusRejected, StatusRepaid} {
		if !ValidStatus(status) {
			t.Fatalf("ValidStatus(%s) = false", status)
		}
	}
	if ValidStatus("active") {
		t.Fatal("ValidStatus accepted unknown status")
	}
	if !ValidMethod(MethodBankTransfer) || !ValidMethod(MethodMobileMoney) || ValidMethod("cash") {
		t.Fatal("ValidMethod mismatch")
	}
	if !ValidFlagType(FlagFraud) || ValidFlagType("odd") {
		t.Fatal("ValidFlagType mismatch")
	}
}
