package advance

import (
	"fmt"
	"strings"
	"time"

	"ewa/internal/domain/core"
	"ewa/internal/domain/risk"
)

// CheckEligibility gates a new advance request. Checks run in a fixed
// order so a caller with several problems always sees the same one
// first: verification, then the advance limit, then earned wages.
func CheckEligibility(emp core.Employee, amount float64) error {
	if emp.Status != core.StatusApproved || emp.KYCStatus != core.KYCApproved {
		return ErrUnverified
	}
	if amount > emp.AdvanceLimit {
		return fmt.Errorf("%w: requested %.2f, limit %.2f", ErrLimitExceeded, amount, emp.AdvanceLimit)
	}
	if amount > emp.EarnedWages {
		return fmt.Errorf("%w: requested %.2f, earned %.2f", ErrInsufficientEarned, amount, emp.EarnedWages)
	}
	return nil
}

// CombinedScore averages the employee and employer risk scores.
// Either side without a score counts at the neutral value.
func CombinedScore(employee, employer *float64) float64 {
	empScore := risk.NeutralScore
	if employee != nil {
		empScore = *employee
	}
	erScore := risk.NeutralScore
	if employer != nil {
		erScore = *employer
	}
	return (empScore + erScore) / 2
}

// Quote prices an advance from the combined risk score. The fee
// percentage is fixed at request time and never reprices.
func Quote(amount, combinedScore float64) (feePercentage, feeAmount, netAmount float64) {
	feePercentage = risk.ApplicationFee(combinedScore)
	feeAmount = amount * feePercentage / 100
	netAmount = amount - feeAmount
	return feePercentage, feeAmount, netAmount
}

// DisbursementRef builds the reference written to the payment rail:
// EW-<timestamp>-<advance id prefix>.
func DisbursementRef(advanceID string, at time.Time) string {
	short := strings.ReplaceAll(advanceID, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("EW-%s-%s", at.UTC().Format("20060102150405"), short)
}
