package advance

const (
	// Advance lifecycle. Repaid is reserved for payroll-deduction
	// settlement; nothing transitions into it yet.
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusDisbursed = "disbursed"
	StatusRejected  = "rejected"
	StatusRepaid    = "repaid"

	MethodBankTransfer = "bank_transfer"
	MethodMobileMoney  = "mobile_money"

	// The request transaction is created pending and mirrors the
	// advance decision; disbursement gets its own completed entry.
	TxAdvanceRequest = "advance_request"
	TxDisbursement   = "disbursement"
	TxRepayment      = "repayment"

	TxStatusPending   = "pending"
	TxStatusApproved  = "approved"
	TxStatusRejected  = "rejected"
	TxStatusCompleted = "completed"

	FlagSuspicious = "suspicious"
	FlagFraud      = "fraud"
	FlagMispayment = "mispayment"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusDisbursed, StatusRejected, StatusRepaid:
		return true
	}
	return false
}

func ValidMethod(method string) bool {
	return method == MethodBankTransfer || method == MethodMobileMoney
}

func ValidFlagType(flagType string) bool {
	switch flagType {
	case FlagSuspicious, FlagFraud, FlagMispayment:
		return true
	}
	return false
}
