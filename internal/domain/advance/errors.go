package advance

import "errors"

var (
	ErrNotFound            = errors.New("advance not found")
	ErrUnverified          = errors.New("employee is not verified")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidMethod       = errors.New("unknown disbursement method")
	ErrLimitExceeded       = errors.New("amount exceeds advance limit")
	ErrInsufficientEarned  = errors.New("amount exceeds earned wages")
	ErrAlreadyProcessed    = errors.New("advance already processed")
	ErrNotApproved         = errors.New("advance is not approved")
	ErrNotFoundOrProcessed = errors.New("advance not found or already processed")
	ErrInvalidFlagType     = errors.New("unknown flag type")
)
