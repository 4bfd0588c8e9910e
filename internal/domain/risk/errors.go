package risk

import "errors"

var (
	ErrRecordNotFound   = errors.New("risk record not found")
	ErrScoreOutOfRange  = errors.New("score out of range")
	ErrUnknownEntity    = errors.New("unknown entity type")
	ErrReasonRequired   = errors.New("override reason required")
	ErrNoScoresSupplied = errors.New("no scores supplied")
)
