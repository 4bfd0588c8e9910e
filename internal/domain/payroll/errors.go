package payroll

import "errors"

var (
	ErrNoEntries      = errors.New("payroll upload has no entries")
	ErrInvalidMonth   = errors.New("month must be formatted YYYY-MM")
	ErrInvalidDays    = errors.New("days worked out of range")
	ErrNegativeSalary = errors.New("gross salary must not be negative")
	ErrDuplicateCode  = errors.New("duplicate employee code in upload")
	ErrRecordNotFound = errors.New("payroll record not found")
)
