package payroll

import "time"

// Entry is one row of an employer payroll upload.
type Entry struct {
	EmployeeCode string  `json:"employee_code"`
	GrossSalary  float64 `json:"gross_salary,omitempty"`
	DaysWorked   int     `json:"days_worked"`
}

type Upload struct {
	Month   string  `json:"month"`
	Entries []Entry `json:"entries"`
}

// Record is a persisted payroll upload.
type Record struct {
	ID             string    `json:"id"`
	EmployerID     string    `json:"employer_id"`
	Month          string    `json:"month"`
	Entries        []Entry   `json:"entries"`
	ProcessedCount int       `json:"processed_count"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

// Result reports what an upload did, entry by entry.
type Result struct {
	RecordID       string        `json:"record_id"`
	ProcessedCount int           `json:"processed_count"`
	SkippedCodes   []string      `json:"skipped_codes,omitempty"`
	Updates        []EntryUpdate `json:"updates"`
}

type EntryUpdate struct {
	EmployeeCode string  `json:"employee_code"`
	EmployeeID   string  `json:"employee_id"`
	GrossSalary  float64 `json:"gross_salary"`
	DaysWorked   int     `json:"days_worked"`
	Accrual
}
