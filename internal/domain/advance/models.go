package advance

import "time"

type Advance struct {
	ID                    string            `json:"id"`
	EmployeeID            string            `json:"employeeId"`
	EmployeeName          string            `json:"employeeName,omitempty"`
	EmployerID            string            `json:"employerId,omitempty"`
	EmployerName          string            `json:"employerName,omitempty"`
	Amount                float64           `json:"amount"`
	FeePercentage         float64           `json:"feePercentage"`
	FeeAmount             float64           `json:"feeAmount"`
	NetAmount             float64           `json:"netAmount"`
	DisbursementMethod    string            `json:"disbursementMethod"`
	DisbursementDetails   map[string]string `json:"disbursementDetails,omitempty"`
	Status                string            `json:"status"`
	Reason                string            `json:"reason,omitempty"`
	RejectionReason       string            `json:"rejectionReason,omitempty"`
	DisbursementReference string            `json:"disbursementReference,omitempty"`
	CreatedAt             time.Time         `json:"createdAt"`
	ProcessedAt           *time.Time        `json:"processedAt,omitempty"`
	DisbursedAt           *time.Time        `json:"disbursedAt,omitempty"`
}

type Transaction struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Type      string         `json:"type"`
	Amount    float64        `json:"amount"`
	Reference string         `json:"reference"`
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type Flag struct {
	ID        string    `json:"id"`
	AdvanceID string    `json:"advanceId"`
	FlagType  string    `json:"flagType"`
	Notes     string    `json:"notes,omitempty"`
	FlaggedBy string    `json:"flaggedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateInput struct {
	Amount             float64 `json:"amount"`
	DisbursementMethod string  `json:"disbursementMethod"`
	Reason             string  `json:"reason"`
}

type Filter struct {
	EmployeeID string
	EmployerID string
	Status     string
}
