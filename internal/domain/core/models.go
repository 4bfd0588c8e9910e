package core

import "time"

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusSuspended = "suspended"

	KYCPending   = "pending"
	KYCSubmitted = "submitted"
	KYCApproved  = "approved"
	KYCRejected  = "rejected"
)

type Employee struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"userId"`
	EmployerID          string     `json:"employerId,omitempty"`
	EmployerName        string     `json:"employerName,omitempty"`
	EmployeeCode        string     `json:"employeeCode"`
	NationalID          string     `json:"nationalId,omitempty"`
	IDType              string     `json:"idType,omitempty"`
	Nationality         string     `json:"nationality,omitempty"`
	DateOfBirth         string     `json:"dateOfBirth,omitempty"`
	EmploymentType      string     `json:"employmentType,omitempty"`
	JobTitle            string     `json:"jobTitle,omitempty"`
	MonthlySalary       float64    `json:"monthlySalary"`
	BankName            string     `json:"bankName,omitempty"`
	BankAccount         string     `json:"bankAccount,omitempty"`
	MobileMoneyProvider string     `json:"mobileMoneyProvider,omitempty"`
	MobileMoneyNumber   string     `json:"mobileMoneyNumber,omitempty"`
	Country             string     `json:"country,omitempty"`
	TaxID               string     `json:"taxId,omitempty"`
	AddressLine1        string     `json:"addressLine1,omitempty"`
	AddressLine2        string     `json:"addressLine2,omitempty"`
	City                string     `json:"city,omitempty"`
	PostalCode          string     `json:"postalCode,omitempty"`
	Department          string     `json:"department,omitempty"`
	StartDate           string     `json:"startDate,omitempty"`
	Status              string     `json:"status"`
	KYCStatus           string     `json:"kycStatus"`
	KYCStep             int        `json:"kycStep"`
	RiskScore           *float64   `json:"riskScore,omitempty"`
	RiskRating          string     `json:"riskRating,omitempty"`
	EarnedWages         float64    `json:"earnedWages"`
	AdvanceLimit        float64    `json:"advanceLimit"`
	LastPayrollUpdate   *time.Time `json:"lastPayrollUpdate,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
}

type Employer struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	CompanyName        string    `json:"companyName"`
	RegistrationNumber string    `json:"registrationNumber,omitempty"`
	TaxID              string    `json:"taxId,omitempty"`
	Country            string    `json:"country,omitempty"`
	Address            string    `json:"address,omitempty"`
	EmployeeCount      int       `json:"employeeCount"`
	Industry           string    `json:"industry,omitempty"`
	PayrollCycle       string    `json:"payrollCycle,omitempty"`
	ContactPerson      string    `json:"contactPerson,omitempty"`
	ContactEmail       string    `json:"contactEmail,omitempty"`
	ContactPhone       string    `json:"contactPhone,omitempty"`
	Status             string    `json:"status"`
	RiskScore          *float64  `json:"riskScore,omitempty"`
	RiskRating         string    `json:"riskRating,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

type EmployeeInput struct {
	EmployerID          string  `json:"employerId"`
	EmployeeCode        string  `json:"employeeCode"`
	NationalID          string  `json:"nationalId"`
	IDType              string  `json:"idType"`
	Nationality         string  `json:"nationality"`
	DateOfBirth         string  `json:"dateOfBirth"`
	EmploymentType      string  `json:"employmentType"`
	JobTitle            string  `json:"jobTitle"`
	MonthlySalary       float64 `json:"monthlySalary"`
	BankName            string  `json:"bankName"`
	BankAccount         string  `json:"bankAccount"`
	MobileMoneyProvider string  `json:"mobileMoneyProvider"`
	MobileMoneyNumber   string  `json:"mobileMoneyNumber"`
	Country             string  `json:"country"`
	TaxID               string  `json:"taxId"`
	AddressLine1        string  `json:"addressLine1"`
	AddressLine2        string  `json:"addressLine2"`
	City                string  `json:"city"`
	PostalCode          string  `json:"postalCode"`
	Department          string  `json:"department"`
	StartDate           string  `json:"startDate"`
}

type EmployerInput struct {
	CompanyName        string `json:"companyName"`
	RegistrationNumber string `json:"registrationNumber"`
	TaxID              string `json:"taxId"`
	Country            string `json:"country"`
	Address            string `json:"address"`
	EmployeeCount      int    `json:"employeeCount"`
	Industry           string `json:"industry"`
	PayrollCycle       string `json:"payrollCycle"`
	ContactPerson      string `json:"contactPerson"`
	ContactEmail       string `json:"contactEmail"`
	ContactPhone       string `json:"contactPhone"`
}

type EmployeeFilter struct {
	EmployerID string
	Status     string
	KYCStatus  string
}
