package payroll

// Wage accrual uses a flat 30-day month regardless of calendar length,
// so a full month of work always accrues exactly the gross salary.
const accrualDaysPerMonth = 30

// advanceableShare caps how much of earned wages can be taken as
// advances.
const advanceableShare = 0.5

// Accrual is the earned-wage position computed from one payroll entry.
type Accrual struct {
	DailyRate    float64 `json:"daily_rate"`
	EarnedWages  float64 `json:"earned_wages"`
	AdvanceLimit float64 `json:"advance_limit"`
}

// Accrue computes the earned-wage position for days worked against a
// gross monthly salary. The result replaces the employee's previous
// position outright; uploads are snapshots, not deltas.
func Accrue(grossSalary float64, daysWorked int) Accrual {
	daily := grossSalary / accrualDaysPerMonth
	earned := daily * float64(daysWorked)
	return Accrual{
		DailyRate:    daily,
		EarnedWages:  earned,
		AdvanceLimit: earned * advanceableShare,
	}
}

// SeedLimit is the advance limit granted before any payroll upload:
// half the stated monthly salary, with zero earned wages.
func SeedLimit(monthlySalary float64) float64 {
	return monthlySalary * advanceableShare
}
