package payroll

import (
	"context"
	"time"

	"ewa/internal/domain/core"
)

type StoreAPI interface {
	EmployeesByEmployer(ctx context.Context, employerID string) ([]core.Employee, error)
	ApplyAccrual(ctx context.Context, employeeID string, acc Accrual, at time.Time) error
	InsertRecord(ctx context.Context, rec Record) error
	RecordsByEmployer(ctx context.Context, employerID string, limit int) ([]Record, error)
}
