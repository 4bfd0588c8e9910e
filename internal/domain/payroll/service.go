package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ewa/internal/domain/core"
)

type Service struct {
	Store  StoreAPI
	Logger *slog.Logger
}

func NewService(store StoreAPI, logger *slog.Logger) *Service {
	return &Service{Store: store, Logger: logger}
}

func validateUpload(upload Upload) error {
	if len(upload.Entries) == 0 {
		return ErrNoEntries
	}
	if _, err := time.Parse("2006-01", upload.Month); err != nil {
		return ErrInvalidMonth
	}
	seen := map[string]bool{}
	for _, entry := range upload.Entries {
		// No upper bound: a month can legitimately report more than
		// 30 worked days under the fixed /30 daily-rate convention.
		if entry.DaysWorked < 0 {
			return fmt.Errorf("%w: %s has %d days", ErrInvalidDays, entry.EmployeeCode, entry.DaysWorked)
		}
		if entry.GrossSalary < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeSalary, entry.EmployeeCode)
		}
		if seen[entry.EmployeeCode] {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, entry.EmployeeCode)
		}
		seen[entry.EmployeeCode] = true
	}
	return nil
}

// ProcessUpload applies an employer's payroll snapshot. Each entry is
// matched by employee code within the employer's roster; entries with
// no matching employee are skipped and reported, never an error. A
// matched entry overwrites the employee's earned-wage position.
func (s *Service) ProcessUpload(ctx context.Context, employerID string, upload Upload) (Result, error) {
	if err := validateUpload(upload); err != nil {
		return Result{}, err
	}

	roster, err := s.Store.EmployeesByEmployer(ctx, employerID)
	if err != nil {
		return Result{}, err
	}
	byCode := make(map[string]core.Employee, len(roster))
	for _, emp := range roster {
		byCode[emp.EmployeeCode] = emp
	}

	now := time.Now().UTC()
	result := Result{RecordID: uuid.NewString()}
	for _, entry := range upload.Entries {
		emp, ok := byCode[entry.EmployeeCode]
		if !ok {
			result.SkippedCodes = append(result.SkippedCodes, entry.EmployeeCode)
			continue
		}
		gross := entry.GrossSalary
		if gross == 0 {
			gross = emp.MonthlySalary
		}
		acc := Accrue(gross, entry.DaysWorked)
		if err := s.Store.ApplyAccrual(ctx, emp.ID, acc, now); err != nil {
			return Result{}, err
		}
		result.ProcessedCount++
		result.Updates = append(result.Updates, EntryUpdate{
			EmployeeCode: entry.EmployeeCode,
			EmployeeID:   emp.ID,
			GrossSalary:  gross,
			DaysWorked:   entry.DaysWorked,
			Accrual:      acc,
		})
	}

	rec := Record{
		ID:             result.RecordID,
		EmployerID:     employerID,
		Month:          upload.Month,
		Entries:        upload.Entries,
		ProcessedCount: result.ProcessedCount,
		UploadedAt:     now,
	}
	if err := s.Store.InsertRecord(ctx, rec); err != nil {
		return Result{}, err
	}

	s.Logger.Info("payroll upload processed",
		slog.String("employer_id", employerID),
		slog.String("month", upload.Month),
		slog.Int("processed", result.ProcessedCount),
		slog.Int("skipped", len(result.SkippedCodes)))
	return result, nil
}

func (s *Service) History(ctx context.Context, employerID string, limit int) ([]Record, error) {
	return s.Store.RecordsByEmployer(ctx, employerID, limit)
}
