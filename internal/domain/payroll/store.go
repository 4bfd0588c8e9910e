package payroll

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"ewa/internal/domain/core"
)

type Store struct {
	DB   *pgxpool.Pool
	Core *core.Store
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db, Core: core.NewStore(db)}
}

func (s *Store) EmployeesByEmployer(ctx context.Context, employerID string) ([]core.Employee, error) {
	return s.Core.ListEmployees(ctx, core.EmployeeFilter{EmployerID: employerID})
}

func (s *Store) ApplyAccrual(ctx context.Context, employeeID string, acc Accrual, at time.Time) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE employees
		SET earned_wages = $1, advance_limit = $2, last_payroll_update = $3
		WHERE id = $4`,
		acc.EarnedWages, acc.AdvanceLimit, at, employeeID)
	if err != nil {
		return fmt.Errorf("apply accrual: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) InsertRecord(ctx context.Context, rec Record) error {
	entries, err := json.Marshal(rec.Entries)
	if err != nil {
		return fmt.Errorf("encode payroll entries: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO payroll_records (id, employer_id, month, entries, processed_count, uploaded_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		rec.ID, rec.EmployerID, rec.Month, entries, rec.ProcessedCount, rec.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert payroll record: %w", err)
	}
	return nil
}

func (s *Store) RecordsByEmployer(ctx context.Context, employerID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, employer_id, month, entries, processed_count, uploaded_at
		FROM payroll_records
		WHERE employer_id = $1
		ORDER BY uploaded_at DESC
		LIMIT $2`, employerID, limit)
	if err != nil {
		return nil, fmt.Errorf("payroll records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var entries []byte
		if err := rows.Scan(&rec.ID, &rec.EmployerID, &rec.Month, &entries, &rec.ProcessedCount, &rec.UploadedAt); err != nil {
			return nil, fmt.Errorf("payroll records: %w", err)
		}
		if err := json.Unmarshal(entries, &rec.Entries); err != nil {
			return nil, fmt.Errorf("decode payroll entries: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
