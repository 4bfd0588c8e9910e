package core

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const employerColumns = `
  id, user_id, company_name, registration_number, tax_id, country, address,
  employee_count, industry, payroll_cycle, contact_person, contact_email,
  contact_phone, status, risk_score, risk_rating, created_at
`

func scanEmployer(row pgx.Row) (Employer, error) {
	var er Employer
	err := row.Scan(
		&er.ID, &er.UserID, &er.CompanyName, &er.RegistrationNumber, &er.TaxID, &er.Country, &er.Address,
		&er.EmployeeCount, &er.Industry, &er.PayrollCycle, &er.ContactPerson, &er.ContactEmail,
		&er.ContactPhone, &er.Status, &er.RiskScore, &er.RiskRating, &er.CreatedAt,
	)
	return er, err
}

func (s *Store) CreateEmployer(ctx context.Context, userID string, input EmployerInput) (Employer, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employers WHERE user_id = $1", userID).Scan(&count); err != nil {
		return Employer{}, err
	}
	if count > 0 {
		return Employer{}, ErrProfileExists
	}

	id := uuid.NewString()
	_, err := s.DB.Exec(ctx, `
    INSERT INTO employers (
      id, user_id, company_name, registration_number, tax_id, country, address,
      employee_count, industry, payroll_cycle, contact_person, contact_email, contact_phone
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
  `, id, userID, input.CompanyName, input.RegistrationNumber, input.TaxID, input.Country, input.Address,
		input.EmployeeCount, input.Industry, input.PayrollCycle, input.ContactPerson, input.ContactEmail, input.ContactPhone)
	if err != nil {
		return Employer{}, err
	}
	return s.EmployerByID(ctx, id)
}

func (s *Store) EmployerByID(ctx context.Context, id string) (Employer, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+employerColumns+" FROM employers WHERE id = $1", id)
	er, err := scanEmployer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employer{}, ErrEmployerNotFound
	}
	if err != nil {
		return Employer{}, err
	}
	return er, nil
}

func (s *Store) EmployerByUserID(ctx context.Context, userID string) (Employer, error) {
	row := s.DB.QueryRow(ctx, "SELECT "+employerColumns+" FROM employers WHERE user_id = $1", userID)
	er, err := scanEmployer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employer{}, ErrEmployerNotFound
	}
	if err != nil {
		return Employer{}, err
	}
	return er, nil
}

func (s *Store) ListEmployers(ctx context.Context, status string) ([]Employer, error) {
	query := "SELECT " + employerColumns + " FROM employers"
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employers []Employer
	for rows.Next() {
		er, err := scanEmployer(rows)
		if err != nil {
			return nil, err
		}
		employers = append(employers, er)
	}
	return employers, rows.Err()
}

func (s *Store) UpdateEmployerStatus(ctx context.Context, id, status string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employers SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployerNotFound
	}
	return nil
}

func (s *Store) PatchEmployer(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	query, args, err := buildPatch("employers", employerPatchColumns, fields)
	if err != nil {
		return err
	}
	args = append(args, id)
	tag, err := s.DB.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployerNotFound
	}
	return nil
}
