package core

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `
  e.id, e.user_id, COALESCE(e.employer_id, ''), COALESCE(er.company_name, ''),
  e.employee_code, e.national_id, e.id_type, e.nationality, e.date_of_birth,
  e.employment_type, e.job_title, e.monthly_salary,
  e.bank_name, e.bank_account, e.mobile_money_provider, e.mobile_money_number,
  e.country, e.tax_id, e.address_line1, e.address_line2, e.city, e.postal_code,
  e.department, e.start_date,
  e.status, e.kyc_status, e.kyc_step, e.risk_score, e.risk_rating,
  e.earned_wages, e.advance_limit, e.last_payroll_update, e.created_at
`

func scanEmployee(row pgx.Row) (Employee, error) {
	var emp Employee
	err := row.Scan(
		&emp.ID, &emp.UserID, &emp.EmployerID, &emp.EmployerName,
		&emp.EmployeeCode, &emp.NationalID, &emp.IDType, &emp.Nationality, &emp.DateOfBirth,
		&emp.EmploymentType, &emp.JobTitle, &emp.MonthlySalary,
		&emp.BankName, &emp.BankAccount, &emp.MobileMoneyProvider, &emp.MobileMoneyNumber,
		&emp.Country, &emp.TaxID, &emp.AddressLine1, &emp.AddressLine2, &emp.City, &emp.PostalCode,
		&emp.Department, &emp.StartDate,
		&emp.Status, &emp.KYCStatus, &emp.KYCStep, &emp.RiskScore, &emp.RiskRating,
		&emp.EarnedWages, &emp.AdvanceLimit, &emp.LastPayrollUpdate, &emp.CreatedAt,
	)
	return emp, err
}

func (s *Store) CreateEmployee(ctx context.Context, userID string, input EmployeeInput, advanceLimit float64) (Employee, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE user_id = $1", userID).Scan(&count); err != nil {
		return Employee{}, err
	}
	if count > 0 {
		return Employee{}, ErrProfileExists
	}

	code := strings.TrimSpace(input.EmployeeCode)
	if code == "" {
		code = "EMP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	}
	idType := input.IDType
	if idType == "" {
		idType = "national_id"
	}

	id := uuid.NewString()
	var employerID any
	if strings.TrimSpace(input.EmployerID) != "" {
		employerID = input.EmployerID
	}

	_, err := s.DB.Exec(ctx, `
    INSERT INTO employees (
      id, user_id, employer_id, employee_code, national_id, id_type, nationality,
      date_of_birth, employment_type, job_title, monthly_salary,
      bank_name, bank_account, mobile_money_provider, mobile_money_number,
      country, tax_id, address_line1, address_line2, city, postal_code,
      department, start_date, earned_wages, advance_limit
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,0,$24)
  `, id, userID, employerID, code, input.NationalID, idType, input.Nationality,
		input.DateOfBirth, input.EmploymentType, input.JobTitle, input.MonthlySalary,
		input.BankName, input.BankAccount, input.MobileMoneyProvider, input.MobileMoneyNumber,
		input.Country, input.TaxID, input.AddressLine1, input.AddressLine2, input.City, input.PostalCode,
		input.Department, input.StartDate, advanceLimit)
	if err != nil {
		return Employee{}, err
	}
	return s.EmployeeByID(ctx, id)
}

func (s *Store) EmployeeByID(ctx context.Context, id string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees e
    LEFT JOIN employers er ON e.employer_id = er.id
    WHERE e.id = $1
  `, id)
	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) EmployeeByUserID(ctx context.Context, userID string) (Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM employees e
    LEFT JOIN employers er ON e.employer_id = er.id
    WHERE e.user_id = $1
  `, userID)
	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, error) {
	query := `
    SELECT ` + employeeColumns + `
    FROM employees e
    LEFT JOIN employers er ON e.employer_id = er.id
    WHERE 1=1
  `
	args := []any{}
	if filter.EmployerID != "" {
		args = append(args, filter.EmployerID)
		query += " AND e.employer_id = $" + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += " AND e.status = $" + strconv.Itoa(len(args))
	}
	if filter.KYCStatus != "" {
		args = append(args, filter.KYCStatus)
		query += " AND e.kyc_status = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY e.created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Store) UpdateEmployeeStatus(ctx context.Context, id, status string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employees SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) UpdateEmployeeKYCStatus(ctx context.Context, id, kycStatus string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employees SET kyc_status = $1 WHERE id = $2", kycStatus, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) UpdateEmployeeKYCStep(ctx context.Context, userID string, step int) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employees SET kyc_step = $1 WHERE user_id = $2", step, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

// PatchEmployee applies an allow-listed partial update. Unknown keys
// fail the whole patch.
func (s *Store) PatchEmployee(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	query, args, err := buildPatch("employees", employeePatchColumns, fields)
	if err != nil {
		return err
	}
	args = append(args, id)
	tag, err := s.DB.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}
