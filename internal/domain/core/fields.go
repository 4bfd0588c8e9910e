package core

import (
	"fmt"
	"sort"

	"ewa/internal/domain/auth"
)

// Patchable columns per entity. Partial updates are restricted to this
// allow-list; an unknown key fails the whole patch with ErrUnknownField.
var employeePatchColumns = map[string]string{
	"bank_name":             "bank_name",
	"bank_account":          "bank_account",
	"mobile_money_provider": "mobile_money_provider",
	"mobile_money_number":   "mobile_money_number",
	"address_line1":         "address_line1",
	"address_line2":         "address_line2",
	"city":                  "city",
	"postal_code":           "postal_code",
	"department":            "department",
	"job_title":             "job_title",
	"monthly_salary":        "monthly_salary",
	"employer_id":           "employer_id",
	"employee_code":         "employee_code",
}

var employerPatchColumns = map[string]string{
	"company_name":   "company_name",
	"address":        "address",
	"employee_count": "employee_count",
	"industry":       "industry",
	"payroll_cycle":  "payroll_cycle",
	"contact_person": "contact_person",
	"contact_email":  "contact_email",
	"contact_phone":  "contact_phone",
}

func buildPatch(table string, columns map[string]string, fields map[string]any) (string, []any, error) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if _, ok := columns[key]; !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownField, key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	query := "UPDATE " + table + " SET "
	args := make([]any, 0, len(keys)+1)
	for i, key := range keys {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", columns[key], i+1)
		args = append(args, fields[key])
	}
	query += fmt.Sprintf(" WHERE id = $%d", len(keys)+1)
	return query, args, nil
}

// FilterEmployee redacts sensitive identity and payment fields for
// viewers other than the owning employee and admins.
func FilterEmployee(emp *Employee, viewer auth.UserContext, isSelf bool) {
	if viewer.RoleName == auth.RoleAdmin {
		return
	}
	if viewer.RoleName == auth.RoleEmployee && isSelf {
		return
	}

	emp.NationalID = ""
	emp.BankAccount = ""
	emp.MobileMoneyNumber = ""
	emp.DateOfBirth = ""
}
