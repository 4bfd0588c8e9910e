package advance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
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

func (s *Store) EmployeeByUserID(ctx context.Context, userID string) (core.Employee, error) {
	return s.Core.EmployeeByUserID(ctx, userID)
}

func (s *Store) EmployeeByID(ctx context.Context, id string) (core.Employee, error) {
	return s.Core.EmployeeByID(ctx, id)
}

func (s *Store) EmployerByID(ctx context.Context, id string) (core.Employer, error) {
	return s.Core.EmployerByID(ctx, id)
}

func (s *Store) UserFullName(ctx context.Context, userID string) (string, error) {
	var name string
	err := s.DB.QueryRow(ctx, "SELECT full_name FROM users WHERE id = $1", userID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("user full name: %w", err)
	}
	return name, nil
}

const advanceColumns = `
  id, employee_id, employee_name, COALESCE(employer_id, ''), employer_name,
  amount, fee_percentage, fee_amount, net_amount,
  disbursement_method, disbursement_details,
  status, reason, rejection_reason, disbursement_reference,
  created_at, processed_at, disbursed_at
`

func scanAdvance(row pgx.Row) (Advance, error) {
	var adv Advance
	var details []byte
	err := row.Scan(
		&adv.ID, &adv.EmployeeID, &adv.EmployeeName, &adv.EmployerID, &adv.EmployerName,
		&adv.Amount, &adv.FeePercentage, &adv.FeeAmount, &adv.NetAmount,
		&adv.DisbursementMethod, &details,
		&adv.Status, &adv.Reason, &adv.RejectionReason, &adv.DisbursementReference,
		&adv.CreatedAt, &adv.ProcessedAt, &adv.DisbursedAt,
	)
	if err != nil {
		return Advance{}, err
	}
	if err := json.Unmarshal(details, &adv.DisbursementDetails); err != nil {
		return Advance{}, fmt.Errorf("decode disbursement details: %w", err)
	}
	return adv, nil
}

func (s *Store) Insert(ctx context.Context, adv Advance) error {
	details, err := json.Marshal(adv.DisbursementDetails)
	if err != nil {
		return fmt.Errorf("encode disbursement details: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO advances (id, employee_id, employee_name, employer_id, employer_name,
			amount, fee_percentage, fee_amount, net_amount,
			disbursement_method, disbursement_details, status, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		adv.ID, adv.EmployeeID, adv.EmployeeName, adv.EmployerID, adv.EmployerName,
		adv.Amount, adv.FeePercentage, adv.FeeAmount, adv.NetAmount,
		adv.DisbursementMethod, details, adv.Status, adv.Reason, adv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert advance: %w", err)
	}
	return nil
}

func (s *Store) ByID(ctx context.Context, id string) (Advance, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+advanceColumns+` FROM advances WHERE id = $1`, id)
	adv, err := scanAdvance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Advance{}, ErrNotFound
	}
	if err != nil {
		return Advance{}, fmt.Errorf("advance by id: %w", err)
	}
	return adv, nil
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Advance, error) {
	query := `SELECT ` + advanceColumns + ` FROM advances`
	var conds []string
	var args []any
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		conds = append(conds, "employee_id = $"+strconv.Itoa(len(args)))
	}
	if filter.EmployerID != "" {
		args = append(args, filter.EmployerID)
		conds = append(conds, "employer_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list advances: %w", err)
	}
	defer rows.Close()

	var advances []Advance
	for rows.Next() {
		adv, err := scanAdvance(rows)
		if err != nil {
			return nil, fmt.Errorf("list advances: %w", err)
		}
		advances = append(advances, adv)
	}
	return advances, rows.Err()
}

// Approve runs inside one transaction: the row lock on the advance
// serializes concurrent approvals, and the earned-wage decrement is
// guarded so a balance drained since the request was made fails the
// approval instead of going negative.
func (s *Store) Approve(ctx context.Context, id string, at time.Time) (Advance, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Advance{}, fmt.Errorf("approve advance: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+advanceColumns+` FROM advances WHERE id = $1 FOR UPDATE`, id)
	adv, err := scanAdvance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Advance{}, ErrNotFound
	}
	if err != nil {
		return Advance{}, fmt.Errorf("approve advance: %w", err)
	}
	if adv.Status != StatusPending {
		return Advance{}, ErrAlreadyProcessed
	}

	tag, err := tx.Exec(ctx, `
		UPDATE employees
		SET earned_wages = earned_wages - $1
		WHERE id = $2 AND earned_wages >= $1`,
		adv.Amount, adv.EmployeeID)
	if err != nil {
		return Advance{}, fmt.Errorf("draw down earned wages: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Advance{}, ErrInsufficientEarned
	}

	if _, err := tx.Exec(ctx, `
		UPDATE advances SET status = $1, processed_at = $2 WHERE id = $3`,
		StatusApproved, at, id); err != nil {
		return Advance{}, fmt.Errorf("approve advance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Advance{}, fmt.Errorf("approve advance: %w", err)
	}

	adv.Status = StatusApproved
	adv.ProcessedAt = &at
	return adv, nil
}

func (s *Store) Disburse(ctx context.Context, id, reference string, at time.Time) (Advance, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Advance{}, fmt.Errorf("disburse advance: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+advanceColumns+` FROM advances WHERE id = $1 FOR UPDATE`, id)
	adv, err := scanAdvance(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Advance{}, ErrNotFound
	}
	if err != nil {
		return Advance{}, fmt.Errorf("disburse advance: %w", err)
	}
	if adv.Status != StatusApproved {
		return Advance{}, ErrNotApproved
	}

	if _, err := tx.Exec(ctx, `
		UPDATE advances SET status = $1, disbursement_reference = $2, disbursed_at = $3
		WHERE id = $4`,
		StatusDisbursed, reference, at, id); err != nil {
		return Advance{}, fmt.Errorf("disburse advance: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Advance{}, fmt.Errorf("disburse advance: %w", err)
	}

	adv.Status = StatusDisbursed
	adv.DisbursementReference = reference
	adv.DisbursedAt = &at
	return adv, nil
}

// Reject is a single conditional update; losing the race to another
// admin action reports the same way as a missing advance.
func (s *Store) Reject(ctx context.Context, id, reason string, at time.Time) error {
	tag, err := s.DB.Exec(ctx, `
		UPDATE advances SET status = $1, rejection_reason = $2, processed_at = $3
		WHERE id = $4 AND status = $5`,
		StatusRejected, reason, at, id, StatusPending)
	if err != nil {
		return fmt.Errorf("reject advance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFoundOrProcessed
	}
	return nil
}

func (s *Store) InsertFlag(ctx context.Context, flag Flag) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO advance_flags (id, advance_id, flag_type, notes, flagged_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		flag.ID, flag.AdvanceID, flag.FlagType, flag.Notes, flag.FlaggedBy, flag.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert advance flag: %w", err)
	}
	return nil
}

func (s *Store) FlagsByAdvance(ctx context.Context, advanceID string) ([]Flag, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, advance_id, flag_type, notes, flagged_by, created_at
		FROM advance_flags
		WHERE advance_id = $1
		ORDER BY created_at DESC`, advanceID)
	if err != nil {
		return nil, fmt.Errorf("advance flags: %w", err)
	}
	defer rows.Close()

	var flags []Flag
	for rows.Next() {
		var f Flag
		if err := rows.Scan(&f.ID, &f.AdvanceID, &f.FlagType, &f.Notes, &f.FlaggedBy, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("advance flags: %w", err)
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

func (s *Store) InsertTransaction(ctx context.Context, txn Transaction) error {
	metadata, err := json.Marshal(txn.Metadata)
	if err != nil {
		return fmt.Errorf("encode transaction metadata: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, reference, status, metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		txn.ID, txn.UserID, txn.Type, txn.Amount, txn.Reference, txn.Status, metadata, txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// UpdateTransactionStatus moves every transaction carrying the given
// reference to the new status. Matching zero rows is not an error.
func (s *Store) UpdateTransactionStatus(ctx context.Context, reference, status string) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE transactions SET status = $1 WHERE reference = $2`, status, reference)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	return nil
}

func (s *Store) TransactionsByUser(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, user_id, type, amount, reference, status, metadata, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("transactions by user: %w", err)
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var txn Transaction
		var metadata []byte
		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.Type, &txn.Amount, &txn.Reference, &txn.Status, &metadata, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("transactions by user: %w", err)
		}
		if err := json.Unmarshal(metadata, &txn.Metadata); err != nil {
			return nil, fmt.Errorf("decode transaction metadata: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
