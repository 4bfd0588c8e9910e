package advance

import (
	"context"
	"time"

	"ewa/internal/domain/core"
)

type StoreAPI interface {
	EmployeeByUserID(ctx context.Context, userID string) (core.Employee, error)
	EmployeeByID(ctx context.Context, id string) (core.Employee, error)
	EmployerByID(ctx context.Context, id string) (core.Employer, error)
	UserFullName(ctx context.Context, userID string) (string, error)

	Insert(ctx context.Context, adv Advance) error
	ByID(ctx context.Context, id string) (Advance, error)
	List(ctx context.Context, filter Filter) ([]Advance, error)

	// Approve atomically draws the advance amount down from the
	// employee's earned wages and flips the advance to approved.
	Approve(ctx context.Context, id string, at time.Time) (Advance, error)
	Disburse(ctx context.Context, id, reference string, at time.Time) (Advance, error)
	Reject(ctx context.Context, id, reason string, at time.Time) error

	InsertFlag(ctx context.Context, flag Flag) error
	FlagsByAdvance(ctx context.Context, advanceID string) ([]Flag, error)

	InsertTransaction(ctx context.Context, tx Transaction) error
	UpdateTransactionStatus(ctx context.Context, reference, status string) error
	TransactionsByUser(ctx context.Context, userID string, limit int) ([]Transaction, error)
}
