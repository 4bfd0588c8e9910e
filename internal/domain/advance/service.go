package advance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ewa/internal/domain/core"
	"ewa/internal/platform/metrics"
)

// Notifier receives advance lifecycle events for delivery to the
// employee. A nil Notifier disables delivery.
type Notifier interface {
	AdvanceEvent(ctx context.Context, userID, event string, adv Advance)
}

type Service struct {
	Store    StoreAPI
	Metrics  *metrics.Collector
	Notifier Notifier
	Logger   *slog.Logger
}

func NewService(store StoreAPI, collector *metrics.Collector, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{Store: store, Metrics: collector, Notifier: notifier, Logger: logger}
}

// Create opens an advance request for the employee behind userID.
// Eligibility and pricing both read the state as of this call; the
// earned-wage balance is only committed against at approval time.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (Advance, error) {
	if input.Amount <= 0 {
		return Advance{}, ErrInvalidAmount
	}
	if !ValidMethod(input.DisbursementMethod) {
		return Advance{}, ErrInvalidMethod
	}

	emp, err := s.Store.EmployeeByUserID(ctx, userID)
	if err != nil {
		return Advance{}, err
	}
	if err := CheckEligibility(emp, input.Amount); err != nil {
		return Advance{}, err
	}

	employeeName, err := s.Store.UserFullName(ctx, emp.UserID)
	if err != nil {
		return Advance{}, err
	}

	var employerScore *float64
	employerName := emp.EmployerName
	if emp.EmployerID != "" {
		employer, err := s.Store.EmployerByID(ctx, emp.EmployerID)
		if err != nil && !errors.Is(err, core.ErrEmployerNotFound) {
			return Advance{}, err
		}
		if err == nil {
			employerScore = employer.RiskScore
			employerName = employer.CompanyName
		}
	}

	// Disbursement details are snapshotted from the profile at request
	// time; later profile edits do not move an in-flight advance.
	details := map[string]string{}
	if input.DisbursementMethod == MethodMobileMoney {
		details["provider"] = emp.MobileMoneyProvider
		details["number"] = emp.MobileMoneyNumber
	} else {
		details["bank"] = emp.BankName
		details["account"] = emp.BankAccount
	}

	feePct, feeAmt, net := Quote(input.Amount, CombinedScore(emp.RiskScore, employerScore))
	adv := Advance{
		ID:                  uuid.NewString(),
		EmployeeID:          emp.ID,
		EmployeeName:        employeeName,
		EmployerID:          emp.EmployerID,
		EmployerName:        employerName,
		Amount:              input.Amount,
		FeePercentage:       feePct,
		FeeAmount:           feeAmt,
		NetAmount:           net,
		DisbursementMethod:  input.DisbursementMethod,
		DisbursementDetails: details,
		Status:              StatusPending,
		Reason:              input.Reason,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.Store.Insert(ctx, adv); err != nil {
		return Advance{}, err
	}

	// The request opens a pending transaction keyed by the advance id;
	// approval and rejection update its status in place.
	txn := Transaction{
		ID:        uuid.NewString(),
		UserID:    emp.UserID,
		Type:      TxAdvanceRequest,
		Amount:    adv.Amount,
		Reference: adv.ID,
		Status:    TxStatusPending,
		Metadata: map[string]any{
			"advanceId": adv.ID,
		},
		CreatedAt: adv.CreatedAt,
	}
	if err := s.Store.InsertTransaction(ctx, txn); err != nil {
		return Advance{}, err
	}

	s.Metrics.AdvanceRequested()
	s.notify(ctx, emp.UserID, "advance_requested", adv)
	s.Logger.Info("advance requested",
		slog.String("advance_id", adv.ID),
		slog.String("employee_id", emp.ID),
		slog.Float64("amount", adv.Amount),
		slog.Float64("fee_percentage", adv.FeePercentage))
	return adv, nil
}

// Approve moves a pending advance to approved and draws the gross
// amount down from the employee's earned wages. The request
// transaction follows the decision.
func (s *Service) Approve(ctx context.Context, id, adminID string) (Advance, error) {
	now := time.Now().UTC()
	adv, err := s.Store.Approve(ctx, id, now)
	if err != nil {
		return Advance{}, err
	}

	emp, err := s.Store.EmployeeByID(ctx, adv.EmployeeID)
	if err != nil {
		return Advance{}, err
	}
	if err := s.Store.UpdateTransactionStatus(ctx, adv.ID, TxStatusApproved); err != nil {
		return Advance{}, err
	}

	s.Metrics.AdvanceApproved()
	s.notify(ctx, emp.UserID, "advance_approved", adv)
	s.Logger.Info("advance approved",
		slog.String("advance_id", adv.ID),
		slog.String("admin_id", adminID),
		slog.Float64("amount", adv.Amount))
	return adv, nil
}

// Disburse releases the net amount of an approved advance, stamping a
// payment reference and recording a completed disbursement
// transaction.
func (s *Service) Disburse(ctx context.Context, id, adminID string) (Advance, error) {
	current, err := s.Store.ByID(ctx, id)
	if err != nil {
		return Advance{}, err
	}
	now := time.Now().UTC()
	reference := DisbursementRef(current.ID, now)

	adv, err := s.Store.Disburse(ctx, id, reference, now)
	if err != nil {
		return Advance{}, err
	}

	emp, err := s.Store.EmployeeByID(ctx, adv.EmployeeID)
	if err != nil {
		return Advance{}, err
	}
	txn := Transaction{
		ID:        uuid.NewString(),
		UserID:    emp.UserID,
		Type:      TxDisbursement,
		Amount:    adv.NetAmount,
		Reference: reference,
		Status:    TxStatusCompleted,
		Metadata: map[string]any{
			"advanceId":   adv.ID,
			"method":      adv.DisbursementMethod,
			"disbursedBy": adminID,
		},
		CreatedAt: now,
	}
	if err := s.Store.InsertTransaction(ctx, txn); err != nil {
		return Advance{}, err
	}

	s.Metrics.AdvanceDisbursed()
	s.notify(ctx, emp.UserID, "advance_disbursed", adv)
	s.Logger.Info("advance disbursed",
		slog.String("advance_id", adv.ID),
		slog.String("reference", reference),
		slog.Float64("net_amount", adv.NetAmount))
	return adv, nil
}

// Reject closes a pending advance without touching earned wages. The
// reason may be empty.
func (s *Service) Reject(ctx context.Context, id, adminID, reason string) (Advance, error) {
	now := time.Now().UTC()
	if err := s.Store.Reject(ctx, id, reason, now); err != nil {
		return Advance{}, err
	}
	adv, err := s.Store.ByID(ctx, id)
	if err != nil {
		return Advance{}, err
	}
	if err := s.Store.UpdateTransactionStatus(ctx, adv.ID, TxStatusRejected); err != nil {
		return Advance{}, err
	}

	s.Metrics.AdvanceRejected()
	if emp, err := s.Store.EmployeeByID(ctx, adv.EmployeeID); err == nil {
		s.notify(ctx, emp.UserID, "advance_rejected", adv)
	}
	s.Logger.Info("advance rejected",
		slog.String("advance_id", adv.ID),
		slog.String("admin_id", adminID),
		slog.String("reason", reason))
	return adv, nil
}

// Flag attaches a review marker to an advance. Flags never change the
// advance status; a disbursed advance can still be flagged for
// after-the-fact investigation.
func (s *Service) Flag(ctx context.Context, id, adminID, flagType, notes string) (Flag, error) {
	if !ValidFlagType(flagType) {
		return Flag{}, ErrInvalidFlagType
	}
	if _, err := s.Store.ByID(ctx, id); err != nil {
		return Flag{}, err
	}
	flag := Flag{
		ID:        uuid.NewString(),
		AdvanceID: id,
		FlagType:  flagType,
		Notes:     notes,
		FlaggedBy: adminID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.InsertFlag(ctx, flag); err != nil {
		return Flag{}, err
	}
	s.Logger.Info("advance flagged",
		slog.String("advance_id", id),
		slog.String("flag_type", flagType),
		slog.String("admin_id", adminID))
	return flag, nil
}

func (s *Service) Get(ctx context.Context, id string) (Advance, error) {
	return s.Store.ByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Advance, error) {
	return s.Store.List(ctx, filter)
}

func (s *Service) Flags(ctx context.Context, advanceID string) ([]Flag, error) {
	return s.Store.FlagsByAdvance(ctx, advanceID)
}

func (s *Service) Transactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	return s.Store.TransactionsByUser(ctx, userID, limit)
}

func (s *Service) notify(ctx context.Context, userID, event string, adv Advance) {
	if s.Notifier == nil {
		return
	}
	s.Notifier.AdvanceEvent(ctx, userID, event, adv)
}
