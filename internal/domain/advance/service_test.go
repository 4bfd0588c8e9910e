package advance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"ewa/internal/domain/core"
	"ewa/internal/platform/metrics"
)

type fakeAdvanceStore struct {
	employees map[string]*core.Employee
	employers map[string]core.Employer
	names     map[string]string
	advances  map[string]*Advance
	flags     []Flag
	txns      []Transaction
}

func newFakeAdvanceStore() *fakeAdvanceStore {
	return &fakeAdvanceStore{
		employees: map[string]*core.Employee{},
		employers: map[string]core.Employer{},
		names:     map[string]string{},
		advances:  map[string]*Advance{},
	}
}

func (f *fakeAdvanceStore) EmployeeByUserID(_ context.Context, userID string) (core.Employee, error) {
	for _, emp := range f.employees {
		if emp.UserID == userID {
			return *emp, nil
		}
	}
	return core.Employee{}, core.ErrEmployeeNotFound
}

func (f *fakeAdvanceStore) EmployeeByID(_ context.Context, id string) (core.Employee, error) {
	emp, ok := f.employees[id]
	if !ok {
		return core.Employee{}, core.ErrEmployeeNotFound
	}
	return *emp, nil
}

func (f *fakeAdvanceStore) EmployerByID(_ context.Context, id string) (core.Employer, error) {
	er, ok := f.employers[id]
	if !ok {
		return core.Employer{}, core.ErrEmployerNotFound
	}
	return er, nil
}

func (f *fakeAdvanceStore) UserFullName(_ context.Context, userID string) (string, error) {
	return f.names[userID], nil
}

func (f *fakeAdvanceStore) Insert(_ context.Context, adv Advance) error {
	f.advances[adv.ID] = &adv
	return nil
}

func (f *fakeAdvanceStore) ByID(_ context.Context, id string) (Advance, error) {
	adv, ok := f.advances[id]
	if !ok {
		return Advance{}, ErrNotFound
	}
	return *adv, nil
}

func (f *fakeAdvanceStore) List(_ context.Context, filter Filter) ([]Advance, error) {
	var out []Advance
	for _, adv := range f.advances {
		if filter.EmployeeID != "" && adv.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.EmployerID != "" && adv.EmployerID != filter.EmployerID {
			continue
		}
		if filter.Status != "" && adv.Status != filter.Status {
			continue
		}
		out = append(out, *adv)
	}
	return out, nil
}

func (f *fakeAdvanceStore) Approve(_ context.Context, id string, at time.Time) (Advance, error) {
	adv, ok := f.advances[id]
	if !ok {
		return Advance{}, ErrNotFound
	}
	if adv.Status != StatusPending {
		return Advance{}, ErrAlreadyProcessed
	}
	emp := f.employees[adv.EmployeeID]
	if emp.EarnedWages < adv.Amount {
		return Advance{}, ErrInsufficientEarned
	}
	emp.EarnedWages -= adv.Amount
	adv.Status = StatusApproved
	adv.ProcessedAt = &at
	return *adv, nil
}

func (f *fakeAdvanceStore) Disburse(_ context.Context, id, reference string, at time.Time) (Advance, error) {
	adv, ok := f.advances[id]
	if !ok {
		return Advance{}, ErrNotFound
	}
	if adv.Status != StatusApproved {
		return Advance{}, ErrNotApproved
	}
	adv.Status = StatusDisbursed
	adv.DisbursementReference = reference
	adv.DisbursedAt = &at
	return *adv, nil
}

func (f *fakeAdvanceStore) Reject(_ context.Context, id, reason string, at time.Time) error {
	adv, ok := f.advances[id]
	if !ok || adv.Status != StatusPending {
		return ErrNotFoundOrProcessed
	}
	adv.Status = StatusRejected
	adv.RejectionReason = reason
	adv.ProcessedAt = &at
	return nil
}

func (f *fakeAdvanceStore) InsertFlag(_ context.Context, flag Flag) error {
	f.flags = append(f.flags, flag)
	return nil
}

func (f *fakeAdvanceStore) FlagsByAdvance(_ context.Context, advanceID string) ([]Flag, error) {
	var out []Flag
	for _, flag := range f.flags {
		if flag.AdvanceID == advanceID {
			out = append(out, flag)
		}
	}
	return out, nil
}

func (f *fakeAdvanceStore) InsertTransaction(_ context.Context, txn Transaction) error {
	f.txns = append(f.txns, txn)
	return nil
}

func (f *fakeAdvanceStore) UpdateTransactionStatus(_ context.Context, reference, status string) error {
	for i := range f.txns {
		if f.txns[i].Reference == reference {
			f.txns[i].Status = status
		}
	}
	return nil
}

func (f *fakeAdvanceStore) TransactionsByUser(_ context.Context, userID string, _ int) ([]Transaction, error) {
	var out []Transaction
	for _, txn := range f.txns {
		if txn.UserID == userID {
			out = append(out, txn)
		}
	}
	return out, nil
}

type recordedEvent struct {
	userID string
	event  string
}

type fakeNotifier struct {
	events []recordedEvent
}

func (f *fakeNotifier) AdvanceEvent(_ context.Context, userID, event string, _ Advance) {
	f.events = append(f.events, recordedEvent{userID: userID, event: event})
}

func seedStore() *fakeAdvanceStore {
	store := newFakeAdvanceStore()
	empScore := 4.0
	erScore := 2.0
	store.employees["e1"] = &core.Employee{
		ID:                  "e1",
		UserID:              "u1",
		EmployerID:          "er-1",
		Status:              core.StatusApproved,
		KYCStatus:           core.KYCApproved,
		RiskScore:           &empScore,
		EarnedWages:         40000,
		AdvanceLimit:        20000,
		BankName:            "Test Bank",
		BankAccount:         "0011223344",
		MobileMoneyProvider: "M-PESA",
		MobileMoneyNumber:   "0700000001",
	}
	store.employers["er-1"] = core.Employer{
		ID:          "er-1",
		CompanyName: "Acme Distribution",
		RiskScore:   &erScore,
	}
	store.names["u1"] = "Ada Mensah"
	return store
}

func newAdvanceService(store StoreAPI, notifier Notifier) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, metrics.New(), notifier, logger)
}

func TestCreateAdvance(t *testing.T) {
	store := seedStore()
	notifier := &fakeNotifier{}
	svc := newAdvanceService(store, notifier)

	adv, err := svc.Create(context.Background(), "u1", CreateInput{
		Amount:             10000,
		DisbursementMethod: MethodMobileMoney,
		Reason:             "school fees",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if adv.Status != StatusPending {
		t.Fatalf("status = %s", adv.Status)
	}
	// Combined score (4+2)/2 = 3 prices at 4.7%.
	if !almostEqual(adv.FeePercentage, 4.7) || !almostEqual(adv.FeeAmount, 470) || !almostEqual(adv.NetAmount, 9530) {
		t.Fatalf("pricing = %v/%v/%v", adv.FeePercentage, adv.FeeAmount, adv.NetAmount)
	}
	if adv.EmployeeName != "Ada Mensah" || adv.EmployerName != "Acme Distribution" {
		t.Fatalf("names = %q/%q", adv.EmployeeName, adv.EmployerName)
	}
	// Mobile money requests snapshot the wallet from the profile.
	if adv.DisbursementDetails["provider"] != "M-PESA" || adv.DisbursementDetails["number"] != "0700000001" {
		t.Fatalf("details = %+v", adv.DisbursementDetails)
	}
	// The request itself leaves earned wages untouched.
	if store.employees["e1"].EarnedWages != 40000 {
		t.Fatalf("earned wages changed at request time: %v", store.employees["e1"].EarnedWages)
	}
	if len(store.txns) != 1 {
		t.Fatalf("transactions = %d", len(store.txns))
	}
	txn := store.txns[0]
	if txn.Type != TxAdvanceRequest || txn.Status != TxStatusPending || txn.Amount != 10000 || txn.Reference != adv.ID {
		t.Fatalf("transaction = %+v", txn)
	}
	if len(notifier.events) != 1 || notifier.events[0].event != "advance_requested" {
		t.Fatalf("events = %+v", notifier.events)
	}
}

func TestCreateAdvanceNeutralPricing(t *testing.T) {
	store := seedStore()
	store.employees["e1"].RiskScore = nil
	store.employees["e1"].EmployerID = ""
	svc := newAdvanceService(store, nil)

	adv, err := svc.Create(context.Background(), "u1", CreateInput{
		Amount:             1000,
		DisbursementMethod: MethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !almostEqual(adv.FeePercentage, 4.7) {
		t.Fatalf("unscored pricing = %v, want neutral 4.7", adv.FeePercentage)
	}
}

func TestCreateAdvancePreconditions(t *testing.T) {
	ctx := context.Background()

	svc := newAdvanceService(seedStore(), nil)
	if _, err := svc.Create(ctx, "u1", CreateInput{Amount: 0, DisbursementMethod: MethodMobileMoney}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", CreateInput{Amount: 100, DisbursementMethod: "cheque"}); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("bad method: %v", err)
	}
	if _, err := svc.Create(ctx, "nobody", CreateInput{Amount: 100, DisbursementMethod: MethodMobileMoney}); !errors.Is(err, core.ErrEmployeeNotFound) {
		t.Fatalf("missing profile: %v", err)
	}

	store := seedStore()
	store.employees["e1"].KYCStatus = core.KYCPending
	svc = newAdvanceService(store, nil)
	if _, err := svc.Create(ctx, "u1", CreateInput{Amount: 100, DisbursementMethod: MethodMobileMoney}); !errors.Is(err, ErrUnverified) {
		t.Fatalf("unverified: %v", err)
	}

	svc = newAdvanceService(seedStore(), nil)
	if _, err := svc.Create(ctx, "u1", CreateInput{Amount: 25000, DisbursementMethod: MethodMobileMoney}); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("over limit: %v", err)
	}

	store = seedStore()
	store.employees["e1"].EarnedWages = 5000
	svc = newAdvanceService(store, nil)
	if _, err := svc.Create(ctx, "u1", CreateInput{Amount: 10000, DisbursementMethod: MethodMobileMoney}); !errors.Is(err, ErrInsufficientEarned) {
		t.Fatalf("over earned: %v", err)
	}
}

func TestApprove(t *testing.T) {
	store := seedStore()
	notifier := &fakeNotifier{}
	svc := newAdvanceService(store, notifier)
	ctx := context.Background()

	adv, err := svc.Create(ctx, "u1", CreateInput{Amount: 10000, DisbursementMethod: MethodMobileMoney})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	approved, err := svc.Approve(ctx, adv.ID, "admin-1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != StatusApproved || approved.ProcessedAt == nil {
		t.Fatalf("approved = %+v", approved)
	}
	// The gross amount comes out of earned wages, not the net.
	if store.employees["e1"].EarnedWages != 30000 {
		t.Fatalf("earned wages = %v, want 30000", store.employees["e1"].EarnedWages)
	}
	// The request transaction follows the decision.
	if len(store.txns) != 1 {
		t.Fatalf("transactions = %d", len(store.txns))
	}
	txn := store.txns[0]
	if txn.Type != TxAdvanceRequest || txn.Status != TxStatusApproved || txn.Amount != 10000 || txn.Reference != adv.ID {
		t.Fatalf("transaction = %+v", txn)
	}

	if _, err := svc.Approve(ctx, adv.ID, "admin-1"); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("double approve: %v", err)
	}
	if _, err := svc.Approve(ctx, "missing", "admin-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing advance: %v", err)
	}
}

func TestApproveAfterDrain(t *testing.T) {
	store := seedStore()
	svc := newAdvanceService(store, nil)
	ctx := context.Background()

	// Two requests that each pass eligibility but cannot both be
	// honored once the first approval draws the balance down.
	store.employees["e1"].EarnedWages = 15000
	store.employees["e1"].AdvanceLimit = 15000
	first, err := svc.Create(ctx, "u1", CreateInput{Amount: 10000, DisbursementMethod: MethodMobileMoney})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(ctx, "u1", CreateInput{Amount: 10000, DisbursementMethod: MethodMobileMoney})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Approve(ctx, first.ID, "admin-1"); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := svc.Approve(ctx, second.ID, "admin-1"); !errors.Is(err, ErrInsufficientEarned) {
		t.Fatalf("second approve = %v, want insufficient earned", err)
	}
	// The failed approval leaves the advance pending for later.
	got, _ := svc.Get(ctx, second.ID)
	if got.Status != StatusPending {
		t.Fatalf("second status = %s", got.Status)
	}
}

func TestDisburse(t *testing.T) {
	store := seedStore()
	notifier := &fakeNotifier{}
	svc := newAdvanceService(store, notifier)
	ctx := context.Background()

	adv, err := svc.Create(ctx, "u1", CreateInput{Amount: 10000, DisbursementMethod: MethodMobileMoney})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Disburse(ctx, adv.ID, "admin-1"); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("disburse pending: %v", err)
	}

	if _, err := svc.Approve(ctx, adv.ID, "admin-1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	disbursed, err := svc.Disburse(ctx, adv.ID, "admin-1")
	if err != nil {
		t.Fatalf("Disburse: %v", err)
	}
	if disbursed.Status != StatusDisbursed || disbursed.DisbursedAt == nil {
		t.Fatalf("disbursed = %+v", disbursed)
	}
	if !strings.HasPrefix(disbursed.DisbursementReference, "EW-") {
		t.Fatalf("reference = %s", disbursed.DisbursementReference)
	}

	// Disbursement transaction carries the net amount.
	var disbursementTxn *Transaction
	for i := range store.txns {
		if store.txns[i].Type == TxDisbursement {
			disbursementTxn = &store.txns[i]
		}
	}
	if disbursementTxn == nil {
		t.Fatal("no disbursement transaction")
	}
	if disbursementTxn.Status != TxStatusCompleted || !almostEqual(disbursementTxn.Amount, 9530) {
		t.Fatalf("transaction = %+v", disbursementTxn)
	}
	if disbursementTxn.Reference != disbursed.DisbursementReference {
		t.Fatalf("reference mismatch: %s vs %s", disbursementTxn.Reference, disbursed.DisbursementReference)
	}

	if _, err := svc.Disburse(ctx, adv.ID, "admin-1"); !errors.Is(err, ErrNotApproved) {
		t.Fatalf("double disburse: %v", err)
	}
}

func TestReject(t *testing.T) {
	store := seedStore()
	svc := newAdvanceService(store, nil)
	ctx := context.Background()

	adv, err := svc.Create(ctx, "u1", CreateInput{Amount: 10000, DisbursementMethod: MethodMobileMoney})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rejected, err := svc.Reject(ctx, adv.ID, "admin-1", "insufficient tenure")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != StatusRejected || rejected.RejectionReason != "insufficient tenure" {
		t.Fatalf("rejected = %+v", rejected)
	}
	// Rejection never touches the balance.
	if store.employees["e1"].EarnedWages != 40000 {
		t.Fatalf("earned wages = %v", store.employees["e1"].EarnedWages)
	}
	if store.txns[0].Status != TxStatusRejected {
		t.Fatalf("transaction status = %s", store.txns[0].Status)
	}

	if _, err := svc.Reject(ctx, adv.ID, "admin-1", "again"); !errors.Is(err, ErrNotFoundOrProcessed) {
		t.Fatalf("double reject: %v", err)
	}
	if _, err := svc.Reject(ctx, "missing", "admin-1", "reason"); !errors.Is(err, ErrNotFoundOrProcessed) {
		t.Fatalf("missing advance: %v", err)
	}
}

func TestRejectWithoutReason(t *testing.T) {
	store := seedStore()
	svc := newAdvanceService(store, nil)
	ctx := context.Background()

	adv, err := svc.Create(ctx, "u1", CreateInput{Amount: 5000, DisbursementMethod: MethodMobileMoney})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The reason is optional.
	rejected, err := svc.Reject(ctx, adv.ID, "admin-1", "")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != StatusRejected || rejected.RejectionReason != "" {
		t.Fatalf("rejected = %+v", rejected)
	}
}

func TestRejectAfterApprove(t *testing.T) {
	svc := newAdvanceService(seedStore(), nil)
	ctx := context.Background()

	adv, err := svc.Create(ctx, "u1", CreateInput{Amount: 5000, DisbursementMethod: MethodBankTransfer})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Approve(ctx, adv.ID, "admin-1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := svc.Reject(ctx, adv.ID, "admin-1", "changed mind"); !errors.Is(err, ErrNotFoundOrProcessed) {
		t.Fatalf("reject approved: %v", err)
	}
}

func TestFlag(t *testing.T) {
	store := seedStore()
	svc := newAdvanceService(store, nil)
	ctx := context.Background()

	adv, err := svc.Create(ctx, "u1", CreateInput{Amount: 5000, DisbursementMethod: MethodMobileMoney})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Flag(ctx, adv.ID, "admin-1", "odd", ""); !errors.Is(err, ErrInvalidFlagType) {
		t.Fatalf("bad flag type: %v", err)
	}
	if _, err := svc.Flag(ctx, "missing", "admin-1", FlagFraud, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing advance: %v", err)
	}

	flag, err := svc.Flag(ctx, adv.ID, "admin-1", FlagSuspicious, "repeat requests at limit")
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}
	if flag.FlagType != FlagSuspicious || flag.FlaggedBy != "admin-1" {
		t.Fatalf("flag = %+v", flag)
	}

	// Flagging leaves the lifecycle alone.
	got, _ := svc.Get(ctx, adv.ID)
	if got.Status != StatusPending {
		t.Fatalf("status = %s", got.Status)
	}

	// A disbursed advance can still be flagged.
	if _, err := svc.Approve(ctx, adv.ID, "admin-1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := svc.Disburse(ctx, adv.ID, "admin-1"); err != nil {
		t.Fatalf("Disburse: %v", err)
	}
	if _, err := svc.Flag(ctx, adv.ID, "admin-2", FlagMispayment, "wrong wallet"); err != nil {
		t.Fatalf("flag disbursed: %v", err)
	}
	flags, err := svc.Flags(ctx, adv.ID)
	if err != nil {
		t.Fatalf("Flags: %v", err)
	}
	if len(flags) != 2 {
		t.Fatalf("flags = %d", len(flags))
	}
}

func TestListFilters(t *testing.T) {
	store := seedStore()
	svc := newAdvanceService(store, nil)
	ctx := context.Background()

	first, err := svc.Create(ctx, "u1", CreateInput{Amount: 1000, DisbursementMethod: MethodMobileMoney})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", CreateInput{Amount: 2000, DisbursementMethod: MethodMobileMoney}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Approve(ctx, first.ID, "admin-1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	all, err := svc.List(ctx, Filter{EmployeeID: "e1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all = %d", len(all))
	}
	pending, err := svc.List(ctx, Filter{EmployeeID: "e1", Status: StatusPending})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d", len(pending))
	}
	none, err := svc.List(ctx, Filter{EmployerID: "er-other"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("none = %d", len(none))
	}
}
