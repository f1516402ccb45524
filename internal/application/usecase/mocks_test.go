package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/domain/event"
	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Function-field mocks for the driven ports
// ---------------------------------------------------------------------------

type mockLoanRepo struct {
	saveFn     func(ctx context.Context, loan model.Loan) error
	findByIDFn func(ctx context.Context, id string) (model.Loan, error)
}

func (m *mockLoanRepo) Save(ctx context.Context, loan model.Loan) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, loan)
	}
	return nil
}

func (m *mockLoanRepo) FindByID(ctx context.Context, id string) (model.Loan, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return model.Loan{}, port.ErrNotFound
}

type mockRepaymentRepo struct {
	saveFn         func(ctx context.Context, rep model.Repayment) error
	findByIDFn     func(ctx context.Context, id string) (model.Repayment, error)
	findByLoanIDFn func(ctx context.Context, loanID string) ([]model.Repayment, error)
	findOverdueFn  func(ctx context.Context, asOf time.Time) ([]port.OverdueInstallment, error)
}

func (m *mockRepaymentRepo) Save(ctx context.Context, rep model.Repayment) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, rep)
	}
	return nil
}

func (m *mockRepaymentRepo) FindByID(ctx context.Context, id string) (model.Repayment, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return model.Repayment{}, port.ErrNotFound
}

func (m *mockRepaymentRepo) FindByLoanID(ctx context.Context, loanID string) ([]model.Repayment, error) {
	if m.findByLoanIDFn != nil {
		return m.findByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}

func (m *mockRepaymentRepo) FindOverdue(ctx context.Context, asOf time.Time) ([]port.OverdueInstallment, error) {
	if m.findOverdueFn != nil {
		return m.findOverdueFn(ctx, asOf)
	}
	return nil, nil
}

type mockLateFeeRepo struct {
	findByRepaymentIDFn       func(ctx context.Context, repaymentID string) ([]model.LateFee, error)
	findActiveByRepaymentIDFn func(ctx context.Context, repaymentID string) ([]model.LateFee, error)
	maxPeriodIndexFn          func(ctx context.Context, repaymentID string) (int, error)
}

func (m *mockLateFeeRepo) FindByRepaymentID(ctx context.Context, repaymentID string) ([]model.LateFee, error) {
	if m.findByRepaymentIDFn != nil {
		return m.findByRepaymentIDFn(ctx, repaymentID)
	}
	return nil, nil
}

func (m *mockLateFeeRepo) FindActiveByRepaymentID(ctx context.Context, repaymentID string) ([]model.LateFee, error) {
	if m.findActiveByRepaymentIDFn != nil {
		return m.findActiveByRepaymentIDFn(ctx, repaymentID)
	}
	return nil, nil
}

func (m *mockLateFeeRepo) MaxPeriodIndex(ctx context.Context, repaymentID string) (int, error) {
	if m.maxPeriodIndexFn != nil {
		return m.maxPeriodIndexFn(ctx, repaymentID)
	}
	return 0, nil
}

type mockProcessingLogRepo struct {
	insertFn       func(ctx context.Context, log model.ProcessingLog) error
	hasAutoRunOnFn func(ctx context.Context, date time.Time) (bool, error)
	latestFn       func(ctx context.Context) (model.ProcessingLog, error)
	listFn         func(ctx context.Context, limit int) ([]model.ProcessingLog, error)

	inserted []model.ProcessingLog
}

func (m *mockProcessingLogRepo) Insert(ctx context.Context, log model.ProcessingLog) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, log)
	}
	m.inserted = append(m.inserted, log)
	return nil
}

func (m *mockProcessingLogRepo) HasAutoRunOn(ctx context.Context, date time.Time) (bool, error) {
	if m.hasAutoRunOnFn != nil {
		return m.hasAutoRunOnFn(ctx, date)
	}
	return false, nil
}

func (m *mockProcessingLogRepo) Latest(ctx context.Context) (model.ProcessingLog, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx)
	}
	return model.ProcessingLog{}, port.ErrNotFound
}

func (m *mockProcessingLogRepo) List(ctx context.Context, limit int) ([]model.ProcessingLog, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

type mockLedgerUnit struct {
	createLoanFn         func(ctx context.Context, loan model.Loan, reps []model.Repayment) error
	applyFeeAssessmentFn func(ctx context.Context, loan model.Loan, reps []model.Repayment, fees []model.LateFee) error
	applyPaymentFn       func(ctx context.Context, loan model.Loan, reps []model.Repayment, fees []model.LateFee) error
	waiveFeesFn          func(ctx context.Context, fees []model.LateFee, log model.ProcessingLog) error
	settleFeesFn         func(ctx context.Context, fees []model.LateFee) error
}

func (m *mockLedgerUnit) CreateLoan(ctx context.Context, loan model.Loan, reps []model.Repayment) error {
	if m.createLoanFn != nil {
		return m.createLoanFn(ctx, loan, reps)
	}
	return nil
}

func (m *mockLedgerUnit) ApplyFeeAssessment(ctx context.Context, loan model.Loan, reps []model.Repayment, fees []model.LateFee) error {
	if m.applyFeeAssessmentFn != nil {
		return m.applyFeeAssessmentFn(ctx, loan, reps, fees)
	}
	return nil
}

func (m *mockLedgerUnit) ApplyPayment(ctx context.Context, loan model.Loan, reps []model.Repayment, fees []model.LateFee) error {
	if m.applyPaymentFn != nil {
		return m.applyPaymentFn(ctx, loan, reps, fees)
	}
	return nil
}

func (m *mockLedgerUnit) WaiveFees(ctx context.Context, fees []model.LateFee, log model.ProcessingLog) error {
	if m.waiveFeesFn != nil {
		return m.waiveFeesFn(ctx, fees, log)
	}
	return nil
}

func (m *mockLedgerUnit) SettleFees(ctx context.Context, fees []model.LateFee) error {
	if m.settleFeesFn != nil {
		return m.settleFeesFn(ctx, fees)
	}
	return nil
}

type mockProductRepo struct {
	feePolicyFn func(ctx context.Context, code string) (model.FeePolicy, error)
}

func (m *mockProductRepo) FeePolicy(ctx context.Context, code string) (model.FeePolicy, error) {
	if m.feePolicyFn != nil {
		return m.feePolicyFn(ctx, code)
	}
	return model.FeePolicy{}, port.ErrNotFound
}

type mockSettingsRepo struct {
	settings port.EngineSettings
	err      error
}

func (m *mockSettingsRepo) EngineSettings(ctx context.Context) (port.EngineSettings, error) {
	return m.settings, m.err
}

type mockPublisher struct {
	published []event.DomainEvent
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, events ...event.DomainEvent) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, events...)
	return nil
}

type mockAlertStore struct {
	alerts []port.Alert
}

func (m *mockAlertStore) Write(alert port.Alert) error {
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *mockAlertStore) List() ([]port.Alert, error) { return m.alerts, nil }

func (m *mockAlertStore) Clear() error {
	m.alerts = nil
	return nil
}

// ---------------------------------------------------------------------------
// Test fixtures
// ---------------------------------------------------------------------------

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLoan(id string, outstanding decimal.Decimal) model.Loan {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.ReconstructLoan(
		id, "borrower-1", "SME-STD",
		dec("10000"), "CNY", 1200, 12,
		valueobject.LoanStatusActive, valueobject.RiskStateCurrent,
		outstanding,
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		0, nil, nil, 1, created, created,
	)
}

func testRepayment(id, loanID string, due time.Time, principal, interest string) model.Repayment {
	return model.ReconstructRepayment(
		id, loanID, 1, due,
		dec(principal), dec(interest), decimal.Zero, decimal.Zero,
		valueobject.RepaymentStatusPending, 1, due, due,
	)
}

func testPolicy() model.FeePolicy {
	return model.FeePolicy{
		ProductCode:      "SME-STD",
		DailyRatePercent: dec("0.022"),
		FixedAmount:      decimal.Zero,
		FrequencyDays:    7,
	}
}

func testSettings() port.EngineSettings {
	return port.EngineSettings{
		Risk:           model.RiskPolicy{RiskDays: 30, RemedyDays: 15},
		GraceEnabled:   false,
		GraceDays:      0,
		AlertThreshold: dec("1000"),
	}
}

func alertFixture(now time.Time) port.Alert {
	return port.Alert{
		Name:      "late-fee-total-exceeded",
		Message:   "run charged above threshold",
		CreatedAt: now,
	}
}

func testFee(repaymentID string, amount string, periodIndex int) model.LateFee {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return model.ReconstructLateFee(
		"fee-"+repaymentID+"-"+string(rune('0'+periodIndex)), repaymentID,
		dec(amount), created, periodIndex,
		valueobject.LateFeeStatusActive, nil, created,
	)
}
