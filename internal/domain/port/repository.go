package port

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/domain/event"
	"github.com/kredexa/lending-engine/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateRun is returned when an automatic processing run has
	// already been recorded for the run date. The store enforces this with a
	// partial unique index, closing the check-then-act race between
	// concurrent triggers.
	ErrDuplicateRun = errors.New("processing run already recorded for date")
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// LoanRepository persists and retrieves loans.
type LoanRepository interface {
	Save(ctx context.Context, loan model.Loan) error
	FindByID(ctx context.Context, id string) (model.Loan, error)
}

// OverdueInstallment is one row of the repayment ledger reader: an unpaid
// installment past its due date, joined to its loan and the product's fee
// policy (grace settings not yet merged in).
type OverdueInstallment struct {
	Repayment model.Repayment
	Loan      model.Loan
	Policy    model.FeePolicy
}

// RepaymentRepository persists and retrieves installments.
type RepaymentRepository interface {
	Save(ctx context.Context, rep model.Repayment) error
	FindByID(ctx context.Context, id string) (model.Repayment, error)
	FindByLoanID(ctx context.Context, loanID string) ([]model.Repayment, error)
	// FindOverdue returns all PENDING/PARTIAL/OVERDUE installments of active
	// loans whose due date is before asOf, oldest first.
	FindOverdue(ctx context.Context, asOf time.Time) ([]OverdueInstallment, error)
}

// LateFeeRepository retrieves fee charges. Inserts and status flips go
// through LedgerUnit so they stay atomic with their sibling updates.
type LateFeeRepository interface {
	FindByRepaymentID(ctx context.Context, repaymentID string) ([]model.LateFee, error)
	FindActiveByRepaymentID(ctx context.Context, repaymentID string) ([]model.LateFee, error)
	// MaxPeriodIndex returns the highest fee period already recorded for the
	// repayment, any status, or 0 when no fees exist.
	MaxPeriodIndex(ctx context.Context, repaymentID string) (int, error)
}

// ProcessingLogRepository persists the append-only run audit trail.
type ProcessingLogRepository interface {
	// Insert writes one log row. For non-manual runs it returns
	// ErrDuplicateRun when a run is already recorded for the same date.
	Insert(ctx context.Context, log model.ProcessingLog) error
	HasAutoRunOn(ctx context.Context, date time.Time) (bool, error)
	Latest(ctx context.Context) (model.ProcessingLog, error)
	List(ctx context.Context, limit int) ([]model.ProcessingLog, error)
}

// LedgerUnit executes the engine's composite writes atomically: a mid-run
// crash must never leave a repayment with fees inserted but aggregates not
// updated, or vice versa.
type LedgerUnit interface {
	// CreateLoan persists a newly disbursed loan together with its
	// installment schedule.
	CreateLoan(ctx context.Context, loan model.Loan, reps []model.Repayment) error
	// ApplyFeeAssessment inserts new fee rows and persists the updated
	// repayments and loan in one transaction.
	ApplyFeeAssessment(ctx context.Context, loan model.Loan, reps []model.Repayment, fees []model.LateFee) error
	// ApplyPayment persists a payment's effects: updated installments, fee
	// settlements, and the loan aggregate, in one transaction.
	ApplyPayment(ctx context.Context, loan model.Loan, reps []model.Repayment, fees []model.LateFee) error
	// WaiveFees persists waived fee rows together with the audit log row.
	WaiveFees(ctx context.Context, fees []model.LateFee, log model.ProcessingLog) error
	// SettleFees persists fee status flips from a settlement.
	SettleFees(ctx context.Context, fees []model.LateFee) error
}

// ProductRepository supplies per-product fee policy. Grace-period settings
// live in system settings and are merged by the caller.
type ProductRepository interface {
	FeePolicy(ctx context.Context, code string) (model.FeePolicy, error)
}

// EngineSettings is the typed view of the global system settings consumed by
// the calculator and the risk driver, validated at load time.
type EngineSettings struct {
	Risk           model.RiskPolicy
	GraceEnabled   bool
	GraceDays      int
	AlertThreshold decimal.Decimal
}

// SettingsRepository loads the global engine settings.
type SettingsRepository interface {
	EngineSettings(ctx context.Context) (EngineSettings, error)
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// Alert store port
// ---------------------------------------------------------------------------

// Alert is a high-severity marker produced by a processing run.
type Alert struct {
	Name      string
	Message   string
	CreatedAt time.Time
}

// AlertStore records and clears run alert markers.
type AlertStore interface {
	Write(alert Alert) error
	List() ([]Alert, error)
	Clear() error
}
