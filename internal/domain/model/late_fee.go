package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/domain/valueobject"
)

// ErrNoActiveFees signals a waive or settle request against a repayment that
// has no ACTIVE fee charges.
var ErrNoActiveFees = errors.New("no active late fees")

// ---------------------------------------------------------------------------
// LateFee entity
// ---------------------------------------------------------------------------

// LateFee is one fee charge against an overdue repayment. Fee rows are
// append-only: new accrual periods create new rows, and waive/settle
// operations flip the status without ever altering the amount, preserving
// the audit trail.
type LateFee struct {
	id              string
	repaymentID     string
	feeAmount       decimal.Decimal
	calculationDate time.Time
	periodIndex     int
	status          valueobject.LateFeeStatus
	metadata        map[string]any
	createdAt       time.Time
}

// NewLateFee creates an ACTIVE fee charge for one accrual period.
func NewLateFee(
	repaymentID string,
	feeAmount decimal.Decimal,
	calculationDate time.Time,
	periodIndex int,
	metadata map[string]any,
	now time.Time,
) (LateFee, error) {
	if repaymentID == "" {
		return LateFee{}, errors.New("repayment ID is required")
	}
	if feeAmount.LessThanOrEqual(decimal.Zero) {
		return LateFee{}, errors.New("fee amount must be positive")
	}
	if periodIndex <= 0 {
		return LateFee{}, errors.New("period index must be positive")
	}
	return LateFee{
		id:              uuid.New().String(),
		repaymentID:     repaymentID,
		feeAmount:       feeAmount,
		calculationDate: calculationDate,
		periodIndex:     periodIndex,
		status:          valueobject.LateFeeStatusActive,
		metadata:        metadata,
		createdAt:       now,
	}, nil
}

// ReconstructLateFee rebuilds a LateFee from persistence.
func ReconstructLateFee(
	id, repaymentID string,
	feeAmount decimal.Decimal,
	calculationDate time.Time,
	periodIndex int,
	status valueobject.LateFeeStatus,
	metadata map[string]any,
	createdAt time.Time,
) LateFee {
	return LateFee{
		id:              id,
		repaymentID:     repaymentID,
		feeAmount:       feeAmount,
		calculationDate: calculationDate,
		periodIndex:     periodIndex,
		status:          status,
		metadata:        metadata,
		createdAt:       createdAt,
	}
}

// ---------------------------------------------------------------------------
// Status transitions
// ---------------------------------------------------------------------------

// Waive transitions ACTIVE -> WAIVED.
func (f LateFee) Waive() (LateFee, error) {
	if !f.status.Equal(valueobject.LateFeeStatusActive) {
		return f, valueobject.ErrInvalidStatusTransition
	}
	next := f
	next.status = valueobject.LateFeeStatusWaived
	return next, nil
}

// MarkPaid transitions ACTIVE -> PAID.
func (f LateFee) MarkPaid() (LateFee, error) {
	if !f.status.Equal(valueobject.LateFeeStatusActive) {
		return f, valueobject.ErrInvalidStatusTransition
	}
	next := f
	next.status = valueobject.LateFeeStatusPaid
	return next, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (f LateFee) ID() string                          { return f.id }
func (f LateFee) RepaymentID() string                 { return f.repaymentID }
func (f LateFee) FeeAmount() decimal.Decimal          { return f.feeAmount }
func (f LateFee) CalculationDate() time.Time          { return f.calculationDate }
func (f LateFee) PeriodIndex() int                    { return f.periodIndex }
func (f LateFee) Status() valueobject.LateFeeStatus   { return f.status }
func (f LateFee) CreatedAt() time.Time                { return f.createdAt }

// Metadata returns a defensive copy of the free-form metadata.
func (f LateFee) Metadata() map[string]any {
	if f.metadata == nil {
		return nil
	}
	out := make(map[string]any, len(f.metadata))
	for k, v := range f.metadata {
		out[k] = v
	}
	return out
}
