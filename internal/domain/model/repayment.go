package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/domain/valueobject"
	"github.com/kredexa/lending-engine/pkg/money"
)

// ---------------------------------------------------------------------------
// Repayment entity (one installment)
// ---------------------------------------------------------------------------

// Repayment is one scheduled principal+interest installment of a loan.
// Mutations return a new copy.
type Repayment struct {
	id                 string
	loanID             string
	period             int
	dueDate            time.Time
	scheduledPrincipal decimal.Decimal
	scheduledInterest  decimal.Decimal
	amountPaid         decimal.Decimal
	principalPaid      decimal.Decimal
	status             valueobject.RepaymentStatus
	version            int
	createdAt          time.Time
	updatedAt          time.Time
}

// NewRepayment creates a PENDING installment.
func NewRepayment(
	loanID string,
	period int,
	dueDate time.Time,
	scheduledPrincipal, scheduledInterest decimal.Decimal,
	now time.Time,
) (Repayment, error) {
	if loanID == "" {
		return Repayment{}, errors.New("loan ID is required")
	}
	if period <= 0 {
		return Repayment{}, errors.New("period must be positive")
	}
	if scheduledPrincipal.IsNegative() || scheduledInterest.IsNegative() {
		return Repayment{}, errors.New("scheduled amounts must not be negative")
	}
	return Repayment{
		id:                 uuid.New().String(),
		loanID:             loanID,
		period:             period,
		dueDate:            dueDate,
		scheduledPrincipal: scheduledPrincipal,
		scheduledInterest:  scheduledInterest,
		amountPaid:         decimal.Zero,
		principalPaid:      decimal.Zero,
		status:             valueobject.RepaymentStatusPending,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructRepayment rebuilds a Repayment from persistence.
func ReconstructRepayment(
	id, loanID string,
	period int,
	dueDate time.Time,
	scheduledPrincipal, scheduledInterest, amountPaid, principalPaid decimal.Decimal,
	status valueobject.RepaymentStatus,
	version int,
	createdAt, updatedAt time.Time,
) Repayment {
	return Repayment{
		id:                 id,
		loanID:             loanID,
		period:             period,
		dueDate:            dueDate,
		scheduledPrincipal: scheduledPrincipal,
		scheduledInterest:  scheduledInterest,
		amountPaid:         amountPaid,
		principalPaid:      principalPaid,
		status:             status,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// ---------------------------------------------------------------------------
// Derived amounts
// ---------------------------------------------------------------------------

// ScheduledTotal returns scheduled principal + interest.
func (r Repayment) ScheduledTotal() decimal.Decimal {
	return money.Add(r.scheduledPrincipal, r.scheduledInterest)
}

// Outstanding returns the unpaid portion of the scheduled total.
func (r Repayment) Outstanding() decimal.Decimal {
	return money.Sub(r.ScheduledTotal(), r.amountPaid)
}

// IsSettled reports whether the scheduled total is fully paid.
func (r Repayment) IsSettled() bool {
	return r.Outstanding().IsZero()
}

// ---------------------------------------------------------------------------
// Mutations (return new copies)
// ---------------------------------------------------------------------------

// RecordPayment applies up to the outstanding amount and returns the applied
// portion. Interest is covered before principal. amountPaid never exceeds the
// scheduled total.
func (r Repayment) RecordPayment(amount decimal.Decimal, now time.Time) (Repayment, decimal.Decimal, error) {
	if !r.status.IsPayable() {
		return r, decimal.Zero, errors.New("repayment is not payable")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return r, decimal.Zero, errors.New("payment amount must be positive")
	}

	applied := amount
	if outstanding := r.Outstanding(); applied.GreaterThan(outstanding) {
		applied = outstanding
	}

	next := r
	next.amountPaid = money.Add(r.amountPaid, applied)
	// Interest-first allocation: principal starts reducing only once the
	// scheduled interest is covered.
	principalPaid := money.Sub(next.amountPaid, r.scheduledInterest)
	if principalPaid.IsNegative() {
		principalPaid = decimal.Zero
	}
	next.principalPaid = principalPaid
	next.updatedAt = now

	switch {
	case next.IsSettled():
		next.status = valueobject.RepaymentStatusCompleted
	case r.status.Equal(valueobject.RepaymentStatusOverdue):
		// A partial payment does not clear overdue standing.
	default:
		next.status = valueobject.RepaymentStatusPartial
	}

	return next, applied, nil
}

// MarkOverdue transitions a payable, unpaid installment to OVERDUE. Marking
// an already-overdue installment is a no-op.
func (r Repayment) MarkOverdue(now time.Time) Repayment {
	if !r.status.IsPayable() || r.status.Equal(valueobject.RepaymentStatusOverdue) {
		return r
	}
	next := r
	next.status = valueobject.RepaymentStatusOverdue
	next.updatedAt = now
	return next
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (r Repayment) ID() string                             { return r.id }
func (r Repayment) LoanID() string                         { return r.loanID }
func (r Repayment) Period() int                            { return r.period }
func (r Repayment) DueDate() time.Time                     { return r.dueDate }
func (r Repayment) ScheduledPrincipal() decimal.Decimal    { return r.scheduledPrincipal }
func (r Repayment) ScheduledInterest() decimal.Decimal     { return r.scheduledInterest }
func (r Repayment) AmountPaid() decimal.Decimal            { return r.amountPaid }
func (r Repayment) PrincipalPaid() decimal.Decimal         { return r.principalPaid }
func (r Repayment) Status() valueobject.RepaymentStatus    { return r.status }
func (r Repayment) Version() int                           { return r.version }
func (r Repayment) CreatedAt() time.Time                   { return r.createdAt }
func (r Repayment) UpdatedAt() time.Time                   { return r.updatedAt }
