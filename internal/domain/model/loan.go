package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/domain/event"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Loan aggregate root
// ---------------------------------------------------------------------------

// Loan is an immutable aggregate. Mutations return a new copy.
type Loan struct {
	id                 string
	borrowerID         string
	productCode        string
	principal          decimal.Decimal
	currency           string
	annualRateBps      int
	termMonths         int
	status             valueobject.LoanStatus
	riskState          valueobject.RiskState
	outstandingBalance decimal.Decimal
	nextPaymentDue     time.Time
	daysOverdue        int
	riskFlaggedAt      *time.Time
	remedyDeadline     *time.Time
	version            int
	createdAt          time.Time
	updatedAt          time.Time
	domainEvents       []event.DomainEvent
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewLoan disburses a loan and generates its installment schedule. The loan
// starts ACTIVE with risk state CURRENT; the returned repayments carry the
// amortized principal/interest split per period.
func NewLoan(
	borrowerID, productCode string,
	principal decimal.Decimal,
	currency string,
	annualRateBps, termMonths int,
	now time.Time,
) (Loan, []Repayment, error) {
	if borrowerID == "" {
		return Loan{}, nil, errors.New("borrower ID is required")
	}
	if productCode == "" {
		return Loan{}, nil, errors.New("product code is required")
	}
	if principal.LessThanOrEqual(decimal.Zero) {
		return Loan{}, nil, errors.New("principal must be positive")
	}
	if currency == "" {
		return Loan{}, nil, errors.New("currency is required")
	}
	if termMonths <= 0 {
		return Loan{}, nil, errors.New("term months must be positive")
	}

	id := uuid.New().String()
	repayments := GenerateInstallmentSchedule(id, principal, annualRateBps, termMonths, now)

	var nextDue time.Time
	if len(repayments) > 0 {
		nextDue = repayments[0].DueDate()
	}

	loan := Loan{
		id:                 id,
		borrowerID:         borrowerID,
		productCode:        productCode,
		principal:          principal,
		currency:           currency,
		annualRateBps:      annualRateBps,
		termMonths:         termMonths,
		status:             valueobject.LoanStatusActive,
		riskState:          valueobject.RiskStateCurrent,
		outstandingBalance: principal,
		nextPaymentDue:     nextDue,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}

	loan.domainEvents = append(loan.domainEvents, event.NewLoanDisbursed(
		id, borrowerID, productCode, principal, currency, termMonths, nextDue,
	))

	return loan, repayments, nil
}

// ReconstructLoan rebuilds a Loan aggregate from persistence.
func ReconstructLoan(
	id, borrowerID, productCode string,
	principal decimal.Decimal,
	currency string,
	annualRateBps, termMonths int,
	status valueobject.LoanStatus,
	riskState valueobject.RiskState,
	outstandingBalance decimal.Decimal,
	nextPaymentDue time.Time,
	daysOverdue int,
	riskFlaggedAt, remedyDeadline *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) Loan {
	return Loan{
		id:                 id,
		borrowerID:         borrowerID,
		productCode:        productCode,
		principal:          principal,
		currency:           currency,
		annualRateBps:      annualRateBps,
		termMonths:         termMonths,
		status:             status,
		riskState:          riskState,
		outstandingBalance: outstandingBalance,
		nextPaymentDue:     nextPaymentDue,
		daysOverdue:        daysOverdue,
		riskFlaggedAt:      riskFlaggedAt,
		remedyDeadline:     remedyDeadline,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

// ---------------------------------------------------------------------------
// Payment lifecycle
// ---------------------------------------------------------------------------

// ApplyPayment reduces the outstanding balance and emits PaymentReceived.
// A balance of zero moves the loan to PENDING_DISCHARGE.
func (l Loan) ApplyPayment(amount decimal.Decimal, now time.Time) (Loan, error) {
	if !l.status.Equal(valueobject.LoanStatusActive) {
		return l, errors.New("payments can only be applied to active loans")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return l, errors.New("payment amount must be positive")
	}
	if amount.GreaterThan(l.outstandingBalance) {
		return l, errors.New("payment exceeds outstanding balance")
	}

	next := l
	next.outstandingBalance = l.outstandingBalance.Sub(amount)
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewPaymentReceived(
		l.id, amount, next.outstandingBalance,
	))

	if next.outstandingBalance.IsZero() {
		next.status = valueobject.LoanStatusPendingDischarge
	}

	return next, nil
}

// Close transitions PENDING_DISCHARGE -> CLOSED once discharge completes.
func (l Loan) Close(now time.Time) (Loan, error) {
	if !l.status.Equal(valueobject.LoanStatusPendingDischarge) {
		return l, valueobject.ErrInvalidStatusTransition
	}
	next := l
	next.status = valueobject.LoanStatusClosed
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanClosed(l.id))
	return next, nil
}

// WithNextPaymentDue moves the next-due pointer after installments settle.
func (l Loan) WithNextPaymentDue(due time.Time, now time.Time) Loan {
	if due.Equal(l.nextPaymentDue) {
		return l
	}
	next := l
	next.nextPaymentDue = due
	next.updatedAt = now
	return next
}

// WithDaysOverdue records the current overdue age of the oldest unpaid
// installment, as computed by the daily processor.
func (l Loan) WithDaysOverdue(days int, now time.Time) Loan {
	if days == l.daysOverdue {
		return l
	}
	next := l
	next.daysOverdue = days
	next.updatedAt = now
	return next
}

// ---------------------------------------------------------------------------
// Default-risk lifecycle
// ---------------------------------------------------------------------------

// FlagDefaultRisk transitions CURRENT -> RISK. The remedy deadline starts
// counting from the moment the loan is flagged.
func (l Loan) FlagDefaultRisk(daysOverdue, remedyDays int, now time.Time) (Loan, error) {
	if !l.riskState.Equal(valueobject.RiskStateCurrent) {
		return l, valueobject.ErrInvalidStatusTransition
	}
	deadline := now.AddDate(0, 0, remedyDays)

	next := l
	next.riskState = valueobject.RiskStateRisk
	next.riskFlaggedAt = &now
	next.remedyDeadline = &deadline
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanEnteredRisk(
		l.id, daysOverdue, now, deadline,
	))
	return next, nil
}

// EnterRemedy transitions RISK -> REMEDY after the risk letter has been
// dispatched.
func (l Loan) EnterRemedy(now time.Time) (Loan, error) {
	if !l.riskState.Equal(valueobject.RiskStateRisk) {
		return l, valueobject.ErrInvalidStatusTransition
	}
	if l.remedyDeadline == nil {
		return l, errors.New("loan in RISK without a remedy deadline")
	}
	next := l
	next.riskState = valueobject.RiskStateRemedy
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanEnteredRemedy(l.id, *l.remedyDeadline))
	return next, nil
}

// MarkDefaulted transitions REMEDY -> DEFAULTED once the remedy deadline has
// passed without full repayment. The loan status becomes terminal.
func (l Loan) MarkDefaulted(now time.Time) (Loan, error) {
	if !l.riskState.Equal(valueobject.RiskStateRemedy) {
		return l, valueobject.ErrInvalidStatusTransition
	}
	next := l
	next.riskState = valueobject.RiskStateDefaulted
	next.status = valueobject.LoanStatusDefaulted
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanDefaulted(l.id, l.outstandingBalance))
	return next, nil
}

// ReturnToCurrent clears the risk flags after a full catch-up payment. Legal
// from RISK or REMEDY; defaulted loans do not recover.
func (l Loan) ReturnToCurrent(now time.Time) (Loan, error) {
	if !l.riskState.Equal(valueobject.RiskStateRisk) && !l.riskState.Equal(valueobject.RiskStateRemedy) {
		return l, valueobject.ErrInvalidStatusTransition
	}
	next := l
	next.riskState = valueobject.RiskStateCurrent
	next.riskFlaggedAt = nil
	next.remedyDeadline = nil
	next.daysOverdue = 0
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanReturnedToCurrent(l.id))
	return next, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l Loan) ID() string                           { return l.id }
func (l Loan) BorrowerID() string                   { return l.borrowerID }
func (l Loan) ProductCode() string                  { return l.productCode }
func (l Loan) Principal() decimal.Decimal           { return l.principal }
func (l Loan) Currency() string                     { return l.currency }
func (l Loan) AnnualRateBps() int                   { return l.annualRateBps }
func (l Loan) TermMonths() int                      { return l.termMonths }
func (l Loan) Status() valueobject.LoanStatus       { return l.status }
func (l Loan) RiskState() valueobject.RiskState     { return l.riskState }
func (l Loan) OutstandingBalance() decimal.Decimal  { return l.outstandingBalance }
func (l Loan) NextPaymentDue() time.Time            { return l.nextPaymentDue }
func (l Loan) DaysOverdue() int                     { return l.daysOverdue }
func (l Loan) RiskFlaggedAt() *time.Time            { return l.riskFlaggedAt }
func (l Loan) RemedyDeadline() *time.Time           { return l.remedyDeadline }
func (l Loan) Version() int                         { return l.version }
func (l Loan) CreatedAt() time.Time                 { return l.createdAt }
func (l Loan) UpdatedAt() time.Time                 { return l.updatedAt }
func (l Loan) DomainEvents() []event.DomainEvent    { return l.domainEvents }

// ClearEvents returns a copy with an empty event list.
func (l Loan) ClearEvents() Loan {
	next := l
	next.domainEvents = nil
	return next
}

func copyEvents(evts []event.DomainEvent) []event.DomainEvent {
	if evts == nil {
		return nil
	}
	out := make([]event.DomainEvent, len(evts))
	copy(out, evts)
	return out
}
