package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

// ---------------------------------------------------------------------------
// Loan servicing events
// ---------------------------------------------------------------------------

// LoanDisbursed is raised when funds are disbursed and the installment
// schedule is generated.
type LoanDisbursed struct {
	events.BaseEvent
	BorrowerID     string          `json:"borrower_id"`
	ProductCode    string          `json:"product_code"`
	Principal      decimal.Decimal `json:"principal"`
	Currency       string          `json:"currency"`
	TermMonths     int             `json:"term_months"`
	NextPaymentDue time.Time       `json:"next_payment_due"`
}

func NewLoanDisbursed(
	loanID, borrowerID, productCode string,
	principal decimal.Decimal, currency string,
	termMonths int, nextPaymentDue time.Time,
) LoanDisbursed {
	return LoanDisbursed{
		BaseEvent:      events.NewBaseEvent("lending.loan.disbursed", loanID, "Loan"),
		BorrowerID:     borrowerID,
		ProductCode:    productCode,
		Principal:      principal,
		Currency:       currency,
		TermMonths:     termMonths,
		NextPaymentDue: nextPaymentDue,
	}
}

// PaymentReceived is raised when a borrower payment is applied to a loan.
type PaymentReceived struct {
	events.BaseEvent
	Amount             decimal.Decimal `json:"amount"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

func NewPaymentReceived(loanID string, amount, outstanding decimal.Decimal) PaymentReceived {
	return PaymentReceived{
		BaseEvent:          events.NewBaseEvent("lending.loan.payment_received", loanID, "Loan"),
		Amount:             amount,
		OutstandingBalance: outstanding,
	}
}

// LoanClosed is raised when the final installment is settled.
type LoanClosed struct {
	events.BaseEvent
}

func NewLoanClosed(loanID string) LoanClosed {
	return LoanClosed{
		BaseEvent: events.NewBaseEvent("lending.loan.closed", loanID, "Loan"),
	}
}

// ---------------------------------------------------------------------------
// Default-risk events
// ---------------------------------------------------------------------------

// LoanEnteredRisk is raised when a loan crosses the default-risk day
// threshold. Consumers dispatch the risk letter and borrower notification.
type LoanEnteredRisk struct {
	events.BaseEvent
	DaysOverdue    int       `json:"days_overdue"`
	FlaggedAt      time.Time `json:"flagged_at"`
	RemedyDeadline time.Time `json:"remedy_deadline"`
}

func NewLoanEnteredRisk(loanID string, daysOverdue int, flaggedAt, remedyDeadline time.Time) LoanEnteredRisk {
	return LoanEnteredRisk{
		BaseEvent:      events.NewBaseEvent("lending.loan.entered_risk", loanID, "Loan"),
		DaysOverdue:    daysOverdue,
		FlaggedAt:      flaggedAt,
		RemedyDeadline: remedyDeadline,
	}
}

// LoanEnteredRemedy is raised when the remedy period begins.
type LoanEnteredRemedy struct {
	events.BaseEvent
	RemedyDeadline time.Time `json:"remedy_deadline"`
}

func NewLoanEnteredRemedy(loanID string, remedyDeadline time.Time) LoanEnteredRemedy {
	return LoanEnteredRemedy{
		BaseEvent:      events.NewBaseEvent("lending.loan.entered_remedy", loanID, "Loan"),
		RemedyDeadline: remedyDeadline,
	}
}

// LoanDefaulted is raised when the remedy deadline passes without full
// repayment. Consumers dispatch the default letter.
type LoanDefaulted struct {
	events.BaseEvent
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

func NewLoanDefaulted(loanID string, outstanding decimal.Decimal) LoanDefaulted {
	return LoanDefaulted{
		BaseEvent:          events.NewBaseEvent("lending.loan.defaulted", loanID, "Loan"),
		OutstandingBalance: outstanding,
	}
}

// LoanReturnedToCurrent is raised when a full catch-up payment clears the
// risk flags on a loan.
type LoanReturnedToCurrent struct {
	events.BaseEvent
}

func NewLoanReturnedToCurrent(loanID string) LoanReturnedToCurrent {
	return LoanReturnedToCurrent{
		BaseEvent: events.NewBaseEvent("lending.loan.returned_to_current", loanID, "Loan"),
	}
}

// ---------------------------------------------------------------------------
// Late-fee events
// ---------------------------------------------------------------------------

// LateFeesAssessed is raised once per repayment per run when new fee charges
// are recorded.
type LateFeesAssessed struct {
	events.BaseEvent
	LoanID      string          `json:"loan_id"`
	FeeCount    int             `json:"fee_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DaysOverdue int             `json:"days_overdue"`
}

func NewLateFeesAssessed(repaymentID, loanID string, feeCount int, totalAmount decimal.Decimal, daysOverdue int) LateFeesAssessed {
	return LateFeesAssessed{
		BaseEvent:   events.NewBaseEvent("lending.late_fees.assessed", repaymentID, "Repayment"),
		LoanID:      loanID,
		FeeCount:    feeCount,
		TotalAmount: totalAmount,
		DaysOverdue: daysOverdue,
	}
}

// LateFeesWaived is raised when an admin waives a repayment's active fees.
type LateFeesWaived struct {
	events.BaseEvent
	Reason      string          `json:"reason"`
	AdminUserID string          `json:"admin_user_id"`
	TotalWaived decimal.Decimal `json:"total_waived"`
}

func NewLateFeesWaived(repaymentID, reason, adminUserID string, totalWaived decimal.Decimal) LateFeesWaived {
	return LateFeesWaived{
		BaseEvent:   events.NewBaseEvent("lending.late_fees.waived", repaymentID, "Repayment"),
		Reason:      reason,
		AdminUserID: adminUserID,
		TotalWaived: totalWaived,
	}
}

// LateFeesSettled is raised when a payment clears some or all of a
// repayment's outstanding fees.
type LateFeesSettled struct {
	events.BaseEvent
	TotalSettled    decimal.Decimal `json:"total_settled"`
	RemainingActive decimal.Decimal `json:"remaining_active"`
	PaymentDate     time.Time       `json:"payment_date"`
}

func NewLateFeesSettled(repaymentID string, totalSettled, remainingActive decimal.Decimal, paymentDate time.Time) LateFeesSettled {
	return LateFeesSettled{
		BaseEvent:       events.NewBaseEvent("lending.late_fees.settled", repaymentID, "Repayment"),
		TotalSettled:    totalSettled,
		RemainingActive: remainingActive,
		PaymentDate:     paymentDate,
	}
}
