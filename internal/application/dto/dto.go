// Package dto defines the request/response shapes exchanged between the
// presentation layer and the use cases.
package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Late-fee processing
// ---------------------------------------------------------------------------

// RunError records one repayment that failed during a processing run.
type RunError struct {
	RepaymentID string `json:"repayment_id"`
	LoanID      string `json:"loan_id"`
	Message     string `json:"message"`
}

// ProcessingResult summarises one late-fee processing run.
type ProcessingResult struct {
	RunDate           time.Time       `json:"run_date"`
	FeesCalculated    int             `json:"fees_calculated"`
	TotalFeeAmount    decimal.Decimal `json:"total_fee_amount"`
	OverdueRepayments int             `json:"overdue_repayments"`
	IsManualRun       bool            `json:"is_manual_run"`
	AlreadyRanToday   bool            `json:"already_ran_today"`
	ProcessingTimeMs  int64           `json:"processing_time_ms"`
	Errors            []RunError      `json:"errors,omitempty"`
}

// WaiveLateFeesRequest asks to waive all active fees on a repayment.
type WaiveLateFeesRequest struct {
	RepaymentID string `json:"repayment_id"`
	Reason      string `json:"reason"`
	AdminUserID string `json:"admin_user_id"`
}

// WaiveLateFeesResponse reports the waived fees.
type WaiveLateFeesResponse struct {
	RepaymentID       string          `json:"repayment_id"`
	FeesWaived        int             `json:"fees_waived"`
	TotalWaivedAmount decimal.Decimal `json:"total_waived_amount"`
}

// HandlePaymentRequest reconciles a cleared repayment's payment against its
// outstanding fees.
type HandlePaymentRequest struct {
	RepaymentID   string          `json:"repayment_id"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	PaymentDate   time.Time       `json:"payment_date"`
}

// HandlePaymentResponse reports the settlement outcome. Any fee balance the
// payment could not cover stays ACTIVE for future collection.
type HandlePaymentResponse struct {
	RepaymentID     string          `json:"repayment_id"`
	FeesSettled     int             `json:"fees_settled"`
	TotalSettled    decimal.Decimal `json:"total_settled"`
	RemainingActive decimal.Decimal `json:"remaining_active"`
}

// LateFeeView is one fee charge in a summary.
type LateFeeView struct {
	ID              string          `json:"id"`
	FeeAmount       decimal.Decimal `json:"fee_amount"`
	CalculationDate time.Time       `json:"calculation_date"`
	PeriodIndex     int             `json:"period_index"`
	Status          string          `json:"status"`
}

// LateFeesSummary aggregates a repayment's fee charges by status.
type LateFeesSummary struct {
	RepaymentID string          `json:"repayment_id"`
	Fees        []LateFeeView   `json:"fees"`
	TotalActive decimal.Decimal `json:"total_active"`
	TotalWaived decimal.Decimal `json:"total_waived"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
}

// TotalAmountDue is the full amount outstanding on a repayment: unpaid
// scheduled principal+interest plus active fees.
type TotalAmountDue struct {
	RepaymentID          string          `json:"repayment_id"`
	OutstandingScheduled decimal.Decimal `json:"outstanding_scheduled"`
	ActiveFees           decimal.Decimal `json:"active_fees"`
	Total                decimal.Decimal `json:"total"`
}

// ProcessingLogView is one run-log row.
type ProcessingLogView struct {
	ID                    string          `json:"id"`
	RunDate               time.Time       `json:"run_date"`
	ProcessedAt           time.Time       `json:"processed_at"`
	IsManual              bool            `json:"is_manual"`
	Status                string          `json:"status"`
	FeesCalculated        int             `json:"fees_calculated"`
	TotalFeeAmount        decimal.Decimal `json:"total_fee_amount"`
	OverdueRepaymentsSeen int             `json:"overdue_repayments_seen"`
	ProcessingTimeMs      int64           `json:"processing_time_ms"`
	Metadata              map[string]any  `json:"metadata,omitempty"`
}

// AlertView is one pending run alert.
type AlertView struct {
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ProcessingStatus is the current state of the processor.
type ProcessingStatus struct {
	LastRun       *ProcessingLogView `json:"last_run,omitempty"`
	RanToday      bool               `json:"ran_today"`
	PendingAlerts []AlertView        `json:"pending_alerts"`
}

// ---------------------------------------------------------------------------
// Loan servicing
// ---------------------------------------------------------------------------

// DisburseLoanRequest creates a loan with a generated installment schedule.
type DisburseLoanRequest struct {
	BorrowerID    string          `json:"borrower_id"`
	ProductCode   string          `json:"product_code"`
	Principal     decimal.Decimal `json:"principal"`
	Currency      string          `json:"currency"`
	AnnualRateBps int             `json:"annual_rate_bps"`
	TermMonths    int             `json:"term_months"`
}

// RepaymentView is one installment in a loan response.
type RepaymentView struct {
	ID                 string          `json:"id"`
	Period             int             `json:"period"`
	DueDate            time.Time       `json:"due_date"`
	ScheduledPrincipal decimal.Decimal `json:"scheduled_principal"`
	ScheduledInterest  decimal.Decimal `json:"scheduled_interest"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	Status             string          `json:"status"`
}

// LoanResponse is the loan aggregate as presented to the admin surface.
type LoanResponse struct {
	ID                 string          `json:"id"`
	BorrowerID         string          `json:"borrower_id"`
	ProductCode        string          `json:"product_code"`
	Principal          decimal.Decimal `json:"principal"`
	Currency           string          `json:"currency"`
	AnnualRateBps      int             `json:"annual_rate_bps"`
	TermMonths         int             `json:"term_months"`
	Status             string          `json:"status"`
	RiskState          string          `json:"risk_state"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	NextPaymentDue     time.Time       `json:"next_payment_due"`
	DaysOverdue        int             `json:"days_overdue"`
	RiskFlaggedAt      *time.Time      `json:"default_risk_flagged_at,omitempty"`
	RemedyDeadline     *time.Time      `json:"default_remedy_deadline,omitempty"`
	Schedule           []RepaymentView `json:"schedule,omitempty"`
}

// MakePaymentRequest applies a borrower payment to a loan.
type MakePaymentRequest struct {
	LoanID      string          `json:"loan_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"payment_date"`
}

// MakePaymentResponse reports how the payment was applied.
type MakePaymentResponse struct {
	LoanID              string          `json:"loan_id"`
	AmountApplied       decimal.Decimal `json:"amount_applied"`
	OutstandingBalance  decimal.Decimal `json:"outstanding_balance"`
	LoanStatus          string          `json:"loan_status"`
	RiskState           string          `json:"risk_state"`
	InstallmentsSettled int             `json:"installments_settled"`
	FeesSettled         int             `json:"fees_settled"`
}
