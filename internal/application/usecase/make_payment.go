package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/application/dto"
	"github.com/kredexa/lending-engine/internal/domain/event"
	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
	"github.com/kredexa/lending-engine/pkg/dates"
	"github.com/kredexa/lending-engine/pkg/money"
)

// MakePaymentUseCase applies a borrower payment to a loan. The amount is
// allocated to installments oldest first; once an installment clears, its
// still-ACTIVE fees are settled from the remaining funds before the next
// installment is touched. A full catch-up returns a flagged loan to CURRENT.
type MakePaymentUseCase struct {
	loans      port.LoanRepository
	repayments port.RepaymentRepository
	lateFees   port.LateFeeRepository
	ledger     port.LedgerUnit
	publisher  port.EventPublisher
	logger     *slog.Logger
	loc        *time.Location
	now        func() time.Time
}

// NewMakePaymentUseCase wires dependencies.
func NewMakePaymentUseCase(
	loans port.LoanRepository,
	repayments port.RepaymentRepository,
	lateFees port.LateFeeRepository,
	ledger port.LedgerUnit,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *MakePaymentUseCase {
	return &MakePaymentUseCase{
		loans:      loans,
		repayments: repayments,
		lateFees:   lateFees,
		ledger:     ledger,
		publisher:  publisher,
		logger:     logger,
		loc:        dates.BusinessDay,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Intended for tests.
func (uc *MakePaymentUseCase) WithClock(now func() time.Time) *MakePaymentUseCase {
	uc.now = now
	return uc
}

// Execute allocates the payment and persists all effects in one transaction.
func (uc *MakePaymentUseCase) Execute(ctx context.Context, req dto.MakePaymentRequest) (dto.MakePaymentResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return dto.MakePaymentResponse{}, fmt.Errorf("%w: payment amount must be positive", ErrInvalidRequest)
	}
	now := uc.now()

	loan, err := uc.loans.FindByID(ctx, req.LoanID)
	if err != nil {
		return dto.MakePaymentResponse{}, fmt.Errorf("find loan: %w", err)
	}
	if !loan.Status().Equal(valueobject.LoanStatusActive) {
		return dto.MakePaymentResponse{}, fmt.Errorf("%w: payments can only be applied to active loans", ErrInvalidRequest)
	}

	reps, err := uc.repayments.FindByLoanID(ctx, req.LoanID)
	if err != nil {
		return dto.MakePaymentResponse{}, fmt.Errorf("find schedule: %w", err)
	}
	sort.Slice(reps, func(i, j int) bool { return reps[i].Period() < reps[j].Period() })

	available := req.Amount
	principalApplied := decimal.Zero
	installmentsSettled := 0
	var updatedReps []model.Repayment
	var settledFees []model.LateFee
	feesByRepayment := map[string]decimal.Decimal{}

	for i, rep := range reps {
		if available.LessThanOrEqual(decimal.Zero) {
			break
		}
		if rep.IsSettled() || !rep.Status().IsPayable() {
			continue
		}

		updated, applied, err := rep.RecordPayment(available, now)
		if err != nil {
			return dto.MakePaymentResponse{}, fmt.Errorf("apply payment to period %d: %w", rep.Period(), err)
		}
		available = money.Sub(available, applied)
		principalApplied = money.Add(principalApplied, money.Sub(updated.PrincipalPaid(), rep.PrincipalPaid()))
		reps[i] = updated
		updatedReps = append(updatedReps, updated)

		if !updated.IsSettled() {
			break
		}
		installmentsSettled++

		// Installment cleared: settle its fees before moving to the next one.
		fees, err := uc.lateFees.FindActiveByRepaymentID(ctx, updated.ID())
		if err != nil {
			return dto.MakePaymentResponse{}, fmt.Errorf("find fees for repayment %s: %w", updated.ID(), err)
		}
		for _, fee := range fees {
			if available.LessThan(fee.FeeAmount()) {
				continue
			}
			paid, err := fee.MarkPaid()
			if err != nil {
				return dto.MakePaymentResponse{}, fmt.Errorf("settle fee %s: %w", fee.ID(), err)
			}
			settledFees = append(settledFees, paid)
			available = money.Sub(available, fee.FeeAmount())
			feesByRepayment[updated.ID()] = money.Add(feesByRepayment[updated.ID()], fee.FeeAmount())
		}
	}

	if principalApplied.GreaterThan(decimal.Zero) {
		if principalApplied.GreaterThan(loan.OutstandingBalance()) {
			principalApplied = loan.OutstandingBalance()
		}
		loan, err = loan.ApplyPayment(principalApplied, now)
		if err != nil {
			return dto.MakePaymentResponse{}, fmt.Errorf("apply payment to loan: %w", err)
		}
	}

	loan = loan.WithNextPaymentDue(nextDueDate(reps, loan.NextPaymentDue()), now)

	if uc.caughtUp(reps, now) &&
		(loan.RiskState().Equal(valueobject.RiskStateRisk) || loan.RiskState().Equal(valueobject.RiskStateRemedy)) {
		loan, err = loan.ReturnToCurrent(now)
		if err != nil {
			return dto.MakePaymentResponse{}, fmt.Errorf("return loan to current: %w", err)
		}
	}

	if err := uc.ledger.ApplyPayment(ctx, loan, updatedReps, settledFees); err != nil {
		return dto.MakePaymentResponse{}, fmt.Errorf("persist payment: %w", err)
	}

	uc.publish(ctx, loan, feesByRepayment, now)

	return dto.MakePaymentResponse{
		LoanID:              loan.ID(),
		AmountApplied:       money.Sub(req.Amount, available),
		OutstandingBalance:  loan.OutstandingBalance(),
		LoanStatus:          loan.Status().String(),
		RiskState:           loan.RiskState().String(),
		InstallmentsSettled: installmentsSettled,
		FeesSettled:         len(settledFees),
	}, nil
}

// caughtUp reports whether every installment due on or before today is fully
// paid.
func (uc *MakePaymentUseCase) caughtUp(reps []model.Repayment, now time.Time) bool {
	for _, rep := range reps {
		if rep.IsSettled() {
			continue
		}
		if dates.DaysOverdue(rep.DueDate(), now, uc.loc) > 0 {
			return false
		}
	}
	return true
}

func nextDueDate(reps []model.Repayment, fallback time.Time) time.Time {
	for _, rep := range reps {
		if !rep.IsSettled() {
			return rep.DueDate()
		}
	}
	return fallback
}

func (uc *MakePaymentUseCase) publish(ctx context.Context, loan model.Loan, feesByRepayment map[string]decimal.Decimal, paymentDate time.Time) {
	if uc.publisher == nil {
		return
	}
	evts := loan.DomainEvents()
	for repID, settled := range feesByRepayment {
		evts = append(evts, event.NewLateFeesSettled(repID, settled, decimal.Zero, paymentDate))
	}
	if len(evts) == 0 {
		return
	}
	if err := uc.publisher.Publish(ctx, evts...); err != nil {
		uc.logger.Error("publishing payment events failed", "error", err, "loan_id", loan.ID())
	}
}
