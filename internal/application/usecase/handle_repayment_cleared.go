package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/application/dto"
	"github.com/kredexa/lending-engine/internal/domain/event"
	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
	"github.com/kredexa/lending-engine/pkg/money"
)

// HandleRepaymentClearedUseCase reconciles a cleared repayment's payment
// against its still-ACTIVE fees, oldest first. A fee flips to PAID only when
// the available amount fully covers it; any uncovered fee balance stays
// ACTIVE for future collection; nothing is silently dropped.
type HandleRepaymentClearedUseCase struct {
	repayments port.RepaymentRepository
	lateFees   port.LateFeeRepository
	ledger     port.LedgerUnit
	publisher  port.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewHandleRepaymentClearedUseCase wires dependencies.
func NewHandleRepaymentClearedUseCase(
	repayments port.RepaymentRepository,
	lateFees port.LateFeeRepository,
	ledger port.LedgerUnit,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *HandleRepaymentClearedUseCase {
	return &HandleRepaymentClearedUseCase{
		repayments: repayments,
		lateFees:   lateFees,
		ledger:     ledger,
		publisher:  publisher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Execute settles fees with the payment amount available after the
// repayment's principal and interest were covered.
func (uc *HandleRepaymentClearedUseCase) Execute(ctx context.Context, req dto.HandlePaymentRequest) (dto.HandlePaymentResponse, error) {
	if req.PaymentAmount.LessThanOrEqual(decimal.Zero) {
		return dto.HandlePaymentResponse{}, fmt.Errorf("%w: payment amount must be positive", ErrInvalidRequest)
	}

	if _, err := uc.repayments.FindByID(ctx, req.RepaymentID); err != nil {
		return dto.HandlePaymentResponse{}, fmt.Errorf("find repayment: %w", err)
	}

	fees, err := uc.lateFees.FindActiveByRepaymentID(ctx, req.RepaymentID)
	if err != nil {
		return dto.HandlePaymentResponse{}, fmt.Errorf("find active fees: %w", err)
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = uc.now()
	}

	available := req.PaymentAmount
	totalSettled := decimal.Zero
	remaining := decimal.Zero
	var settled []model.LateFee

	for _, fee := range fees {
		if available.GreaterThanOrEqual(fee.FeeAmount()) {
			paid, err := fee.MarkPaid()
			if err != nil {
				return dto.HandlePaymentResponse{}, fmt.Errorf("settle fee %s: %w", fee.ID(), err)
			}
			settled = append(settled, paid)
			available = money.Sub(available, fee.FeeAmount())
			totalSettled = money.Add(totalSettled, fee.FeeAmount())
			continue
		}
		remaining = money.Add(remaining, fee.FeeAmount())
	}

	if len(settled) > 0 {
		if err := uc.ledger.SettleFees(ctx, settled); err != nil {
			return dto.HandlePaymentResponse{}, fmt.Errorf("persist settlement: %w", err)
		}
		if uc.publisher != nil {
			evt := event.NewLateFeesSettled(req.RepaymentID, totalSettled, remaining, paymentDate)
			if err := uc.publisher.Publish(ctx, evt); err != nil {
				uc.logger.Error("publishing settlement event failed", "error", err, "repayment_id", req.RepaymentID)
			}
		}
	}

	return dto.HandlePaymentResponse{
		RepaymentID:     req.RepaymentID,
		FeesSettled:     len(settled),
		TotalSettled:    totalSettled,
		RemainingActive: remaining,
	}, nil
}
