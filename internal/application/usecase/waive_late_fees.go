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
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
	"github.com/kredexa/lending-engine/pkg/dates"
	"github.com/kredexa/lending-engine/pkg/money"
)

// WaiveLateFeesUseCase marks all of a repayment's ACTIVE fees WAIVED and
// writes one audit log row capturing who waived what and why. Fee amounts are
// never altered; history stays intact.
type WaiveLateFeesUseCase struct {
	repayments port.RepaymentRepository
	lateFees   port.LateFeeRepository
	ledger     port.LedgerUnit
	publisher  port.EventPublisher
	logger     *slog.Logger
	loc        *time.Location
	now        func() time.Time
}

// NewWaiveLateFeesUseCase wires dependencies.
func NewWaiveLateFeesUseCase(
	repayments port.RepaymentRepository,
	lateFees port.LateFeeRepository,
	ledger port.LedgerUnit,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *WaiveLateFeesUseCase {
	return &WaiveLateFeesUseCase{
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
func (uc *WaiveLateFeesUseCase) WithClock(now func() time.Time) *WaiveLateFeesUseCase {
	uc.now = now
	return uc
}

// Execute waives the repayment's active fees. Fails with
// model.ErrNoActiveFees when there is nothing to waive.
func (uc *WaiveLateFeesUseCase) Execute(ctx context.Context, req dto.WaiveLateFeesRequest) (dto.WaiveLateFeesResponse, error) {
	if req.Reason == "" {
		return dto.WaiveLateFeesResponse{}, fmt.Errorf("%w: waive reason is required", ErrInvalidRequest)
	}
	if req.AdminUserID == "" {
		return dto.WaiveLateFeesResponse{}, fmt.Errorf("%w: admin user ID is required", ErrInvalidRequest)
	}

	// Ensure the repayment exists so a bad ID surfaces as not-found rather
	// than no-active-fees.
	if _, err := uc.repayments.FindByID(ctx, req.RepaymentID); err != nil {
		return dto.WaiveLateFeesResponse{}, fmt.Errorf("find repayment: %w", err)
	}

	fees, err := uc.lateFees.FindActiveByRepaymentID(ctx, req.RepaymentID)
	if err != nil {
		return dto.WaiveLateFeesResponse{}, fmt.Errorf("find active fees: %w", err)
	}
	if len(fees) == 0 {
		return dto.WaiveLateFeesResponse{}, model.ErrNoActiveFees
	}

	now := uc.now()
	total := decimal.Zero
	waived := make([]model.LateFee, 0, len(fees))
	feeIDs := make([]string, 0, len(fees))
	for _, fee := range fees {
		w, err := fee.Waive()
		if err != nil {
			return dto.WaiveLateFeesResponse{}, fmt.Errorf("waive fee %s: %w", fee.ID(), err)
		}
		waived = append(waived, w)
		feeIDs = append(feeIDs, w.ID())
		total = money.Add(total, w.FeeAmount())
	}

	logRow, err := model.NewProcessingLog(
		dates.StartOfDay(now, uc.loc), true, valueobject.RunStatusManualWaived,
		0, total, 0, 0,
		map[string]any{
			"action":        "waive",
			"repayment_id":  req.RepaymentID,
			"reason":        req.Reason,
			"admin_user_id": req.AdminUserID,
			"waived_amount": total.String(),
			"fee_ids":       feeIDs,
		},
		now,
	)
	if err != nil {
		return dto.WaiveLateFeesResponse{}, fmt.Errorf("build audit log: %w", err)
	}

	if err := uc.ledger.WaiveFees(ctx, waived, logRow); err != nil {
		return dto.WaiveLateFeesResponse{}, fmt.Errorf("persist waive: %w", err)
	}

	if uc.publisher != nil {
		evt := event.NewLateFeesWaived(req.RepaymentID, req.Reason, req.AdminUserID, total)
		if err := uc.publisher.Publish(ctx, evt); err != nil {
			uc.logger.Error("publishing waive event failed", "error", err, "repayment_id", req.RepaymentID)
		}
	}

	return dto.WaiveLateFeesResponse{
		RepaymentID:       req.RepaymentID,
		FeesWaived:        len(waived),
		TotalWaivedAmount: total,
	}, nil
}
