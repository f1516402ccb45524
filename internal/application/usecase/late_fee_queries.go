package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/application/dto"
	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
	"github.com/kredexa/lending-engine/pkg/dates"
	"github.com/kredexa/lending-engine/pkg/money"
)

// LateFeeQueries serves the read-only late-fee endpoints. No mutation.
type LateFeeQueries struct {
	repayments port.RepaymentRepository
	lateFees   port.LateFeeRepository
	logs       port.ProcessingLogRepository
	alerts     port.AlertStore
	loc        *time.Location
	now        func() time.Time
}

// NewLateFeeQueries wires dependencies. alerts may be nil.
func NewLateFeeQueries(
	repayments port.RepaymentRepository,
	lateFees port.LateFeeRepository,
	logs port.ProcessingLogRepository,
	alerts port.AlertStore,
) *LateFeeQueries {
	return &LateFeeQueries{
		repayments: repayments,
		lateFees:   lateFees,
		logs:       logs,
		alerts:     alerts,
		loc:        dates.BusinessDay,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Intended for tests.
func (q *LateFeeQueries) WithClock(now func() time.Time) *LateFeeQueries {
	q.now = now
	return q
}

// LateFeesSummary returns a repayment's fee charges with totals by status.
func (q *LateFeeQueries) LateFeesSummary(ctx context.Context, repaymentID string) (dto.LateFeesSummary, error) {
	if _, err := q.repayments.FindByID(ctx, repaymentID); err != nil {
		return dto.LateFeesSummary{}, fmt.Errorf("find repayment: %w", err)
	}

	fees, err := q.lateFees.FindByRepaymentID(ctx, repaymentID)
	if err != nil {
		return dto.LateFeesSummary{}, fmt.Errorf("find fees: %w", err)
	}

	summary := dto.LateFeesSummary{
		RepaymentID: repaymentID,
		Fees:        make([]dto.LateFeeView, 0, len(fees)),
		TotalActive: decimal.Zero,
		TotalWaived: decimal.Zero,
		TotalPaid:   decimal.Zero,
	}
	for _, fee := range fees {
		summary.Fees = append(summary.Fees, dto.LateFeeView{
			ID:              fee.ID(),
			FeeAmount:       fee.FeeAmount(),
			CalculationDate: fee.CalculationDate(),
			PeriodIndex:     fee.PeriodIndex(),
			Status:          fee.Status().String(),
		})
		switch {
		case fee.Status().Equal(valueobject.LateFeeStatusActive):
			summary.TotalActive = money.Add(summary.TotalActive, fee.FeeAmount())
		case fee.Status().Equal(valueobject.LateFeeStatusWaived):
			summary.TotalWaived = money.Add(summary.TotalWaived, fee.FeeAmount())
		case fee.Status().Equal(valueobject.LateFeeStatusPaid):
			summary.TotalPaid = money.Add(summary.TotalPaid, fee.FeeAmount())
		}
	}
	return summary, nil
}

// TotalAmountDue returns unpaid scheduled principal+interest plus active fees.
func (q *LateFeeQueries) TotalAmountDue(ctx context.Context, repaymentID string) (dto.TotalAmountDue, error) {
	rep, err := q.repayments.FindByID(ctx, repaymentID)
	if err != nil {
		return dto.TotalAmountDue{}, fmt.Errorf("find repayment: %w", err)
	}

	fees, err := q.lateFees.FindActiveByRepaymentID(ctx, repaymentID)
	if err != nil {
		return dto.TotalAmountDue{}, fmt.Errorf("find active fees: %w", err)
	}

	activeTotal := decimal.Zero
	for _, fee := range fees {
		activeTotal = money.Add(activeTotal, fee.FeeAmount())
	}

	outstanding := rep.Outstanding()
	return dto.TotalAmountDue{
		RepaymentID:          repaymentID,
		OutstandingScheduled: outstanding,
		ActiveFees:           activeTotal,
		Total:                money.Add(outstanding, activeTotal),
	}, nil
}

// ProcessingStatus returns the latest run and any pending alerts.
func (q *LateFeeQueries) ProcessingStatus(ctx context.Context) (dto.ProcessingStatus, error) {
	status := dto.ProcessingStatus{PendingAlerts: []dto.AlertView{}}

	latest, err := q.logs.Latest(ctx)
	switch {
	case errors.Is(err, port.ErrNotFound):
		// No runs yet.
	case err != nil:
		return dto.ProcessingStatus{}, fmt.Errorf("find latest run: %w", err)
	default:
		view := toLogView(latest)
		status.LastRun = &view
	}

	today := dates.StartOfDay(q.now(), q.loc)
	ran, err := q.logs.HasAutoRunOn(ctx, today)
	if err != nil {
		return dto.ProcessingStatus{}, fmt.Errorf("check daily run: %w", err)
	}
	status.RanToday = ran

	if q.alerts != nil {
		alerts, err := q.alerts.List()
		if err != nil {
			return dto.ProcessingStatus{}, fmt.Errorf("list alerts: %w", err)
		}
		for _, a := range alerts {
			status.PendingAlerts = append(status.PendingAlerts, dto.AlertView{
				Name:      a.Name,
				Message:   a.Message,
				CreatedAt: a.CreatedAt,
			})
		}
	}
	return status, nil
}

// ProcessingLogs returns the most recent run-log rows, newest first.
func (q *LateFeeQueries) ProcessingLogs(ctx context.Context, limit int) ([]dto.ProcessingLogView, error) {
	if limit <= 0 {
		limit = 20
	}
	logs, err := q.logs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list processing logs: %w", err)
	}
	views := make([]dto.ProcessingLogView, 0, len(logs))
	for _, l := range logs {
		views = append(views, toLogView(l))
	}
	return views, nil
}

// ClearAlerts removes all pending alert markers.
func (q *LateFeeQueries) ClearAlerts() error {
	if q.alerts == nil {
		return nil
	}
	return q.alerts.Clear()
}

func toLogView(l model.ProcessingLog) dto.ProcessingLogView {
	return dto.ProcessingLogView{
		ID:                    l.ID(),
		RunDate:               l.RunDate(),
		ProcessedAt:           l.ProcessedAt(),
		IsManual:              l.IsManual(),
		Status:                l.Status().String(),
		FeesCalculated:        l.FeesCalculated(),
		TotalFeeAmount:        l.TotalFeeAmount(),
		OverdueRepaymentsSeen: l.OverdueRepaymentsSeen(),
		ProcessingTimeMs:      l.ProcessingTimeMs(),
		Metadata:              l.Metadata(),
	}
}
