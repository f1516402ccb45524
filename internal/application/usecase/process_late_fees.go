package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/application/dto"
	"github.com/kredexa/lending-engine/internal/domain/event"
	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
	"github.com/kredexa/lending-engine/internal/domain/service"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
	"github.com/kredexa/lending-engine/pkg/dates"
	"github.com/kredexa/lending-engine/pkg/money"
	"github.com/kredexa/lending-engine/pkg/observability"
)

// ProcessLateFeesUseCase is the daily batch entry point: it walks all overdue
// installments, assesses new fee charges, updates loan/repayment aggregates,
// drives the default-risk state machine, and records one audit log row per
// run. Per-repayment failures are isolated into the result; only run-level
// failures (cannot read the ledger, cannot write the log) abort.
type ProcessLateFeesUseCase struct {
	repayments port.RepaymentRepository
	lateFees   port.LateFeeRepository
	logs       port.ProcessingLogRepository
	ledger     port.LedgerUnit
	settings   port.SettingsRepository
	publisher  port.EventPublisher
	alerts     port.AlertStore
	calculator *service.FeeCalculator
	risk       *service.RiskEvaluator
	metrics    *observability.RunMetrics
	logger     *slog.Logger
	loc        *time.Location
	now        func() time.Time
}

// NewProcessLateFeesUseCase wires dependencies. metrics and alerts may be nil.
func NewProcessLateFeesUseCase(
	repayments port.RepaymentRepository,
	lateFees port.LateFeeRepository,
	logs port.ProcessingLogRepository,
	ledger port.LedgerUnit,
	settings port.SettingsRepository,
	publisher port.EventPublisher,
	alerts port.AlertStore,
	calculator *service.FeeCalculator,
	risk *service.RiskEvaluator,
	metrics *observability.RunMetrics,
	logger *slog.Logger,
) *ProcessLateFeesUseCase {
	return &ProcessLateFeesUseCase{
		repayments: repayments,
		lateFees:   lateFees,
		logs:       logs,
		ledger:     ledger,
		settings:   settings,
		publisher:  publisher,
		alerts:     alerts,
		calculator: calculator,
		risk:       risk,
		metrics:    metrics,
		logger:     logger,
		loc:        dates.BusinessDay,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Intended for tests.
func (uc *ProcessLateFeesUseCase) WithClock(now func() time.Time) *ProcessLateFeesUseCase {
	uc.now = now
	return uc
}

// Execute runs one processing pass. force bypasses the once-per-day guard
// for admin-triggered manual re-runs; idempotent fee accrual makes the rerun
// safe regardless.
func (uc *ProcessLateFeesUseCase) Execute(ctx context.Context, force bool) (dto.ProcessingResult, error) {
	start := uc.now()
	runDate := dates.StartOfDay(start, uc.loc)

	result := dto.ProcessingResult{
		RunDate:        runDate,
		IsManualRun:    force,
		TotalFeeAmount: decimal.Zero,
	}

	if !force {
		ran, err := uc.logs.HasAutoRunOn(ctx, runDate)
		if err != nil {
			return result, fmt.Errorf("check daily run: %w", err)
		}
		if ran {
			result.AlreadyRanToday = true
			return result, nil
		}
	}

	settings, err := uc.settings.EngineSettings(ctx)
	if err != nil {
		return result, fmt.Errorf("load engine settings: %w", err)
	}

	overdue, err := uc.repayments.FindOverdue(ctx, start)
	if err != nil {
		return result, fmt.Errorf("load overdue repayments: %w", err)
	}
	result.OverdueRepayments = len(overdue)

	var pending []event.DomainEvent
	totalFees := decimal.Zero

	for _, group := range groupByLoan(overdue) {
		feeSum, feeCount, evts := uc.processLoan(ctx, group, settings, start, &result)
		totalFees = money.Add(totalFees, feeSum)
		result.FeesCalculated += feeCount
		pending = append(pending, evts...)
	}
	result.TotalFeeAmount = totalFees
	result.ProcessingTimeMs = uc.now().Sub(start).Milliseconds()

	status := valueobject.RunStatusCompleted
	if len(result.Errors) > 0 {
		status = valueobject.RunStatusCompletedWithErrors
	}

	var metadata map[string]any
	if len(result.Errors) > 0 {
		metadata = map[string]any{"errors": result.Errors}
	}

	logRow, err := model.NewProcessingLog(
		runDate, force, status,
		result.FeesCalculated, totalFees, result.OverdueRepayments,
		result.ProcessingTimeMs, metadata, uc.now(),
	)
	if err != nil {
		return result, fmt.Errorf("build processing log: %w", err)
	}

	if err := uc.logs.Insert(ctx, logRow); err != nil {
		if errors.Is(err, port.ErrDuplicateRun) && !force {
			// A concurrent automatic run claimed the date first. Our fee
			// inserts were deduplicated by the per-period unique constraint,
			// so reporting a no-op is accurate.
			result.AlreadyRanToday = true
			return result, nil
		}
		return result, fmt.Errorf("write processing log: %w", err)
	}

	if len(pending) > 0 && uc.publisher != nil {
		// Fire and forget: notification delivery must not fail the run.
		if err := uc.publisher.Publish(ctx, pending...); err != nil {
			uc.logger.Error("publishing run events failed", "error", err, "events", len(pending))
		}
	}

	uc.maybeAlert(settings, totalFees, start)
	uc.record(status, result)

	uc.logger.Info("late fee processing run completed",
		"run_date", runDate.Format("2006-01-02"),
		"manual", force,
		"fees_calculated", result.FeesCalculated,
		"total_fee_amount", totalFees.String(),
		"overdue_repayments", result.OverdueRepayments,
		"errors", len(result.Errors),
	)
	return result, nil
}

// loanGroup is one loan's overdue installments, in schedule order.
type loanGroup struct {
	loan  model.Loan
	items []port.OverdueInstallment
}

func groupByLoan(overdue []port.OverdueInstallment) []loanGroup {
	var groups []loanGroup
	index := make(map[string]int)
	for _, item := range overdue {
		i, ok := index[item.Loan.ID()]
		if !ok {
			i = len(groups)
			index[item.Loan.ID()] = i
			groups = append(groups, loanGroup{loan: item.Loan})
		}
		groups[i].items = append(groups[i].items, item)
	}
	return groups
}

// processLoan assesses fees for one loan's overdue installments and persists
// the loan, its installments, and any new fee rows in a single transaction.
func (uc *ProcessLateFeesUseCase) processLoan(
	ctx context.Context,
	group loanGroup,
	settings port.EngineSettings,
	start time.Time,
	result *dto.ProcessingResult,
) (decimal.Decimal, int, []event.DomainEvent) {
	loan := group.loan
	feeSum := decimal.Zero
	maxDays := 0

	var (
		updatedReps []model.Repayment
		newFees     []model.LateFee
		repEvents   []event.DomainEvent
	)

	for _, item := range group.items {
		rep := item.Repayment
		days := uc.calculator.DaysOverdue(rep, start)
		if days > maxDays {
			maxDays = days
		}

		// Grace settings are global; the product policy supplies the rest.
		policy := item.Policy
		policy.GraceEnabled = settings.GraceEnabled
		policy.GraceDays = settings.GraceDays

		charged, err := uc.lateFees.MaxPeriodIndex(ctx, rep.ID())
		if err != nil {
			uc.recordError(result, rep.ID(), loan.ID(), fmt.Errorf("read charged periods: %w", err))
			continue
		}

		assessments, err := uc.calculator.CalculateNewFees(rep, policy, charged, start)
		if err != nil {
			uc.recordError(result, rep.ID(), loan.ID(), err)
			continue
		}

		rep = rep.MarkOverdue(start)
		updatedReps = append(updatedReps, rep)

		repTotal := decimal.Zero
		for _, a := range assessments {
			fee, err := model.NewLateFee(rep.ID(), a.Amount, a.CalculationDate, a.PeriodIndex, map[string]any{
				"daily_rate_percent": policy.DailyRatePercent.String(),
				"frequency_days":     policy.FrequencyDays,
				"days_overdue":       days,
			}, start)
			if err != nil {
				uc.recordError(result, rep.ID(), loan.ID(), fmt.Errorf("build fee row: %w", err))
				continue
			}
			newFees = append(newFees, fee)
			repTotal = money.Add(repTotal, fee.FeeAmount())
			feeSum = money.Add(feeSum, fee.FeeAmount())
		}
		if len(assessments) > 0 {
			repEvents = append(repEvents, event.NewLateFeesAssessed(rep.ID(), loan.ID(), len(assessments), repTotal, days))
		}
	}

	loan = loan.WithDaysOverdue(maxDays, start)
	loan, _, err := uc.risk.Evaluate(loan, maxDays, settings.Risk, start)
	if err != nil {
		uc.recordError(result, "", loan.ID(), fmt.Errorf("evaluate risk: %w", err))
		return decimal.Zero, 0, nil
	}

	if err := uc.ledger.ApplyFeeAssessment(ctx, loan, updatedReps, newFees); err != nil {
		uc.recordError(result, "", loan.ID(), fmt.Errorf("persist assessment: %w", err))
		return decimal.Zero, 0, nil
	}

	evts := append(loan.DomainEvents(), repEvents...)
	return feeSum, len(newFees), evts
}

func (uc *ProcessLateFeesUseCase) recordError(result *dto.ProcessingResult, repaymentID, loanID string, err error) {
	uc.logger.Warn("repayment skipped during late fee run",
		"repayment_id", repaymentID,
		"loan_id", loanID,
		"error", err,
	)
	result.Errors = append(result.Errors, dto.RunError{
		RepaymentID: repaymentID,
		LoanID:      loanID,
		Message:     err.Error(),
	})
}

func (uc *ProcessLateFeesUseCase) maybeAlert(settings port.EngineSettings, totalFees decimal.Decimal, start time.Time) {
	if uc.alerts == nil || !settings.AlertThreshold.IsPositive() || !totalFees.GreaterThan(settings.AlertThreshold) {
		return
	}
	alert := port.Alert{
		Name:      "late-fee-total-exceeded",
		Message:   fmt.Sprintf("run charged %s in late fees, above threshold %s", totalFees, settings.AlertThreshold),
		CreatedAt: start,
	}
	if err := uc.alerts.Write(alert); err != nil {
		uc.logger.Error("writing run alert failed", "error", err)
	}
}

func (uc *ProcessLateFeesUseCase) record(status valueobject.ProcessingRunStatus, result dto.ProcessingResult) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.RunsTotal.WithLabelValues(status.String()).Inc()
	uc.metrics.FeesCalculated.Add(float64(result.FeesCalculated))
	uc.metrics.FeeAmountTotal.Add(result.TotalFeeAmount.InexactFloat64())
	uc.metrics.RepaymentErrors.Add(float64(len(result.Errors)))
	uc.metrics.RunDurationMs.Observe(float64(result.ProcessingTimeMs))
}
