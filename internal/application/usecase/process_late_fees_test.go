package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kredexa/lending-engine/internal/application/usecase"
	"github.com/kredexa/lending-engine/internal/domain/event"
	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
	"github.com/kredexa/lending-engine/internal/domain/service"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
	"github.com/kredexa/lending-engine/pkg/dates"
)

func newProcessor(
	repayments *mockRepaymentRepo,
	lateFees *mockLateFeeRepo,
	logs *mockProcessingLogRepo,
	ledger *mockLedgerUnit,
	settings port.EngineSettings,
	publisher *mockPublisher,
	alerts *mockAlertStore,
	now time.Time,
) *usecase.ProcessLateFeesUseCase {
	// Convert typed-nil mocks to nil interfaces so the use case's own
	// nil guards apply, as they would in production wiring.
	var pub port.EventPublisher
	if publisher != nil {
		pub = publisher
	}
	var alertStore port.AlertStore
	if alerts != nil {
		alertStore = alerts
	}
	uc := usecase.NewProcessLateFeesUseCase(
		repayments, lateFees, logs, ledger,
		&mockSettingsRepo{settings: settings},
		pub, alertStore,
		service.NewFeeCalculator(dates.BusinessDay),
		service.NewRiskEvaluator(),
		nil,
		testLogger(),
	)
	return uc.WithClock(func() time.Time { return now })
}

func TestProcessLateFees_AccruesOnePeriodFee(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	runAt := due.AddDate(0, 0, 7)
	rep := testRepayment("rep-1", "loan-1", due, "9900", "100")
	loan := testLoan("loan-1", dec("10000"))

	repayments := &mockRepaymentRepo{
		findOverdueFn: func(ctx context.Context, asOf time.Time) ([]port.OverdueInstallment, error) {
			return []port.OverdueInstallment{{Repayment: rep, Loan: loan, Policy: testPolicy()}}, nil
		},
	}

	var capturedLoan model.Loan
	var capturedReps []model.Repayment
	var capturedFees []model.LateFee
	ledger := &mockLedgerUnit{
		applyFeeAssessmentFn: func(ctx context.Context, l model.Loan, reps []model.Repayment, fees []model.LateFee) error {
			capturedLoan, capturedReps, capturedFees = l, reps, fees
			return nil
		},
	}
	logs := &mockProcessingLogRepo{}
	publisher := &mockPublisher{}

	uc := newProcessor(repayments, &mockLateFeeRepo{}, logs, ledger, testSettings(), publisher, nil, runAt)
	result, err := uc.Execute(context.Background(), false)
	require.NoError(t, err)

	assert.False(t, result.AlreadyRanToday)
	assert.Equal(t, 1, result.FeesCalculated)
	assert.Equal(t, 1, result.OverdueRepayments)
	assert.Empty(t, result.Errors)
	// 10000 * 0.022%/day * 7 days, rounded once at the end.
	assert.True(t, result.TotalFeeAmount.Equal(dec("15.40")), "got %s", result.TotalFeeAmount)

	require.Len(t, capturedFees, 1)
	assert.True(t, capturedFees[0].FeeAmount().Equal(dec("15.40")))
	assert.Equal(t, 1, capturedFees[0].PeriodIndex())
	assert.Equal(t, "rep-1", capturedFees[0].RepaymentID())

	require.Len(t, capturedReps, 1)
	assert.True(t, capturedReps[0].Status().Equal(valueobject.RepaymentStatusOverdue))
	assert.Equal(t, 7, capturedLoan.DaysOverdue())

	require.Len(t, logs.inserted, 1)
	assert.True(t, logs.inserted[0].Status().Equal(valueobject.RunStatusCompleted))
	assert.False(t, logs.inserted[0].IsManual())

	require.NotEmpty(t, publisher.published)
	assessed, ok := publisher.published[len(publisher.published)-1].(event.LateFeesAssessed)
	require.True(t, ok)
	assert.Equal(t, "rep-1", assessed.AggregateID())
}

func TestProcessLateFees_SkipsWhenAlreadyRanToday(t *testing.T) {
	overdueCalled := false
	repayments := &mockRepaymentRepo{
		findOverdueFn: func(ctx context.Context, asOf time.Time) ([]port.OverdueInstallment, error) {
			overdueCalled = true
			return nil, nil
		},
	}
	logs := &mockProcessingLogRepo{
		hasAutoRunOnFn: func(ctx context.Context, date time.Time) (bool, error) { return true, nil },
	}

	uc := newProcessor(repayments, &mockLateFeeRepo{}, logs, &mockLedgerUnit{}, testSettings(), nil, nil, time.Now())
	result, err := uc.Execute(context.Background(), false)
	require.NoError(t, err)

	assert.True(t, result.AlreadyRanToday)
	assert.False(t, overdueCalled)
}

func TestProcessLateFees_ForceBypassesDailyGuard(t *testing.T) {
	logs := &mockProcessingLogRepo{
		hasAutoRunOnFn: func(ctx context.Context, date time.Time) (bool, error) {
			t.Fatal("daily guard must not be checked on a forced run")
			return true, nil
		},
	}

	uc := newProcessor(&mockRepaymentRepo{}, &mockLateFeeRepo{}, logs, &mockLedgerUnit{}, testSettings(), nil, nil, time.Now())
	result, err := uc.Execute(context.Background(), true)
	require.NoError(t, err)

	assert.False(t, result.AlreadyRanToday)
	assert.True(t, result.IsManualRun)
	require.Len(t, logs.inserted, 1)
	assert.True(t, logs.inserted[0].IsManual())
}

func TestProcessLateFees_ConcurrentRunLosesInsertRace(t *testing.T) {
	logs := &mockProcessingLogRepo{
		insertFn: func(ctx context.Context, log model.ProcessingLog) error { return port.ErrDuplicateRun },
	}

	uc := newProcessor(&mockRepaymentRepo{}, &mockLateFeeRepo{}, logs, &mockLedgerUnit{}, testSettings(), nil, nil, time.Now())
	result, err := uc.Execute(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, result.AlreadyRanToday)
}

func TestProcessLateFees_AlreadyChargedPeriodsAreNotRecharged(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	runAt := due.AddDate(0, 0, 7)
	rep := testRepayment("rep-1", "loan-1", due, "9900", "100")

	repayments := &mockRepaymentRepo{
		findOverdueFn: func(ctx context.Context, asOf time.Time) ([]port.OverdueInstallment, error) {
			return []port.OverdueInstallment{{Repayment: rep, Loan: testLoan("loan-1", dec("10000")), Policy: testPolicy()}}, nil
		},
	}
	lateFees := &mockLateFeeRepo{
		maxPeriodIndexFn: func(ctx context.Context, repaymentID string) (int, error) { return 1, nil },
	}
	logs := &mockProcessingLogRepo{}

	uc := newProcessor(repayments, lateFees, logs, &mockLedgerUnit{}, testSettings(), nil, nil, runAt)
	result, err := uc.Execute(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 0, result.FeesCalculated)
	assert.True(t, result.TotalFeeAmount.IsZero())
	assert.Empty(t, result.Errors)
	require.Len(t, logs.inserted, 1)
}

func TestProcessLateFees_GraceDaysAreNeverCharged(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	rep := testRepayment("rep-1", "loan-1", due, "9900", "100")
	settings := testSettings()
	settings.GraceEnabled = true
	settings.GraceDays = 3

	run := func(daysOverdue int) int {
		repayments := &mockRepaymentRepo{
			findOverdueFn: func(ctx context.Context, asOf time.Time) ([]port.OverdueInstallment, error) {
				return []port.OverdueInstallment{{Repayment: rep, Loan: testLoan("loan-1", dec("10000")), Policy: testPolicy()}}, nil
			},
		}
		uc := newProcessor(repayments, &mockLateFeeRepo{}, &mockProcessingLogRepo{}, &mockLedgerUnit{},
			settings, nil, nil, due.AddDate(0, 0, daysOverdue))
		result, err := uc.Execute(context.Background(), true)
		require.NoError(t, err)
		return result.FeesCalculated
	}

	assert.Equal(t, 0, run(3), "inside grace span")
	assert.Equal(t, 0, run(9), "grace skipped, first period not yet complete")
	assert.Equal(t, 1, run(10), "first billable period complete")
}

func TestProcessLateFees_FailuresAreIsolatedPerRepayment(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	runAt := due.AddDate(0, 0, 7)

	rows := []port.OverdueInstallment{
		{Repayment: testRepayment("rep-1", "loan-1", due, "9900", "100"), Loan: testLoan("loan-1", dec("10000")), Policy: testPolicy()},
		{Repayment: testRepayment("rep-2", "loan-2", due, "9900", "100"), Loan: testLoan("loan-2", dec("10000")), Policy: testPolicy()},
		{Repayment: testRepayment("rep-3", "loan-3", due, "9900", "100"), Loan: testLoan("loan-3", dec("10000")), Policy: testPolicy()},
	}
	repayments := &mockRepaymentRepo{
		findOverdueFn: func(ctx context.Context, asOf time.Time) ([]port.OverdueInstallment, error) {
			return rows, nil
		},
	}
	lateFees := &mockLateFeeRepo{
		maxPeriodIndexFn: func(ctx context.Context, repaymentID string) (int, error) {
			if repaymentID == "rep-2" {
				return 0, assert.AnError
			}
			return 0, nil
		},
	}
	logs := &mockProcessingLogRepo{}

	uc := newProcessor(repayments, lateFees, logs, &mockLedgerUnit{}, testSettings(), nil, nil, runAt)
	result, err := uc.Execute(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.FeesCalculated)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "rep-2", result.Errors[0].RepaymentID)

	require.Len(t, logs.inserted, 1)
	assert.True(t, logs.inserted[0].Status().Equal(valueobject.RunStatusCompletedWithErrors))
}

func TestProcessLateFees_FlagsDefaultRiskAtThreshold(t *testing.T) {
	due := time.Date(2026, 2, 1, 0, 0, 0, 0, dates.BusinessDay)
	runAt := due.AddDate(0, 0, 30)
	rep := testRepayment("rep-1", "loan-1", due, "9900", "100")

	repayments := &mockRepaymentRepo{
		findOverdueFn: func(ctx context.Context, asOf time.Time) ([]port.OverdueInstallment, error) {
			return []port.OverdueInstallment{{Repayment: rep, Loan: testLoan("loan-1", dec("10000")), Policy: testPolicy()}}, nil
		},
	}
	var capturedLoan model.Loan
	ledger := &mockLedgerUnit{
		applyFeeAssessmentFn: func(ctx context.Context, l model.Loan, reps []model.Repayment, fees []model.LateFee) error {
			capturedLoan = l
			return nil
		},
	}
	publisher := &mockPublisher{}

	uc := newProcessor(repayments, &mockLateFeeRepo{}, &mockProcessingLogRepo{}, ledger, testSettings(), publisher, nil, runAt)
	_, err := uc.Execute(context.Background(), false)
	require.NoError(t, err)

	assert.True(t, capturedLoan.RiskState().Equal(valueobject.RiskStateRisk))
	require.NotNil(t, capturedLoan.RemedyDeadline())

	var flagged bool
	for _, evt := range publisher.published {
		if _, ok := evt.(event.LoanEnteredRisk); ok {
			flagged = true
		}
	}
	assert.True(t, flagged, "LoanEnteredRisk must be published")
}

func TestProcessLateFees_WritesAlertAboveThreshold(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	rep := testRepayment("rep-1", "loan-1", due, "9900", "100")
	settings := testSettings()
	settings.AlertThreshold = dec("10")

	repayments := &mockRepaymentRepo{
		findOverdueFn: func(ctx context.Context, asOf time.Time) ([]port.OverdueInstallment, error) {
			return []port.OverdueInstallment{{Repayment: rep, Loan: testLoan("loan-1", dec("10000")), Policy: testPolicy()}}, nil
		},
	}
	alerts := &mockAlertStore{}

	uc := newProcessor(repayments, &mockLateFeeRepo{}, &mockProcessingLogRepo{}, &mockLedgerUnit{},
		settings, nil, alerts, due.AddDate(0, 0, 7))
	_, err := uc.Execute(context.Background(), false)
	require.NoError(t, err)

	require.Len(t, alerts.alerts, 1)
	assert.Equal(t, "late-fee-total-exceeded", alerts.alerts[0].Name)
}
