package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kredexa/lending-engine/internal/application/usecase"
	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
	"github.com/kredexa/lending-engine/pkg/dates"
)

func TestLateFeesSummary_GroupsTotalsByStatus(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	repayments := &mockRepaymentRepo{
		findByIDFn: func(ctx context.Context, id string) (model.Repayment, error) {
			return testRepayment("rep-1", "loan-1", due, "9900", "100"), nil
		},
	}

	active := testFee("rep-1", "15.40", 1)
	waived, err := testFee("rep-1", "15.40", 2).Waive()
	require.NoError(t, err)
	paid, err := testFee("rep-1", "15.40", 3).MarkPaid()
	require.NoError(t, err)

	lateFees := &mockLateFeeRepo{
		findByRepaymentIDFn: func(ctx context.Context, repaymentID string) ([]model.LateFee, error) {
			return []model.LateFee{active, waived, paid}, nil
		},
	}

	q := usecase.NewLateFeeQueries(repayments, lateFees, &mockProcessingLogRepo{}, nil)
	summary, err := q.LateFeesSummary(context.Background(), "rep-1")
	require.NoError(t, err)

	assert.Len(t, summary.Fees, 3)
	assert.True(t, summary.TotalActive.Equal(dec("15.40")))
	assert.True(t, summary.TotalWaived.Equal(dec("15.40")))
	assert.True(t, summary.TotalPaid.Equal(dec("15.40")))
}

func TestTotalAmountDue_AddsActiveFeesToOutstanding(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	repayments := &mockRepaymentRepo{
		findByIDFn: func(ctx context.Context, id string) (model.Repayment, error) {
			return testRepayment("rep-1", "loan-1", due, "9900", "100"), nil
		},
	}
	lateFees := &mockLateFeeRepo{
		findActiveByRepaymentIDFn: func(ctx context.Context, repaymentID string) ([]model.LateFee, error) {
			return []model.LateFee{testFee("rep-1", "15.40", 1), testFee("rep-1", "15.40", 2)}, nil
		},
	}

	q := usecase.NewLateFeeQueries(repayments, lateFees, &mockProcessingLogRepo{}, nil)
	total, err := q.TotalAmountDue(context.Background(), "rep-1")
	require.NoError(t, err)

	assert.True(t, total.OutstandingScheduled.Equal(dec("10000")))
	assert.True(t, total.ActiveFees.Equal(dec("30.80")))
	assert.True(t, total.Total.Equal(dec("10030.80")), "got %s", total.Total)
}

func TestProcessingStatus_NoRunsYet(t *testing.T) {
	q := usecase.NewLateFeeQueries(&mockRepaymentRepo{}, &mockLateFeeRepo{}, &mockProcessingLogRepo{}, &mockAlertStore{})
	status, err := q.ProcessingStatus(context.Background())
	require.NoError(t, err)

	assert.Nil(t, status.LastRun)
	assert.False(t, status.RanToday)
	assert.Empty(t, status.PendingAlerts)
}

func TestProcessingStatus_ReportsLatestRunAndAlerts(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, dates.BusinessDay)
	runDate := dates.StartOfDay(now, dates.BusinessDay)
	logRow, err := model.NewProcessingLog(
		runDate, false, valueobject.RunStatusCompleted, 3, dec("46.20"), 5, 120, nil, now,
	)
	require.NoError(t, err)

	logs := &mockProcessingLogRepo{
		latestFn:       func(ctx context.Context) (model.ProcessingLog, error) { return logRow, nil },
		hasAutoRunOnFn: func(ctx context.Context, date time.Time) (bool, error) { return true, nil },
	}
	alerts := &mockAlertStore{}
	require.NoError(t, alerts.Write(alertFixture(now)))

	q := usecase.NewLateFeeQueries(&mockRepaymentRepo{}, &mockLateFeeRepo{}, logs, alerts).
		WithClock(func() time.Time { return now })
	status, err := q.ProcessingStatus(context.Background())
	require.NoError(t, err)

	require.NotNil(t, status.LastRun)
	assert.Equal(t, 3, status.LastRun.FeesCalculated)
	assert.True(t, status.RanToday)
	require.Len(t, status.PendingAlerts, 1)
	assert.Equal(t, "late-fee-total-exceeded", status.PendingAlerts[0].Name)
}
