package service_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/service"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
	"github.com/kredexa/lending-engine/pkg/dates"
)

func overdueRepayment(t *testing.T, due time.Time, principal, interest string) model.Repayment {
	t.Helper()
	return model.ReconstructRepayment(
		"rep-1", "loan-1", 1, due,
		decimal.RequireFromString(principal), decimal.RequireFromString(interest),
		decimal.Zero, decimal.Zero,
		valueobject.RepaymentStatusOverdue, 1, due, due,
	)
}

func weeklyPolicy() model.FeePolicy {
	return model.FeePolicy{
		ProductCode:      "SME-STD",
		DailyRatePercent: decimal.RequireFromString("0.022"),
		FixedAmount:      decimal.Zero,
		FrequencyDays:    7,
	}
}

func TestCalculateNewFees_OnePeriod(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	rep := overdueRepayment(t, due, "9900", "100")
	calc := service.NewFeeCalculator(dates.BusinessDay)

	fees, err := calc.CalculateNewFees(rep, weeklyPolicy(), 0, due.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, fees, 1)

	// 10000 outstanding * 0.022%/day * 7 days = 15.40, rounded once.
	assert.True(t, fees[0].Amount.Equal(decimal.RequireFromString("15.40")), "got %s", fees[0].Amount)
	assert.Equal(t, 1, fees[0].PeriodIndex)
	assert.Equal(t, due.AddDate(0, 0, 7), fees[0].CalculationDate)
}

func TestCalculateNewFees_NotYetOverdue(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	rep := overdueRepayment(t, due, "9900", "100")
	calc := service.NewFeeCalculator(dates.BusinessDay)

	fees, err := calc.CalculateNewFees(rep, weeklyPolicy(), 0, due)
	require.NoError(t, err)
	assert.Empty(t, fees)

	fees, err = calc.CalculateNewFees(rep, weeklyPolicy(), 0, due.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Empty(t, fees, "first period not yet complete")
}

func TestCalculateNewFees_CatchesUpMissedPeriods(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	rep := overdueRepayment(t, due, "9900", "100")
	calc := service.NewFeeCalculator(dates.BusinessDay)

	// 22 days overdue with nothing charged: periods 1, 2 and 3 are all due.
	fees, err := calc.CalculateNewFees(rep, weeklyPolicy(), 0, due.AddDate(0, 0, 22))
	require.NoError(t, err)
	require.Len(t, fees, 3)
	for i, fee := range fees {
		assert.Equal(t, i+1, fee.PeriodIndex)
		assert.True(t, fee.Amount.Equal(decimal.RequireFromString("15.40")))
		assert.Equal(t, due.AddDate(0, 0, (i+1)*7), fee.CalculationDate)
	}
}

func TestCalculateNewFees_AlreadyChargedPeriodsAreSkipped(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	rep := overdueRepayment(t, due, "9900", "100")
	calc := service.NewFeeCalculator(dates.BusinessDay)

	fees, err := calc.CalculateNewFees(rep, weeklyPolicy(), 2, due.AddDate(0, 0, 22))
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, 3, fees[0].PeriodIndex)

	// Running again with everything charged yields nothing.
	fees, err = calc.CalculateNewFees(rep, weeklyPolicy(), 3, due.AddDate(0, 0, 22))
	require.NoError(t, err)
	assert.Empty(t, fees)
}

func TestCalculateNewFees_GraceShiftsTheFeeClock(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	rep := overdueRepayment(t, due, "9900", "100")
	calc := service.NewFeeCalculator(dates.BusinessDay)

	policy := weeklyPolicy()
	policy.GraceEnabled = true
	policy.GraceDays = 3

	fees, err := calc.CalculateNewFees(rep, policy, 0, due.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Empty(t, fees, "inside the grace span")

	fees, err = calc.CalculateNewFees(rep, policy, 0, due.AddDate(0, 0, 9))
	require.NoError(t, err)
	assert.Empty(t, fees, "six billable days, first period incomplete")

	fees, err = calc.CalculateNewFees(rep, policy, 0, due.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Len(t, fees, 1)
	// Grace days themselves are never charged; the period still prices seven
	// days of accrual.
	assert.True(t, fees[0].Amount.Equal(decimal.RequireFromString("15.40")))
	assert.Equal(t, due.AddDate(0, 0, 10), fees[0].CalculationDate)
}

func TestCalculateNewFees_PartiallyPaidBaseShrinks(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	rep := model.ReconstructRepayment(
		"rep-1", "loan-1", 1, due,
		decimal.RequireFromString("9900"), decimal.RequireFromString("100"),
		decimal.RequireFromString("5000"), decimal.RequireFromString("4900"),
		valueobject.RepaymentStatusOverdue, 1, due, due,
	)
	calc := service.NewFeeCalculator(dates.BusinessDay)

	fees, err := calc.CalculateNewFees(rep, weeklyPolicy(), 0, due.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, fees, 1)
	// Fees accrue on the unpaid 5000, not the scheduled 10000.
	assert.True(t, fees[0].Amount.Equal(decimal.RequireFromString("7.70")), "got %s", fees[0].Amount)
}

func TestCalculateNewFees_FixedAmountAddsPerPeriod(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	rep := overdueRepayment(t, due, "9900", "100")
	calc := service.NewFeeCalculator(dates.BusinessDay)

	policy := weeklyPolicy()
	policy.FixedAmount = decimal.RequireFromString("5.00")

	fees, err := calc.CalculateNewFees(rep, policy, 0, due.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.True(t, fees[0].Amount.Equal(decimal.RequireFromString("20.40")), "got %s", fees[0].Amount)
}

func TestCalculateNewFees_InvalidPolicy(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	rep := overdueRepayment(t, due, "9900", "100")
	calc := service.NewFeeCalculator(dates.BusinessDay)

	policy := weeklyPolicy()
	policy.FrequencyDays = 0

	_, err := calc.CalculateNewFees(rep, policy, 0, due.AddDate(0, 0, 7))
	assert.ErrorIs(t, err, model.ErrInvalidFeePolicy)

	_, err = calc.CalculateNewFees(rep, weeklyPolicy(), -1, due.AddDate(0, 0, 7))
	assert.Error(t, err)
}

func TestDaysOverdue_UsesBusinessDayBoundary(t *testing.T) {
	calc := service.NewFeeCalculator(dates.BusinessDay)
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, dates.BusinessDay)
	rep := overdueRepayment(t, due, "9900", "100")

	// 23:00 UTC on March 8 is already March 9 in UTC+8.
	asOf := time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, 8, calc.DaysOverdue(rep, asOf))

	assert.Equal(t, 0, calc.DaysOverdue(rep, due.AddDate(0, 0, -1)), "never negative")
}
