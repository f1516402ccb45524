package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/pkg/dates"
	"github.com/kredexa/lending-engine/pkg/money"
)

// FeeAssessment is one newly-due fee charge produced by the calculator.
type FeeAssessment struct {
	Amount          decimal.Decimal
	CalculationDate time.Time
	PeriodIndex     int
}

// FeeCalculator computes periodic late-fee charges for overdue repayments.
// Accrual is periodic, not per-day compounding: one charge becomes due every
// FrequencyDays billable days past the grace span, and only periods not yet
// recorded for the repayment are returned. Calling the calculator twice with
// the same inputs therefore yields nothing the second time, which is what
// makes processor runs idempotent.
type FeeCalculator struct {
	loc *time.Location
}

// NewFeeCalculator creates a calculator anchored on the given day-boundary
// location. Pass dates.BusinessDay for the platform's canonical UTC+8 day.
func NewFeeCalculator(loc *time.Location) *FeeCalculator {
	if loc == nil {
		loc = dates.BusinessDay
	}
	return &FeeCalculator{loc: loc}
}

// DaysOverdue returns the repayment's overdue age in whole business days.
func (c *FeeCalculator) DaysOverdue(rep model.Repayment, asOf time.Time) int {
	return dates.DaysOverdue(rep.DueDate(), asOf, c.loc)
}

// CalculateNewFees returns the fee charges that have become due for rep and
// are not yet recorded. chargedThroughPeriod is the highest period index
// already persisted for the repayment (0 when none).
//
// Grace days, when enabled, are never charged: the fee clock starts after
// the grace span rather than being deferred. Each charge is
// AccrueHighPrecision(outstanding, dailyRate, FrequencyDays) plus the
// policy's fixed amount.
func (c *FeeCalculator) CalculateNewFees(
	rep model.Repayment,
	policy model.FeePolicy,
	chargedThroughPeriod int,
	asOf time.Time,
) ([]FeeAssessment, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy for product %q: %w", policy.ProductCode, err)
	}
	if chargedThroughPeriod < 0 {
		return nil, fmt.Errorf("charged-through period must not be negative, got %d", chargedThroughPeriod)
	}

	daysOverdue := c.DaysOverdue(rep, asOf)
	if daysOverdue == 0 {
		return nil, nil
	}

	grace := policy.EffectiveGraceDays()
	if policy.GraceEnabled && daysOverdue <= policy.GraceDays {
		return nil, nil
	}

	billableDays := daysOverdue - grace
	if billableDays <= 0 {
		return nil, nil
	}

	elapsedPeriods := billableDays / policy.FrequencyDays
	if elapsedPeriods <= chargedThroughPeriod {
		return nil, nil
	}

	perPeriod := money.AccrueHighPrecision(rep.Outstanding(), policy.DailyRateFraction(), policy.FrequencyDays)
	perPeriod = money.Add(perPeriod, policy.FixedAmount)

	dueStart := dates.StartOfDay(rep.DueDate(), c.loc)
	assessments := make([]FeeAssessment, 0, elapsedPeriods-chargedThroughPeriod)
	for idx := chargedThroughPeriod + 1; idx <= elapsedPeriods; idx++ {
		assessments = append(assessments, FeeAssessment{
			Amount: perPeriod,
			// The date the period's charge became due: grace span plus idx
			// full fee periods past the due date.
			CalculationDate: dueStart.AddDate(0, 0, grace+idx*policy.FrequencyDays),
			PeriodIndex:     idx,
		})
	}
	return assessments, nil
}
