package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/domain/valueobject"
)

// GenerateInstallmentSchedule computes a standard fixed-payment amortization
// schedule and returns it as PENDING Repayment rows for the given loan.
//
// Parameters:
//   - principal:     the loan amount
//   - annualRateBps: annual interest rate in basis points (e.g. 500 = 5.00%)
//   - termMonths:    number of monthly periods
//   - startDate:     disbursement date; the first installment is due one month later
//
// The calculation uses:
//
//	monthlyRate = annualRateBps / 10_000 / 12
//	payment     = P * r * (1+r)^n / ((1+r)^n - 1)
func GenerateInstallmentSchedule(
	loanID string,
	principal decimal.Decimal,
	annualRateBps int,
	termMonths int,
	startDate time.Time,
) []Repayment {
	if termMonths <= 0 || principal.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	// Convert basis points to a monthly decimal rate using float64 for the
	// power calculation, then switch back to decimal for monetary arithmetic.
	annualRate := float64(annualRateBps) / 10_000.0
	monthlyRate := annualRate / 12.0

	n := float64(termMonths)
	var monthlyPayment decimal.Decimal

	if monthlyRate == 0 {
		// Zero-interest: even split.
		monthlyPayment = principal.Div(decimal.NewFromInt(int64(termMonths))).Round(2)
	} else {
		// P * r * (1+r)^n / ((1+r)^n - 1)
		factor := math.Pow(1+monthlyRate, n)
		paymentFloat := principal.InexactFloat64() * monthlyRate * factor / (factor - 1)
		monthlyPayment = decimal.NewFromFloat(paymentFloat).Round(2)
	}

	schedule := make([]Repayment, 0, termMonths)
	remaining := principal
	monthlyRateDec := decimal.NewFromFloat(monthlyRate)

	for period := 1; period <= termMonths; period++ {
		dueDate := startDate.AddDate(0, period, 0)

		interest := remaining.Mul(monthlyRateDec).Round(2)
		principalPart := monthlyPayment.Sub(interest)

		// Last period: the remaining balance becomes the principal part so
		// rounding differences cannot leave a residual balance.
		if period == termMonths {
			principalPart = remaining
		}

		if principalPart.LessThan(decimal.Zero) {
			principalPart = decimal.Zero
		}

		remaining = remaining.Sub(principalPart)
		if remaining.LessThan(decimal.Zero) {
			remaining = decimal.Zero
		}

		schedule = append(schedule, Repayment{
			id:                 uuid.New().String(),
			loanID:             loanID,
			period:             period,
			dueDate:            dueDate,
			scheduledPrincipal: principalPart,
			scheduledInterest:  interest,
			amountPaid:         decimal.Zero,
			principalPaid:      decimal.Zero,
			status:             valueobject.RepaymentStatusPending,
			version:            1,
			createdAt:          startDate,
			updatedAt:          startDate,
		})
	}

	return schedule
}
