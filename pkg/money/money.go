// Package money provides fixed-point monetary arithmetic for the lending
// engine. Every operation rounds its result to 2 decimal places using
// round-half-away-from-zero, so chained calculations cannot accumulate
// floating-point drift.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrDivisionByZero is returned by Div when the divisor is zero.
var ErrDivisionByZero = errors.New("money: division by zero")

// Round2 rounds d to 2 decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Add returns a+b rounded to 2 decimal places.
func Add(a, b decimal.Decimal) decimal.Decimal {
	return Round2(a.Add(b))
}

// Sub returns a-b rounded to 2 decimal places.
func Sub(a, b decimal.Decimal) decimal.Decimal {
	return Round2(a.Sub(b))
}

// Mul returns a*b rounded to 2 decimal places.
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return Round2(a.Mul(b))
}

// Div returns a/b rounded to 2 decimal places. It fails with
// ErrDivisionByZero when b is zero.
func Div(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Decimal{}, ErrDivisionByZero
	}
	return Round2(a.Div(b)), nil
}

// AccrueHighPrecision computes base * dailyRate * days keeping full precision
// through the multiplication and rounding only the final result. Rounding
// after each intermediate step would distort small daily rates
// (e.g. 0.022%/day) accrued over long spans, so the single terminal rounding
// is intentional.
func AccrueHighPrecision(base, dailyRate decimal.Decimal, days int) decimal.Decimal {
	accrued := base.Mul(dailyRate).Mul(decimal.NewFromInt(int64(days)))
	return Round2(accrued)
}
