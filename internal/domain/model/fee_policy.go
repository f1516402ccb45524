package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidFeePolicy signals missing or inconsistent fee configuration for a
// product. The processor skips the affected repayment and continues the run.
var ErrInvalidFeePolicy = errors.New("invalid fee policy")

// FeePolicy is the late-fee configuration a product supplies to the
// calculator. DailyRatePercent is a percentage per day (0.022 means 0.022%/day);
// a fee of AccrueHighPrecision(base, DailyRatePercent/100, FrequencyDays) plus
// FixedAmount is charged once per elapsed FrequencyDays window. Grace days,
// when enabled, are never charged.
type FeePolicy struct {
	ProductCode      string
	DailyRatePercent decimal.Decimal
	FixedAmount      decimal.Decimal
	FrequencyDays    int
	GraceEnabled     bool
	GraceDays        int
}

// Validate checks the policy values and wraps ErrInvalidFeePolicy on any
// violation so callers can classify the failure.
func (p FeePolicy) Validate() error {
	if p.ProductCode == "" {
		return fmt.Errorf("%w: missing product code", ErrInvalidFeePolicy)
	}
	if p.DailyRatePercent.IsNegative() {
		return fmt.Errorf("%w: daily rate must not be negative", ErrInvalidFeePolicy)
	}
	if p.FixedAmount.IsNegative() {
		return fmt.Errorf("%w: fixed amount must not be negative", ErrInvalidFeePolicy)
	}
	if p.DailyRatePercent.IsZero() && p.FixedAmount.IsZero() {
		return fmt.Errorf("%w: daily rate and fixed amount are both zero", ErrInvalidFeePolicy)
	}
	if p.FrequencyDays <= 0 {
		return fmt.Errorf("%w: frequency days must be positive", ErrInvalidFeePolicy)
	}
	if p.GraceEnabled && p.GraceDays < 0 {
		return fmt.Errorf("%w: grace days must not be negative", ErrInvalidFeePolicy)
	}
	return nil
}

// DailyRateFraction converts the percentage rate to a plain fraction at full
// precision (0.022 -> 0.00022). No rounding: the calculator rounds once at
// the end of the accrual.
func (p FeePolicy) DailyRateFraction() decimal.Decimal {
	return p.DailyRatePercent.Div(decimal.NewFromInt(100))
}

// EffectiveGraceDays returns the grace span the calculator must skip.
func (p FeePolicy) EffectiveGraceDays() int {
	if !p.GraceEnabled {
		return 0
	}
	return p.GraceDays
}

// RiskPolicy holds the platform-wide default-risk thresholds sourced from
// system settings.
type RiskPolicy struct {
	RiskDays   int
	RemedyDays int
}

// Validate checks the threshold values.
func (p RiskPolicy) Validate() error {
	if p.RiskDays <= 0 {
		return fmt.Errorf("%w: risk days must be positive", ErrInvalidFeePolicy)
	}
	if p.RemedyDays <= 0 {
		return fmt.Errorf("%w: remedy days must be positive", ErrInvalidFeePolicy)
	}
	return nil
}
