package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kredexa/lending-engine/pkg/money"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no rounding needed", "15.40", "15.4"},
		{"rounds half up", "10.005", "10.01"},
		{"rounds half away from zero for negatives", "-10.005", "-10.01"},
		{"truncates below half", "2.204", "2.2"},
		{"many decimals", "0.022222222", "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := money.Round2(dec(tt.in))
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestArithmeticRoundsEveryStep(t *testing.T) {
	a := dec("10.105")
	b := dec("0.002")

	assert.Equal(t, "10.11", money.Add(a, b).String())
	assert.Equal(t, "10.1", money.Sub(a, b).String())
	assert.Equal(t, "0.02", money.Mul(a, b).String())
}

func TestDiv(t *testing.T) {
	t.Run("divides and rounds", func(t *testing.T) {
		got, err := money.Div(dec("10"), dec("3"))
		require.NoError(t, err)
		assert.Equal(t, "3.33", got.String())
	})

	t.Run("fails on zero divisor", func(t *testing.T) {
		_, err := money.Div(dec("10"), decimal.Zero)
		require.ErrorIs(t, err, money.ErrDivisionByZero)
	})
}

func TestAccrueHighPrecision(t *testing.T) {
	t.Run("rounds only the final result", func(t *testing.T) {
		// 1000 * 0.00022 * 10 = 2.2 exactly. Per-step rounding would have
		// collapsed 0.00022 to 0.00 and produced zero.
		got := money.AccrueHighPrecision(dec("1000"), dec("0.00022"), 10)
		assert.Equal(t, "2.2", got.String())
	})

	t.Run("weekly accrual on a standard balance", func(t *testing.T) {
		// 10000 * 0.00022 * 7 = 15.4
		got := money.AccrueHighPrecision(dec("10000"), dec("0.00022"), 7)
		assert.Equal(t, "15.4", got.String())
	})

	t.Run("zero days accrues nothing", func(t *testing.T) {
		got := money.AccrueHighPrecision(dec("10000"), dec("0.00022"), 0)
		assert.True(t, got.IsZero())
	})
}
