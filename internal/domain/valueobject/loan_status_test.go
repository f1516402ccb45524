package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kredexa/lending-engine/internal/domain/valueobject"
)

func TestNewLoanStatus(t *testing.T) {
	for _, raw := range []string{"ACTIVE", "PENDING_DISCHARGE", "DEFAULTED", "CLOSED"} {
		s, err := valueobject.NewLoanStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, s.String())
		assert.False(t, s.IsZero())
	}

	_, err := valueobject.NewLoanStatus("SUSPENDED")
	assert.Error(t, err)
	_, err = valueobject.NewLoanStatus("active")
	assert.Error(t, err, "lowercase is rejected")
}

func TestLoanStatus_IsTerminal(t *testing.T) {
	assert.False(t, valueobject.LoanStatusActive.IsTerminal())
	assert.False(t, valueobject.LoanStatusPendingDischarge.IsTerminal())
	assert.True(t, valueobject.LoanStatusDefaulted.IsTerminal())
	assert.True(t, valueobject.LoanStatusClosed.IsTerminal())
}

func TestLoanStatus_Equal(t *testing.T) {
	assert.True(t, valueobject.LoanStatusActive.Equal(valueobject.LoanStatusActive))
	assert.False(t, valueobject.LoanStatusActive.Equal(valueobject.LoanStatusClosed))
	assert.True(t, valueobject.LoanStatus{}.IsZero())
}

func TestNewRiskState(t *testing.T) {
	for _, raw := range []string{"CURRENT", "RISK", "REMEDY", "DEFAULTED"} {
		s, err := valueobject.NewRiskState(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, s.String())
	}

	_, err := valueobject.NewRiskState("WATCH")
	assert.Error(t, err)
}
