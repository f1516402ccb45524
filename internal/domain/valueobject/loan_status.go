package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// LoanStatus – immutable value object
// ---------------------------------------------------------------------------

// LoanStatus represents the lifecycle stage of a loan.
type LoanStatus struct {
	value string
}

const (
	loanStatusActive           = "ACTIVE"
	loanStatusPendingDischarge = "PENDING_DISCHARGE"
	loanStatusDefaulted        = "DEFAULTED"
	loanStatusClosed           = "CLOSED"
)

var (
	LoanStatusActive           = LoanStatus{value: loanStatusActive}
	LoanStatusPendingDischarge = LoanStatus{value: loanStatusPendingDischarge}
	LoanStatusDefaulted        = LoanStatus{value: loanStatusDefaulted}
	LoanStatusClosed           = LoanStatus{value: loanStatusClosed}
)

var validLoanStatuses = map[string]LoanStatus{
	loanStatusActive:           LoanStatusActive,
	loanStatusPendingDischarge: LoanStatusPendingDischarge,
	loanStatusDefaulted:        LoanStatusDefaulted,
	loanStatusClosed:           LoanStatusClosed,
}

// NewLoanStatus creates a LoanStatus from a raw string.
func NewLoanStatus(s string) (LoanStatus, error) {
	v, ok := validLoanStatuses[s]
	if !ok {
		return LoanStatus{}, fmt.Errorf("invalid loan status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s LoanStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s LoanStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s LoanStatus) Equal(other LoanStatus) bool { return s.value == other.value }

// IsTerminal reports whether the loan can no longer change state.
func (s LoanStatus) IsTerminal() bool {
	return s.value == loanStatusClosed || s.value == loanStatusDefaulted
}

// ---------------------------------------------------------------------------
// RiskState – immutable value object
// ---------------------------------------------------------------------------

// RiskState represents the overdue-severity stage of an active loan:
// CURRENT -> RISK -> REMEDY -> DEFAULTED, with a full catch-up payment
// returning the loan to CURRENT from RISK or REMEDY.
type RiskState struct {
	value string
}

const (
	riskStateCurrent   = "CURRENT"
	riskStateRisk      = "RISK"
	riskStateRemedy    = "REMEDY"
	riskStateDefaulted = "DEFAULTED"
)

var (
	RiskStateCurrent   = RiskState{value: riskStateCurrent}
	RiskStateRisk      = RiskState{value: riskStateRisk}
	RiskStateRemedy    = RiskState{value: riskStateRemedy}
	RiskStateDefaulted = RiskState{value: riskStateDefaulted}
)

var validRiskStates = map[string]RiskState{
	riskStateCurrent:   RiskStateCurrent,
	riskStateRisk:      RiskStateRisk,
	riskStateRemedy:    RiskStateRemedy,
	riskStateDefaulted: RiskStateDefaulted,
}

// NewRiskState creates a RiskState from a raw string.
func NewRiskState(s string) (RiskState, error) {
	v, ok := validRiskStates[s]
	if !ok {
		return RiskState{}, fmt.Errorf("invalid risk state: %q", s)
	}
	return v, nil
}

// String returns the string representation of the state.
func (s RiskState) String() string { return s.value }

// IsZero returns true if the state has not been initialised.
func (s RiskState) IsZero() bool { return s.value == "" }

// Equal returns true when both states carry the same value.
func (s RiskState) Equal(other RiskState) bool { return s.value == other.value }

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
