package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// RepaymentStatus – immutable value object
// ---------------------------------------------------------------------------

// RepaymentStatus represents the payment state of one installment.
type RepaymentStatus struct {
	value string
}

const (
	repaymentStatusPending   = "PENDING"
	repaymentStatusPartial   = "PARTIAL"
	repaymentStatusCompleted = "COMPLETED"
	repaymentStatusOverdue   = "OVERDUE"
)

var (
	RepaymentStatusPending   = RepaymentStatus{value: repaymentStatusPending}
	RepaymentStatusPartial   = RepaymentStatus{value: repaymentStatusPartial}
	RepaymentStatusCompleted = RepaymentStatus{value: repaymentStatusCompleted}
	RepaymentStatusOverdue   = RepaymentStatus{value: repaymentStatusOverdue}
)

var validRepaymentStatuses = map[string]RepaymentStatus{
	repaymentStatusPending:   RepaymentStatusPending,
	repaymentStatusPartial:   RepaymentStatusPartial,
	repaymentStatusCompleted: RepaymentStatusCompleted,
	repaymentStatusOverdue:   RepaymentStatusOverdue,
}

// NewRepaymentStatus creates a RepaymentStatus from a raw string.
func NewRepaymentStatus(s string) (RepaymentStatus, error) {
	v, ok := validRepaymentStatuses[s]
	if !ok {
		return RepaymentStatus{}, fmt.Errorf("invalid repayment status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s RepaymentStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s RepaymentStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s RepaymentStatus) Equal(other RepaymentStatus) bool { return s.value == other.value }

// IsSettled reports whether no further payment is expected.
func (s RepaymentStatus) IsSettled() bool { return s.value == repaymentStatusCompleted }

// IsPayable reports whether the installment can still receive payments or
// accrue fees.
func (s RepaymentStatus) IsPayable() bool {
	return s.value == repaymentStatusPending ||
		s.value == repaymentStatusPartial ||
		s.value == repaymentStatusOverdue
}

// ---------------------------------------------------------------------------
// LateFeeStatus – immutable value object
// ---------------------------------------------------------------------------

// LateFeeStatus represents the collection state of one late-fee charge.
type LateFeeStatus struct {
	value string
}

const (
	lateFeeStatusActive = "ACTIVE"
	lateFeeStatusWaived = "WAIVED"
	lateFeeStatusPaid   = "PAID"
)

var (
	LateFeeStatusActive = LateFeeStatus{value: lateFeeStatusActive}
	LateFeeStatusWaived = LateFeeStatus{value: lateFeeStatusWaived}
	LateFeeStatusPaid   = LateFeeStatus{value: lateFeeStatusPaid}
)

var validLateFeeStatuses = map[string]LateFeeStatus{
	lateFeeStatusActive: LateFeeStatusActive,
	lateFeeStatusWaived: LateFeeStatusWaived,
	lateFeeStatusPaid:   LateFeeStatusPaid,
}

// NewLateFeeStatus creates a LateFeeStatus from a raw string.
func NewLateFeeStatus(s string) (LateFeeStatus, error) {
	v, ok := validLateFeeStatuses[s]
	if !ok {
		return LateFeeStatus{}, fmt.Errorf("invalid late fee status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s LateFeeStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s LateFeeStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s LateFeeStatus) Equal(other LateFeeStatus) bool { return s.value == other.value }

// ---------------------------------------------------------------------------
// ProcessingRunStatus – immutable value object
// ---------------------------------------------------------------------------

// ProcessingRunStatus represents the outcome of one processing run.
type ProcessingRunStatus struct {
	value string
}

const (
	runStatusCompleted           = "COMPLETED"
	runStatusCompletedWithErrors = "COMPLETED_WITH_ERRORS"
	runStatusManualWaived        = "MANUAL_WAIVED"
	runStatusFailed              = "FAILED"
)

var (
	RunStatusCompleted           = ProcessingRunStatus{value: runStatusCompleted}
	RunStatusCompletedWithErrors = ProcessingRunStatus{value: runStatusCompletedWithErrors}
	RunStatusManualWaived        = ProcessingRunStatus{value: runStatusManualWaived}
	RunStatusFailed              = ProcessingRunStatus{value: runStatusFailed}
)

var validRunStatuses = map[string]ProcessingRunStatus{
	runStatusCompleted:           RunStatusCompleted,
	runStatusCompletedWithErrors: RunStatusCompletedWithErrors,
	runStatusManualWaived:        RunStatusManualWaived,
	runStatusFailed:              RunStatusFailed,
}

// NewProcessingRunStatus creates a ProcessingRunStatus from a raw string.
func NewProcessingRunStatus(s string) (ProcessingRunStatus, error) {
	v, ok := validRunStatuses[s]
	if !ok {
		return ProcessingRunStatus{}, fmt.Errorf("invalid processing run status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s ProcessingRunStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s ProcessingRunStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s ProcessingRunStatus) Equal(other ProcessingRunStatus) bool { return s.value == other.value }
