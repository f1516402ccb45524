package service

import (
	"fmt"
	"time"

	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
)

// RiskEvaluator drives a loan through the default-risk state machine:
//
//	CURRENT -> RISK    when daysOverdue reaches the risk threshold
//	RISK    -> REMEDY  on the following evaluation, once the risk letter
//	                   dispatch has been triggered by the RISK transition
//	REMEDY  -> DEFAULTED when the remedy deadline passes unpaid
//
// Re-evaluating a loan whose state already reflects its overdue age is a
// no-op, so the driver can run on every processor pass without duplicating
// letters or timestamps. The only backward transition, a full catch-up
// payment returning the loan to CURRENT, happens in the payment path and is
// not this evaluator's concern.
type RiskEvaluator struct{}

// NewRiskEvaluator creates the evaluator.
func NewRiskEvaluator() *RiskEvaluator {
	return &RiskEvaluator{}
}

// Evaluate applies at most one forward transition and reports whether the
// loan changed.
func (e *RiskEvaluator) Evaluate(
	loan model.Loan,
	daysOverdue int,
	policy model.RiskPolicy,
	now time.Time,
) (model.Loan, bool, error) {
	if err := policy.Validate(); err != nil {
		return loan, false, fmt.Errorf("risk policy: %w", err)
	}
	if loan.Status().IsTerminal() {
		return loan, false, nil
	}

	switch {
	case loan.RiskState().Equal(valueobject.RiskStateCurrent):
		if daysOverdue < policy.RiskDays {
			return loan, false, nil
		}
		next, err := loan.FlagDefaultRisk(daysOverdue, policy.RemedyDays, now)
		if err != nil {
			return loan, false, fmt.Errorf("flag default risk: %w", err)
		}
		return next, true, nil

	case loan.RiskState().Equal(valueobject.RiskStateRisk):
		next, err := loan.EnterRemedy(now)
		if err != nil {
			return loan, false, fmt.Errorf("enter remedy: %w", err)
		}
		return next, true, nil

	case loan.RiskState().Equal(valueobject.RiskStateRemedy):
		if loan.RemedyDeadline() == nil || !now.After(*loan.RemedyDeadline()) {
			return loan, false, nil
		}
		next, err := loan.MarkDefaulted(now)
		if err != nil {
			return loan, false, fmt.Errorf("mark defaulted: %w", err)
		}
		return next, true, nil
	}

	return loan, false, nil
}
