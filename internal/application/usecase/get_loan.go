package usecase

import (
	"context"
	"fmt"

	"github.com/kredexa/lending-engine/internal/application/dto"
	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
)

// GetLoanUseCase reads a loan aggregate with its installment schedule.
type GetLoanUseCase struct {
	loans      port.LoanRepository
	repayments port.RepaymentRepository
}

// NewGetLoanUseCase wires dependencies.
func NewGetLoanUseCase(loans port.LoanRepository, repayments port.RepaymentRepository) *GetLoanUseCase {
	return &GetLoanUseCase{loans: loans, repayments: repayments}
}

// Execute returns the loan with its full schedule, oldest period first.
func (uc *GetLoanUseCase) Execute(ctx context.Context, loanID string) (dto.LoanResponse, error) {
	loan, err := uc.loans.FindByID(ctx, loanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}
	schedule, err := uc.repayments.FindByLoanID(ctx, loanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find schedule: %w", err)
	}
	return toLoanResponse(loan, schedule), nil
}

func toLoanResponse(loan model.Loan, schedule []model.Repayment) dto.LoanResponse {
	resp := dto.LoanResponse{
		ID:                 loan.ID(),
		BorrowerID:         loan.BorrowerID(),
		ProductCode:        loan.ProductCode(),
		Principal:          loan.Principal(),
		Currency:           loan.Currency(),
		AnnualRateBps:      loan.AnnualRateBps(),
		TermMonths:         loan.TermMonths(),
		Status:             loan.Status().String(),
		RiskState:          loan.RiskState().String(),
		OutstandingBalance: loan.OutstandingBalance(),
		NextPaymentDue:     loan.NextPaymentDue(),
		DaysOverdue:        loan.DaysOverdue(),
		RiskFlaggedAt:      loan.RiskFlaggedAt(),
		RemedyDeadline:     loan.RemedyDeadline(),
	}
	for _, rep := range schedule {
		resp.Schedule = append(resp.Schedule, dto.RepaymentView{
			ID:                 rep.ID(),
			Period:             rep.Period(),
			DueDate:            rep.DueDate(),
			ScheduledPrincipal: rep.ScheduledPrincipal(),
			ScheduledInterest:  rep.ScheduledInterest(),
			AmountPaid:         rep.AmountPaid(),
			Status:             rep.Status().String(),
		})
	}
	return resp
}
