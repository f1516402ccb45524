package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kredexa/lending-engine/internal/application/dto"
	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
)

// DisburseLoanUseCase creates a loan with its amortized installment schedule.
type DisburseLoanUseCase struct {
	products  port.ProductRepository
	ledger    port.LedgerUnit
	publisher port.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewDisburseLoanUseCase wires dependencies.
func NewDisburseLoanUseCase(
	products port.ProductRepository,
	ledger port.LedgerUnit,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *DisburseLoanUseCase {
	return &DisburseLoanUseCase{
		products:  products,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Intended for tests.
func (uc *DisburseLoanUseCase) WithClock(now func() time.Time) *DisburseLoanUseCase {
	uc.now = now
	return uc
}

// Execute validates the product, builds the loan aggregate and schedule, and
// persists both atomically.
func (uc *DisburseLoanUseCase) Execute(ctx context.Context, req dto.DisburseLoanRequest) (dto.LoanResponse, error) {
	if _, err := uc.products.FeePolicy(ctx, req.ProductCode); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("resolve product %q: %w", req.ProductCode, err)
	}

	loan, schedule, err := model.NewLoan(
		req.BorrowerID,
		req.ProductCode,
		req.Principal,
		req.Currency,
		req.AnnualRateBps,
		req.TermMonths,
		uc.now(),
	)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if err := uc.ledger.CreateLoan(ctx, loan, schedule); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("persist loan: %w", err)
	}

	if uc.publisher != nil {
		if err := uc.publisher.Publish(ctx, loan.DomainEvents()...); err != nil {
			uc.logger.Error("publishing disbursement events failed", "error", err, "loan_id", loan.ID())
		}
	}

	return toLoanResponse(loan, schedule), nil
}
