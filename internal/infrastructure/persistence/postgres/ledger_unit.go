package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kredexa/lending-engine/internal/domain/model"
	pgdb "github.com/kredexa/lending-engine/pkg/postgres"
)

// LedgerUnit implements port.LedgerUnit. Each method runs its writes in one
// transaction, holding a per-loan advisory lock so a concurrent payment and
// fee run on the same loan serialize instead of tripping optimistic locking.
type LedgerUnit struct {
	pool *pgxpool.Pool
}

func NewLedgerUnit(pool *pgxpool.Pool) *LedgerUnit {
	return &LedgerUnit{pool: pool}
}

func (u *LedgerUnit) CreateLoan(ctx context.Context, loan model.Loan, reps []model.Repayment) error {
	return pgdb.WithTransaction(ctx, u.pool, func(tx pgx.Tx) error {
		if err := saveLoan(ctx, tx, loan); err != nil {
			return err
		}
		for _, rep := range reps {
			if err := saveRepayment(ctx, tx, rep); err != nil {
				return err
			}
		}
		return nil
	})
}

func (u *LedgerUnit) ApplyFeeAssessment(ctx context.Context, loan model.Loan, reps []model.Repayment, fees []model.LateFee) error {
	return pgdb.WithTransaction(ctx, u.pool, func(tx pgx.Tx) error {
		if err := pgdb.AcquireTxLock(ctx, tx, loanLockKey(loan.ID())); err != nil {
			return err
		}
		for _, fee := range fees {
			if err := insertLateFee(ctx, tx, fee); err != nil {
				return err
			}
		}
		for _, rep := range reps {
			if err := saveRepayment(ctx, tx, rep); err != nil {
				return err
			}
		}
		return saveLoan(ctx, tx, loan)
	})
}

func (u *LedgerUnit) ApplyPayment(ctx context.Context, loan model.Loan, reps []model.Repayment, fees []model.LateFee) error {
	return pgdb.WithTransaction(ctx, u.pool, func(tx pgx.Tx) error {
		if err := pgdb.AcquireTxLock(ctx, tx, loanLockKey(loan.ID())); err != nil {
			return err
		}
		for _, rep := range reps {
			if err := saveRepayment(ctx, tx, rep); err != nil {
				return err
			}
		}
		for _, fee := range fees {
			if err := updateLateFeeStatus(ctx, tx, fee); err != nil {
				return err
			}
		}
		return saveLoan(ctx, tx, loan)
	})
}

func (u *LedgerUnit) WaiveFees(ctx context.Context, fees []model.LateFee, log model.ProcessingLog) error {
	return pgdb.WithTransaction(ctx, u.pool, func(tx pgx.Tx) error {
		for _, fee := range fees {
			if err := updateLateFeeStatus(ctx, tx, fee); err != nil {
				return err
			}
		}
		return insertProcessingLog(ctx, tx, log)
	})
}

func (u *LedgerUnit) SettleFees(ctx context.Context, fees []model.LateFee) error {
	return pgdb.WithTransaction(ctx, u.pool, func(tx pgx.Tx) error {
		for _, fee := range fees {
			if err := updateLateFeeStatus(ctx, tx, fee); err != nil {
				return err
			}
		}
		return nil
	})
}

func loanLockKey(loanID string) string {
	return "loan:" + loanID
}
