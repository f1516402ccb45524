package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kredexa/lending-engine/internal/domain/model"
)

// LateFeeRepo implements port.LateFeeRepository on PostgreSQL. It is
// read-only: fee writes go through LedgerUnit so they stay atomic with the
// sibling loan and repayment updates.
type LateFeeRepo struct {
	pool *pgxpool.Pool
}

func NewLateFeeRepo(pool *pgxpool.Pool) *LateFeeRepo {
	return &LateFeeRepo{pool: pool}
}

func (r *LateFeeRepo) FindByRepaymentID(ctx context.Context, repaymentID string) ([]model.LateFee, error) {
	return r.findFees(ctx,
		`SELECT `+lateFeeColumns+` FROM late_fees WHERE repayment_id = $1 ORDER BY period_index`,
		repaymentID)
}

func (r *LateFeeRepo) FindActiveByRepaymentID(ctx context.Context, repaymentID string) ([]model.LateFee, error) {
	return r.findFees(ctx,
		`SELECT `+lateFeeColumns+` FROM late_fees WHERE repayment_id = $1 AND status = 'ACTIVE' ORDER BY period_index`,
		repaymentID)
}

func (r *LateFeeRepo) findFees(ctx context.Context, query, repaymentID string) ([]model.LateFee, error) {
	rows, err := r.pool.Query(ctx, query, repaymentID)
	if err != nil {
		return nil, fmt.Errorf("find fees for repayment %s: %w", repaymentID, err)
	}
	defer rows.Close()

	var fees []model.LateFee
	for rows.Next() {
		fee, err := scanLateFee(rows)
		if err != nil {
			return nil, fmt.Errorf("find fees for repayment %s: %w", repaymentID, err)
		}
		fees = append(fees, fee)
	}
	return fees, rows.Err()
}

// MaxPeriodIndex counts fees of every status so waived or paid periods are
// never charged again.
func (r *LateFeeRepo) MaxPeriodIndex(ctx context.Context, repaymentID string) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(period_index), 0) FROM late_fees WHERE repayment_id = $1`,
		repaymentID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max fee period for repayment %s: %w", repaymentID, err)
	}
	return max, nil
}
