package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
)

// ProductRepo implements port.ProductRepository on PostgreSQL. Grace settings
// are global and come from SettingsRepo; callers merge them into the policy.
type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (r *ProductRepo) FeePolicy(ctx context.Context, code string) (model.FeePolicy, error) {
	var policy model.FeePolicy
	err := r.pool.QueryRow(ctx,
		`SELECT code, late_fee_rate, late_fee_fixed_amount, late_fee_frequency_days
		 FROM products WHERE code = $1 AND active`, code,
	).Scan(&policy.ProductCode, &policy.DailyRatePercent, &policy.FixedAmount, &policy.FrequencyDays)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.FeePolicy{}, fmt.Errorf("product %s: %w", code, port.ErrNotFound)
		}
		return model.FeePolicy{}, fmt.Errorf("load fee policy for %s: %w", code, err)
	}
	return policy, nil
}
