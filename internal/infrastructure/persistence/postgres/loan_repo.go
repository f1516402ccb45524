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

// LoanRepo implements port.LoanRepository on PostgreSQL.
type LoanRepo struct {
	pool *pgxpool.Pool
}

func NewLoanRepo(pool *pgxpool.Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

func (r *LoanRepo) Save(ctx context.Context, loan model.Loan) error {
	return saveLoan(ctx, r.pool, loan)
}

func (r *LoanRepo) FindByID(ctx context.Context, id string) (model.Loan, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Loan{}, fmt.Errorf("loan %s: %w", id, port.ErrNotFound)
		}
		return model.Loan{}, fmt.Errorf("find loan %s: %w", id, err)
	}
	return loan, nil
}
