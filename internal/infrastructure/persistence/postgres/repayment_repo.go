package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
)

// RepaymentRepo implements port.RepaymentRepository on PostgreSQL.
type RepaymentRepo struct {
	pool *pgxpool.Pool
}

func NewRepaymentRepo(pool *pgxpool.Pool) *RepaymentRepo {
	return &RepaymentRepo{pool: pool}
}

func (r *RepaymentRepo) Save(ctx context.Context, rep model.Repayment) error {
	return saveRepayment(ctx, r.pool, rep)
}

func (r *RepaymentRepo) FindByID(ctx context.Context, id string) (model.Repayment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+repaymentColumns+` FROM repayments WHERE id = $1`, id)
	rep, err := scanRepayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Repayment{}, fmt.Errorf("repayment %s: %w", id, port.ErrNotFound)
		}
		return model.Repayment{}, fmt.Errorf("find repayment %s: %w", id, err)
	}
	return rep, nil
}

func (r *RepaymentRepo) FindByLoanID(ctx context.Context, loanID string) ([]model.Repayment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+repaymentColumns+` FROM repayments WHERE loan_id = $1 ORDER BY period`, loanID)
	if err != nil {
		return nil, fmt.Errorf("find repayments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var reps []model.Repayment
	for rows.Next() {
		rep, err := scanRepayment(rows)
		if err != nil {
			return nil, fmt.Errorf("find repayments for loan %s: %w", loanID, err)
		}
		reps = append(reps, rep)
	}
	return reps, rows.Err()
}

// FindOverdue joins unpaid installments of active loans to their loan and the
// product fee policy, oldest first so the processor and payment allocation
// see a stable order.
func (r *RepaymentRepo) FindOverdue(ctx context.Context, asOf time.Time) ([]port.OverdueInstallment, error) {
	query := `
		SELECT
			r.id, r.loan_id, r.period, r.due_date,
			r.scheduled_principal, r.scheduled_interest, r.amount_paid, r.principal_paid,
			r.status, r.version, r.created_at, r.updated_at,
			l.id, l.borrower_id, l.product_code, l.principal, l.currency,
			l.annual_rate_bps, l.term_months, l.status, l.risk_state,
			l.outstanding_balance, l.next_payment_due, l.days_overdue,
			l.risk_flagged_at, l.remedy_deadline, l.version, l.created_at, l.updated_at,
			p.code, p.late_fee_rate, p.late_fee_fixed_amount, p.late_fee_frequency_days
		FROM repayments r
		JOIN loans l ON l.id = r.loan_id
		JOIN products p ON p.code = l.product_code
		WHERE r.status IN ('PENDING', 'PARTIAL', 'OVERDUE')
		  AND r.due_date < $1
		  AND l.status = 'ACTIVE'
		ORDER BY r.due_date, r.period
	`
	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("find overdue installments: %w", err)
	}
	defer rows.Close()

	var out []port.OverdueInstallment
	for rows.Next() {
		item, err := scanOverdueInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("find overdue installments: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanOverdueInstallment(row pgx.Row) (port.OverdueInstallment, error) {
	var (
		repID, repLoanID              string
		period                        int
		dueDate                       time.Time
		schedPrincipal, schedInterest decimal.Decimal
		amountPaid, principalPaid     decimal.Decimal
		repStatusRaw                  string
		repVersion                    int
		repCreatedAt, repUpdatedAt    time.Time

		loanID, borrowerID, productCode, currency string
		principal, outstanding                    decimal.Decimal
		annualRateBps, termMonths                 int
		loanStatusRaw, riskRaw                    string
		nextPaymentDue                            time.Time
		daysOverdue, loanVersion                  int
		riskFlaggedAt, remedyDeadline             *time.Time
		loanCreatedAt, loanUpdatedAt              time.Time

		policyCode                 string
		dailyRatePercent, fixedAmt decimal.Decimal
		frequencyDays              int
	)
	err := row.Scan(
		&repID, &repLoanID, &period, &dueDate,
		&schedPrincipal, &schedInterest, &amountPaid, &principalPaid,
		&repStatusRaw, &repVersion, &repCreatedAt, &repUpdatedAt,
		&loanID, &borrowerID, &productCode, &principal, &currency,
		&annualRateBps, &termMonths, &loanStatusRaw, &riskRaw,
		&outstanding, &nextPaymentDue, &daysOverdue,
		&riskFlaggedAt, &remedyDeadline, &loanVersion, &loanCreatedAt, &loanUpdatedAt,
		&policyCode, &dailyRatePercent, &fixedAmt, &frequencyDays,
	)
	if err != nil {
		return port.OverdueInstallment{}, err
	}

	repStatus, err := valueobject.NewRepaymentStatus(repStatusRaw)
	if err != nil {
		return port.OverdueInstallment{}, fmt.Errorf("repayment %s: %w", repID, err)
	}
	loanStatus, err := valueobject.NewLoanStatus(loanStatusRaw)
	if err != nil {
		return port.OverdueInstallment{}, fmt.Errorf("loan %s: %w", loanID, err)
	}
	riskState, err := valueobject.NewRiskState(riskRaw)
	if err != nil {
		return port.OverdueInstallment{}, fmt.Errorf("loan %s: %w", loanID, err)
	}

	return port.OverdueInstallment{
		Repayment: model.ReconstructRepayment(
			repID, repLoanID, period, dueDate,
			schedPrincipal, schedInterest, amountPaid, principalPaid,
			repStatus, repVersion, repCreatedAt, repUpdatedAt,
		),
		Loan: model.ReconstructLoan(
			loanID, borrowerID, productCode, principal, currency,
			annualRateBps, termMonths, loanStatus, riskState,
			outstanding, nextPaymentDue, daysOverdue,
			riskFlaggedAt, remedyDeadline, loanVersion, loanCreatedAt, loanUpdatedAt,
		),
		Policy: model.FeePolicy{
			ProductCode:      policyCode,
			DailyRatePercent: dailyRatePercent,
			FixedAmount:      fixedAmt,
			FrequencyDays:    frequencyDays,
		},
	}, nil
}
