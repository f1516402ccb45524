package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/valueobject"
	pgdb "github.com/kredexa/lending-engine/pkg/postgres"
)

// ErrOptimisticLock is returned when a versioned UPDATE matched no row.
var ErrOptimisticLock = errors.New("optimistic locking conflict")

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// ---------------------------------------------------------------------------
// Loan row mapping
// ---------------------------------------------------------------------------

const loanColumns = `
	id, borrower_id, product_code, principal, currency,
	annual_rate_bps, term_months, status, risk_state,
	outstanding_balance, next_payment_due, days_overdue,
	risk_flagged_at, remedy_deadline, version, created_at, updated_at`

func scanLoan(row pgx.Row) (model.Loan, error) {
	var (
		id, borrowerID, productCode, currency string
		principal, outstanding                decimal.Decimal
		annualRateBps, termMonths             int
		statusRaw, riskRaw                    string
		nextPaymentDue                        time.Time
		daysOverdue, version                  int
		riskFlaggedAt, remedyDeadline         *time.Time
		createdAt, updatedAt                  time.Time
	)
	err := row.Scan(
		&id, &borrowerID, &productCode, &principal, &currency,
		&annualRateBps, &termMonths, &statusRaw, &riskRaw,
		&outstanding, &nextPaymentDue, &daysOverdue,
		&riskFlaggedAt, &remedyDeadline, &version, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Loan{}, err
	}

	status, err := valueobject.NewLoanStatus(statusRaw)
	if err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, err)
	}
	riskState, err := valueobject.NewRiskState(riskRaw)
	if err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", id, err)
	}

	return model.ReconstructLoan(
		id, borrowerID, productCode, principal, currency,
		annualRateBps, termMonths, status, riskState,
		outstanding, nextPaymentDue, daysOverdue,
		riskFlaggedAt, remedyDeadline, version, createdAt, updatedAt,
	), nil
}

// saveLoan upserts a loan with optimistic locking on the version column.
func saveLoan(ctx context.Context, q pgdb.Querier, loan model.Loan) error {
	query := `
		INSERT INTO loans (
			id, borrower_id, product_code, principal, currency,
			annual_rate_bps, term_months, status, risk_state,
			outstanding_balance, next_payment_due, days_overdue,
			risk_flagged_at, remedy_deadline, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (id) DO UPDATE SET
			status              = EXCLUDED.status,
			risk_state          = EXCLUDED.risk_state,
			outstanding_balance = EXCLUDED.outstanding_balance,
			next_payment_due    = EXCLUDED.next_payment_due,
			days_overdue        = EXCLUDED.days_overdue,
			risk_flagged_at     = EXCLUDED.risk_flagged_at,
			remedy_deadline     = EXCLUDED.remedy_deadline,
			version             = loans.version + 1,
			updated_at          = EXCLUDED.updated_at
		WHERE loans.version = $15
	`
	tag, err := q.Exec(ctx, query,
		loan.ID(), loan.BorrowerID(), loan.ProductCode(), loan.Principal(), loan.Currency(),
		loan.AnnualRateBps(), loan.TermMonths(), loan.Status().String(), loan.RiskState().String(),
		loan.OutstandingBalance(), loan.NextPaymentDue(), loan.DaysOverdue(),
		loan.RiskFlaggedAt(), loan.RemedyDeadline(), loan.Version(), loan.CreatedAt(), loan.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save loan %s: %w", loan.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("loan %s: %w", loan.ID(), ErrOptimisticLock)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Repayment row mapping
// ---------------------------------------------------------------------------

const repaymentColumns = `
	id, loan_id, period, due_date,
	scheduled_principal, scheduled_interest, amount_paid, principal_paid,
	status, version, created_at, updated_at`

func scanRepayment(row pgx.Row) (model.Repayment, error) {
	var (
		id, loanID                    string
		period                        int
		dueDate                       time.Time
		schedPrincipal, schedInterest decimal.Decimal
		amountPaid, principalPaid     decimal.Decimal
		statusRaw                     string
		version                       int
		createdAt, updatedAt          time.Time
	)
	err := row.Scan(
		&id, &loanID, &period, &dueDate,
		&schedPrincipal, &schedInterest, &amountPaid, &principalPaid,
		&statusRaw, &version, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Repayment{}, err
	}

	status, err := valueobject.NewRepaymentStatus(statusRaw)
	if err != nil {
		return model.Repayment{}, fmt.Errorf("repayment %s: %w", id, err)
	}

	return model.ReconstructRepayment(
		id, loanID, period, dueDate,
		schedPrincipal, schedInterest, amountPaid, principalPaid,
		status, version, createdAt, updatedAt,
	), nil
}

func saveRepayment(ctx context.Context, q pgdb.Querier, rep model.Repayment) error {
	query := `
		INSERT INTO repayments (
			id, loan_id, period, due_date,
			scheduled_principal, scheduled_interest, amount_paid, principal_paid,
			status, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			amount_paid    = EXCLUDED.amount_paid,
			principal_paid = EXCLUDED.principal_paid,
			status         = EXCLUDED.status,
			version        = repayments.version + 1,
			updated_at     = EXCLUDED.updated_at
		WHERE repayments.version = $10
	`
	tag, err := q.Exec(ctx, query,
		rep.ID(), rep.LoanID(), rep.Period(), rep.DueDate(),
		rep.ScheduledPrincipal(), rep.ScheduledInterest(), rep.AmountPaid(), rep.PrincipalPaid(),
		rep.Status().String(), rep.Version(), rep.CreatedAt(), rep.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save repayment %s: %w", rep.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repayment %s: %w", rep.ID(), ErrOptimisticLock)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Late fee row mapping
// ---------------------------------------------------------------------------

const lateFeeColumns = `
	id, repayment_id, fee_amount, calculation_date, period_index,
	status, metadata, created_at`

func scanLateFee(row pgx.Row) (model.LateFee, error) {
	var (
		id, repaymentID string
		feeAmount       decimal.Decimal
		calculationDate time.Time
		periodIndex     int
		statusRaw       string
		metadataRaw     []byte
		createdAt       time.Time
	)
	err := row.Scan(
		&id, &repaymentID, &feeAmount, &calculationDate, &periodIndex,
		&statusRaw, &metadataRaw, &createdAt,
	)
	if err != nil {
		return model.LateFee{}, err
	}

	status, err := valueobject.NewLateFeeStatus(statusRaw)
	if err != nil {
		return model.LateFee{}, fmt.Errorf("late fee %s: %w", id, err)
	}

	var metadata map[string]any
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
			return model.LateFee{}, fmt.Errorf("late fee %s metadata: %w", id, err)
		}
	}

	return model.ReconstructLateFee(
		id, repaymentID, feeAmount, calculationDate, periodIndex,
		status, metadata, createdAt,
	), nil
}

// insertLateFee writes a new fee row. The (repayment_id, period_index) unique
// constraint turns a rerun's duplicate insert into a silent no-op.
func insertLateFee(ctx context.Context, q pgdb.Querier, fee model.LateFee) error {
	metadata, err := json.Marshal(fee.Metadata())
	if err != nil {
		return fmt.Errorf("marshal fee metadata: %w", err)
	}
	query := `
		INSERT INTO late_fees (
			id, repayment_id, fee_amount, calculation_date, period_index,
			status, metadata, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (repayment_id, period_index) DO NOTHING
	`
	if _, err := q.Exec(ctx, query,
		fee.ID(), fee.RepaymentID(), fee.FeeAmount(), fee.CalculationDate(), fee.PeriodIndex(),
		fee.Status().String(), metadata, fee.CreatedAt(),
	); err != nil {
		return fmt.Errorf("insert late fee %s: %w", fee.ID(), err)
	}
	return nil
}

func updateLateFeeStatus(ctx context.Context, q pgdb.Querier, fee model.LateFee) error {
	tag, err := q.Exec(ctx,
		`UPDATE late_fees SET status = $2 WHERE id = $1 AND status = 'ACTIVE'`,
		fee.ID(), fee.Status().String(),
	)
	if err != nil {
		return fmt.Errorf("update late fee %s: %w", fee.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("late fee %s is no longer active", fee.ID())
	}
	return nil
}

// ---------------------------------------------------------------------------
// Processing log row mapping
// ---------------------------------------------------------------------------

const processingLogColumns = `
	id, run_date, processed_at, is_manual, status,
	fees_calculated, total_fee_amount, overdue_repayments_seen,
	processing_time_ms, metadata`

func scanProcessingLog(row pgx.Row) (model.ProcessingLog, error) {
	var (
		id                    string
		runDate, processedAt  time.Time
		isManual              bool
		statusRaw             string
		feesCalculated        int
		totalFeeAmount        decimal.Decimal
		overdueRepaymentsSeen int
		processingTimeMs      int64
		metadataRaw           []byte
	)
	err := row.Scan(
		&id, &runDate, &processedAt, &isManual, &statusRaw,
		&feesCalculated, &totalFeeAmount, &overdueRepaymentsSeen,
		&processingTimeMs, &metadataRaw,
	)
	if err != nil {
		return model.ProcessingLog{}, err
	}

	status, err := valueobject.NewProcessingRunStatus(statusRaw)
	if err != nil {
		return model.ProcessingLog{}, fmt.Errorf("processing log %s: %w", id, err)
	}

	var metadata map[string]any
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &metadata); err != nil {
			return model.ProcessingLog{}, fmt.Errorf("processing log %s metadata: %w", id, err)
		}
	}

	return model.ReconstructProcessingLog(
		id, runDate, processedAt, isManual, status,
		feesCalculated, totalFeeAmount, overdueRepaymentsSeen,
		processingTimeMs, metadata,
	), nil
}

func insertProcessingLog(ctx context.Context, q pgdb.Querier, log model.ProcessingLog) error {
	metadata, err := json.Marshal(log.Metadata())
	if err != nil {
		return fmt.Errorf("marshal log metadata: %w", err)
	}
	query := `
		INSERT INTO late_fee_processing_logs (
			id, run_date, processed_at, is_manual, status,
			fees_calculated, total_fee_amount, overdue_repayments_seen,
			processing_time_ms, metadata
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	if _, err := q.Exec(ctx, query,
		log.ID(), log.RunDate(), log.ProcessedAt(), log.IsManual(), log.Status().String(),
		log.FeesCalculated(), log.TotalFeeAmount(), log.OverdueRepaymentsSeen(),
		log.ProcessingTimeMs(), metadata,
	); err != nil {
		return fmt.Errorf("insert processing log: %w", err)
	}
	return nil
}
