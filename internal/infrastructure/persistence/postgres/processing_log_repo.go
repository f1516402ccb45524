package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kredexa/lending-engine/internal/domain/model"
	"github.com/kredexa/lending-engine/internal/domain/port"
)

// ProcessingLogRepo implements port.ProcessingLogRepository on PostgreSQL.
type ProcessingLogRepo struct {
	pool *pgxpool.Pool
}

func NewProcessingLogRepo(pool *pgxpool.Pool) *ProcessingLogRepo {
	return &ProcessingLogRepo{pool: pool}
}

// Insert writes one run log row. A partial unique index on run_date for
// non-manual rows makes the second of two concurrent daily runs fail here,
// which is surfaced as port.ErrDuplicateRun.
func (r *ProcessingLogRepo) Insert(ctx context.Context, log model.ProcessingLog) error {
	if err := insertProcessingLog(ctx, r.pool, log); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("run on %s: %w", log.RunDate().Format("2006-01-02"), port.ErrDuplicateRun)
		}
		return err
	}
	return nil
}

func (r *ProcessingLogRepo) HasAutoRunOn(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM late_fee_processing_logs
			WHERE run_date = $1 AND NOT is_manual
		)`, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check run on %s: %w", date.Format("2006-01-02"), err)
	}
	return exists, nil
}

func (r *ProcessingLogRepo) Latest(ctx context.Context) (model.ProcessingLog, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+processingLogColumns+` FROM late_fee_processing_logs
		 ORDER BY processed_at DESC LIMIT 1`)
	log, err := scanProcessingLog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ProcessingLog{}, fmt.Errorf("latest processing log: %w", port.ErrNotFound)
		}
		return model.ProcessingLog{}, fmt.Errorf("latest processing log: %w", err)
	}
	return log, nil
}

func (r *ProcessingLogRepo) List(ctx context.Context, limit int) ([]model.ProcessingLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+processingLogColumns+` FROM late_fee_processing_logs
		 ORDER BY processed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list processing logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ProcessingLog
	for rows.Next() {
		log, err := scanProcessingLog(rows)
		if err != nil {
			return nil, fmt.Errorf("list processing logs: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
