package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kredexa/lending-engine/internal/application/usecase"
)

const runTimeout = 10 * time.Minute

// Scheduler triggers the daily fee processing run on a cron schedule. The
// run itself is idempotent, so an instance restarting mid-schedule or two
// instances firing together produce at most one recorded run per day.
type Scheduler struct {
	cron      *cron.Cron
	processor *usecase.ProcessLateFeesUseCase
	logger    *slog.Logger
}

func New(processor *usecase.ProcessLateFeesUseCase, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		processor: processor,
		logger:    logger,
	}
}

// Start registers the processing job and launches the cron loop in the
// background.
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("fee processing scheduler started", "schedule", schedule)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	result, err := s.processor.Execute(ctx, false)
	if err != nil {
		s.logger.Error("scheduled fee processing failed", "error", err)
		return
	}
	if result.AlreadyRanToday {
		s.logger.Info("scheduled run skipped, already processed today")
		return
	}
	s.logger.Info("scheduled fee processing completed",
		"fees_calculated", result.FeesCalculated,
		"total_fee_amount", result.TotalFeeAmount,
		"errors", len(result.Errors),
	)
}
