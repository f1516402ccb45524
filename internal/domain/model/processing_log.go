package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kredexa/lending-engine/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// ProcessingLog entity
// ---------------------------------------------------------------------------

// ProcessingLog is the append-only audit record of one late-fee processing
// run (or one manual waive action). Rows are inserted once and never updated.
type ProcessingLog struct {
	id                    string
	runDate               time.Time
	processedAt           time.Time
	isManual              bool
	status                valueobject.ProcessingRunStatus
	feesCalculated        int
	totalFeeAmount        decimal.Decimal
	overdueRepaymentsSeen int
	processingTimeMs      int64
	metadata              map[string]any
}

// NewProcessingLog records the outcome of a run.
func NewProcessingLog(
	runDate time.Time,
	isManual bool,
	status valueobject.ProcessingRunStatus,
	feesCalculated int,
	totalFeeAmount decimal.Decimal,
	overdueRepaymentsSeen int,
	processingTimeMs int64,
	metadata map[string]any,
	now time.Time,
) (ProcessingLog, error) {
	if status.IsZero() {
		return ProcessingLog{}, errors.New("processing run status is required")
	}
	if feesCalculated < 0 || overdueRepaymentsSeen < 0 {
		return ProcessingLog{}, errors.New("counts must not be negative")
	}
	return ProcessingLog{
		id:                    uuid.New().String(),
		runDate:               runDate,
		processedAt:           now,
		isManual:              isManual,
		status:                status,
		feesCalculated:        feesCalculated,
		totalFeeAmount:        totalFeeAmount,
		overdueRepaymentsSeen: overdueRepaymentsSeen,
		processingTimeMs:      processingTimeMs,
		metadata:              metadata,
	}, nil
}

// ReconstructProcessingLog rebuilds a ProcessingLog from persistence.
func ReconstructProcessingLog(
	id string,
	runDate, processedAt time.Time,
	isManual bool,
	status valueobject.ProcessingRunStatus,
	feesCalculated int,
	totalFeeAmount decimal.Decimal,
	overdueRepaymentsSeen int,
	processingTimeMs int64,
	metadata map[string]any,
) ProcessingLog {
	return ProcessingLog{
		id:                    id,
		runDate:               runDate,
		processedAt:           processedAt,
		isManual:              isManual,
		status:                status,
		feesCalculated:        feesCalculated,
		totalFeeAmount:        totalFeeAmount,
		overdueRepaymentsSeen: overdueRepaymentsSeen,
		processingTimeMs:      processingTimeMs,
		metadata:              metadata,
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (p ProcessingLog) ID() string                                 { return p.id }
func (p ProcessingLog) RunDate() time.Time                         { return p.runDate }
func (p ProcessingLog) ProcessedAt() time.Time                     { return p.processedAt }
func (p ProcessingLog) IsManual() bool                             { return p.isManual }
func (p ProcessingLog) Status() valueobject.ProcessingRunStatus    { return p.status }
func (p ProcessingLog) FeesCalculated() int                        { return p.feesCalculated }
func (p ProcessingLog) TotalFeeAmount() decimal.Decimal            { return p.totalFeeAmount }
func (p ProcessingLog) OverdueRepaymentsSeen() int                 { return p.overdueRepaymentsSeen }
func (p ProcessingLog) ProcessingTimeMs() int64                    { return p.processingTimeMs }

// Metadata returns a defensive copy of the free-form metadata.
func (p ProcessingLog) Metadata() map[string]any {
	if p.metadata == nil {
		return nil
	}
	out := make(map[string]any, len(p.metadata))
	for k, v := range p.metadata {
		out[k] = v
	}
	return out
}
