package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
}

// InitMetrics initializes the Prometheus metrics exporter.
// Returns the MeterProvider and an HTTP handler for the /metrics endpoint.
func InitMetrics(_ MetricsConfig) (*sdkmetric.MeterProvider, http.Handler, error) {
	exporter, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	handler := promhttp.Handler()

	return provider, handler, nil
}

// RunMetrics carries the instruments recorded by the late-fee processor.
type RunMetrics struct {
	RunsTotal       *prometheus.CounterVec
	FeesCalculated  prometheus.Counter
	FeeAmountTotal  prometheus.Counter
	RepaymentErrors prometheus.Counter
	RunDurationMs   prometheus.Histogram
}

// NewRunMetrics registers processor instruments on the default registry.
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "late_fee_processing_runs_total",
			Help: "Completed late-fee processing runs by outcome status.",
		}, []string{"status"}),
		FeesCalculated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "late_fees_calculated_total",
			Help: "Late-fee records created across all processing runs.",
		}),
		FeeAmountTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "late_fee_amount_total",
			Help: "Sum of late-fee amounts charged, in currency units.",
		}),
		RepaymentErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "late_fee_repayment_errors_total",
			Help: "Repayments skipped due to per-record failures during runs.",
		}),
		RunDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "late_fee_run_duration_milliseconds",
			Help:    "Wall-clock duration of late-fee processing runs.",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
	}
}
