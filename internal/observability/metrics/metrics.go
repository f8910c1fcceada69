package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "adjustment_"

	resultSuccess = "success"
	resultError   = "error"
	resultInvalid = "invalid"
)

var (
	registerOnce sync.Once

	runsTotal   *prometheus.CounterVec
	runLatency  *prometheus.HistogramVec
	runSlots    prometheus.Histogram
	coercedCell *prometheus.CounterVec

	statementExportTotal   *prometheus.CounterVec
	statementExportLatency *prometheus.HistogramVec
)

// Init registers adjustment metrics with the default registry.
func Init() {
	registerOnce.Do(func() {
		runsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total adjustment runs by result",
			},
			[]string{"result"},
		)
		runLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_duration_seconds",
				Help:    "Adjustment run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		runSlots = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "slots",
				Help:    "Reconciled slots per successful run",
				Buckets: []float64{96, 672, 1344, 2688, 2784, 2880, 2976, 6000, 12000},
			},
		)
		coercedCell = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_coerced_cells_total",
				Help: "Non-numeric energy cells read as zero by source",
			},
			[]string{"source"},
		)
		statementExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statement_exports_total",
				Help: "Total statement export operations by format and result",
			},
			[]string{"format", "result"},
		)
		statementExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statement_export_duration_seconds",
				Help:    "Statement export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			runsTotal,
			runLatency,
			runSlots,
			coercedCell,
			statementExportTotal,
			statementExportLatency,
		)
	})
}

// ObserveRun records run duration and result.
func ObserveRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if runsTotal != nil {
		runsTotal.WithLabelValues(result).Inc()
	}
	if runLatency != nil {
		runLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveSlots records the size of a reconciled table.
func ObserveSlots(count int) {
	if runSlots != nil {
		runSlots.Observe(float64(count))
	}
}

// AddCoercedCells counts energy cells coerced to zero.
func AddCoercedCells(source string, count int) {
	if count <= 0 {
		return
	}
	if source == "" {
		source = "unknown"
	}
	if coercedCell != nil {
		coercedCell.WithLabelValues(source).Add(float64(count))
	}
}

// ObserveStatementExport records export latency and result.
func ObserveStatementExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if statementExportTotal != nil {
		statementExportTotal.WithLabelValues(format, result).Inc()
	}
	if statementExportLatency != nil {
		statementExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	// ResultInvalid marks runs rejected by input validation.
	ResultInvalid = resultInvalid
)
