package core

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IngestRuns counts ingestion calls by outcome.
var IngestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "payables",
	Subsystem: "ingest",
	Name:      "runs_total",
	Help:      "Total CSV ingestion calls by outcome.",
}, []string{"outcome"})

// IngestRows counts data rows seen by the pipeline, by result.
var IngestRows = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "payables",
	Subsystem: "ingest",
	Name:      "rows_total",
	Help:      "Total CSV data rows processed, labelled parsed, skipped or invalid.",
}, []string{"result"})

// IngestDuration tracks how long successful ingestions take.
var IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "payables",
	Subsystem: "ingest",
	Name:      "duration_seconds",
	Help:      "Duration of CSV ingestion calls.",
	Buckets:   prometheus.DefBuckets,
})

// Operations counts ledger service calls by operation and outcome.
var Operations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "payables",
	Subsystem: "service",
	Name:      "operations_total",
	Help:      "Total ledger service operations by outcome.",
}, []string{"operation", "outcome"})

// ActiveImports reports imports currently holding a limiter slot.
var ActiveImports = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "payables",
	Subsystem: "import",
	Name:      "active",
	Help:      "Number of CSV imports currently in progress.",
})

func observeIngest(r IngestResult, err error) {
	IngestRuns.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return
	}
	IngestRows.WithLabelValues("parsed").Add(float64(len(r.Records)))
	IngestRows.WithLabelValues("skipped").Add(float64(len(r.Skipped)))
	IngestDuration.Observe(r.Duration.Seconds())
}

func observeOp(op string, err error) {
	Operations.WithLabelValues(op, outcome(err)).Inc()
}

// outcome buckets an error into a low-cardinality label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyFile):
		return "empty_file"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrMalformedFile):
		return "malformed_file"
	case errors.Is(err, ErrIOFailure):
		return "io_failure"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, ErrTooManyImports):
		return "busy"
	default:
		return "error"
	}
}
