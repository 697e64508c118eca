// Package metrics exposes Prometheus collectors for the import pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Row outcome labels
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
)

// Metrics bundles the pipeline collectors. A single instance is shared by the
// import service and the worker.
type Metrics struct {
	JobsTotal      *prometheus.CounterVec
	RowsTotal      *prometheus.CounterVec
	FilesRejected  *prometheus.CounterVec
	JobDuration    prometheus.Histogram
	JobsInFlight   prometheus.Gauge
	ApprovalsTotal *prometheus.CounterVec
}

// New registers and returns the pipeline collectors on the given registerer.
// Pass prometheus.DefaultRegisterer in production wiring.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stronghold_import_jobs_total",
			Help: "Import jobs finished, by terminal status.",
		}, []string{"status"}),
		RowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stronghold_import_rows_total",
			Help: "Rows processed by the import pipeline, by outcome.",
		}, []string{"outcome"}),
		FilesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stronghold_import_files_rejected_total",
			Help: "Uploads rejected by the security gate, by reason.",
		}, []string{"reason"}),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "stronghold_import_job_duration_seconds",
			Help:    "Wall time of import job processing.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		JobsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stronghold_import_jobs_in_flight",
			Help: "Import jobs currently in the processing state.",
		}),
		ApprovalsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stronghold_import_approvals_total",
			Help: "Staged-row dispositions, by action.",
		}, []string{"action"}),
	}
}
