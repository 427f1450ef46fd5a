// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogsync_runs_total",
			Help: "Orchestrator runs by final state",
		},
		[]string{"result"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogsync_stage_duration_seconds",
			Help:    "Duration of each sync stage",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 300},
		},
		[]string{"stage"},
	)

	RowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogsync_rows_total",
			Help: "Rows handled by the batch reconciler",
		},
		[]string{"domain", "outcome"},
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogsync_provider_requests_total",
			Help: "Provider API calls by action and result",
		},
		[]string{"action", "result"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalogsync_provider_breaker_state",
			Help: "Circuit breaker state per provider host (0 closed, 1 half-open, 2 open)",
		},
		[]string{"host"},
	)

	TriggerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogsync_trigger_requests_total",
			Help: "Sync trigger requests by response status",
		},
		[]string{"status"},
	)

	RunInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogsync_run_in_progress",
			Help: "1 while the subscription runner is active",
		},
	)
)

// RecordRows adds reconciler counts for one domain.
func RecordRows(domainName string, inserted, skipped, failed int) {
	RowsWritten.WithLabelValues(domainName, "inserted").Add(float64(inserted))
	RowsWritten.WithLabelValues(domainName, "skipped").Add(float64(skipped))
	RowsWritten.WithLabelValues(domainName, "failed").Add(float64(failed))
}
