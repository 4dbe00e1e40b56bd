package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the erasure workflow.
type Metrics struct {
	RunsStarted       prometheus.Counter
	RunsCompleted     *prometheus.CounterVec
	RunsRejected      *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	DomainItemsErased *prometheus.CounterVec
}

// New creates and registers all erasure metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RunsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "minty_erasure_runs_started_total",
			Help: "Total erasure runs admitted past the precondition checks",
		}),
		RunsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "minty_erasure_runs_completed_total",
			Help: "Total erasure runs sealed, by outcome",
		}, []string{"success"}),
		RunsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "minty_erasure_runs_rejected_total",
			Help: "Total initiate calls rejected at admission, by reason",
		}, []string{"reason"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "minty_erasure_run_duration_ms",
			Help:    "Wall-clock duration of sealed erasure runs in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),
		DomainItemsErased: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "minty_erasure_domain_items_erased_total",
			Help: "Items deleted during erasure fan-out, by domain",
		}, []string{"domain"}),
	}
}

// ObserveRun records one sealed run.
func (m *Metrics) ObserveRun(success bool, durationMs float64) {
	label := "false"
	if success {
		label = "true"
	}
	m.RunsCompleted.WithLabelValues(label).Inc()
	m.RunDuration.Observe(durationMs)
}
