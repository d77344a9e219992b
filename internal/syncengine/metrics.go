package syncengine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks sync activity. Registered once per process; the
// daemon serves them over /metrics.
type Metrics struct {
	Runs     *prometheus.CounterVec
	Items    *prometheus.CounterVec
	Pending  prometheus.Gauge
	Duration prometheus.Histogram
}

// NewMetrics registers the sync metric family with reg. Pass
// prometheus.DefaultRegisterer outside tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "joygrow_sync_runs_total",
			Help: "Sync passes by outcome.",
		}, []string{"result"}),
		Items: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "joygrow_sync_items_total",
			Help: "Queue items processed by outcome.",
		}, []string{"result"}),
		Pending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "joygrow_sync_queue_pending",
			Help: "Queue items awaiting replay after the last pass.",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "joygrow_sync_duration_seconds",
			Help:    "Duration of sync passes.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
