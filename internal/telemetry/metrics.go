// Package telemetry holds the service's Prometheus instrumentation. Metrics
// register on the default registry and are served by the router's /metrics
// endpoint.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts research runs and the events relayed to clients.
type Metrics struct {
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    prometheus.Counter
	EventsEmitted *prometheus.CounterVec
	RunDuration   prometheus.Histogram
}

// New registers the radar metrics with reg. Pass prometheus.DefaultRegisterer
// outside tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "topicradar_runs_started_total",
			Help: "Research runs accepted for execution.",
		}),
		RunsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "topicradar_runs_completed_total",
			Help: "Research runs that delivered a structured summary.",
		}),
		RunsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "topicradar_runs_failed_total",
			Help: "Research runs that ended with an error event.",
		}),
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "topicradar_stream_events_total",
			Help: "Stream events relayed to clients, by event type.",
		}, []string{"type"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "topicradar_run_duration_seconds",
			Help:    "Wall-clock duration of research runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// Observe records ev against the per-type counter. Nil receivers are allowed
// so tests can run without a registry.
func (m *Metrics) Observe(evType string) {
	if m == nil {
		return
	}
	m.EventsEmitted.WithLabelValues(evType).Inc()
}
