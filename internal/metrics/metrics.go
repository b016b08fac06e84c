// Package metrics exposes Prometheus counters for the worker pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline collectors. All methods are safe on a nil
// receiver so callers can run without a registry.
type Metrics struct {
	registry      *prometheus.Registry
	jobsProcessed *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	jobsInFlight  prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		jobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reelforge_jobs_processed_total",
			Help: "Jobs finished by terminal status.",
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reelforge_stage_duration_seconds",
			Help:    "Wall-clock duration of each pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"stage"}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reelforge_jobs_in_flight",
			Help: "Jobs currently being processed by this worker.",
		}),
	}
	registry.MustRegister(m.jobsProcessed, m.stageDuration, m.jobsInFlight)
	return m
}

func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.jobsInFlight.Inc()
}

func (m *Metrics) JobFinished(status string) {
	if m == nil {
		return
	}
	m.jobsInFlight.Dec()
	m.jobsProcessed.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
