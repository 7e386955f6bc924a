// Package metrics holds the Prometheus metrics of research and discovery runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// MetricsNamespace is the namespace for all metrics.
	MetricsNamespace = "deepsearch"

	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusFailure = "failure"
)

// Metrics are registered on their own registry, a nil *Metrics records nothing
type Metrics struct {
	registry *prometheus.Registry

	SearchBranchesTotal *prometheus.CounterVec
	ModelAttemptsTotal  *prometheus.CounterVec
	RunsTotal           *prometheus.CounterVec
	RunDurationSeconds  *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		SearchBranchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "search_branches_total",
				Help:      "Total number of fan-out search branches by outcome",
			},
			[]string{"flow", "status"},
		),
		ModelAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "model_attempts_total",
				Help:      "Total number of model calls by model and outcome",
			},
			[]string{"flow", "model", "status"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Name:      "runs_total",
				Help:      "Total number of runs by outcome",
			},
			[]string{"flow", "status"},
		),
		RunDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
			},
			[]string{"flow"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) SearchBranch(flow string, status string) {
	if m == nil {
		return
	}
	m.SearchBranchesTotal.WithLabelValues(flow, status).Inc()
}

func (m *Metrics) ModelAttempt(flow string, model string, err error) {
	if m == nil {
		return
	}
	m.ModelAttemptsTotal.WithLabelValues(flow, model, status(err)).Inc()
}

func (m *Metrics) Run(flow string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(flow, status(err)).Inc()
	m.RunDurationSeconds.WithLabelValues(flow).Observe(time.Since(start).Seconds())
}

func status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}
