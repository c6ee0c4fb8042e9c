package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/piwi3910/barcut/internal/model"
)

// MetricsEmitter records optimizer, job and HTTP metrics.
type MetricsEmitter struct {
	optimizations    *prometheus.CounterVec
	optimizeDuration *prometheus.HistogramVec
	patterns         prometheus.Histogram
	jobs             *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	jobsInFlight     prometheus.Gauge
	httpRequests     *prometheus.CounterVec
}

// InitMetricsAndEmitter registers all metrics with the provided registry and
// returns the emitter that updates them.
func InitMetricsAndEmitter(registry prometheus.Registerer) *MetricsEmitter {
	m := &MetricsEmitter{
		optimizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcut_optimizations_total",
				Help: "Total number of optimizer runs",
			},
			[]string{"algorithm", "status"},
		),
		optimizeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "barcut_optimization_duration_seconds",
				Help:    "Wall time of optimizer runs",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"algorithm"},
		),
		patterns: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "barcut_patterns_per_run",
				Help:    "Number of cutting patterns considered per optimizer run",
				Buckets: prometheus.ExponentialBuckets(1, 4, 9),
			},
		),
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcut_jobs_total",
				Help: "Total number of background jobs by final status",
			},
			[]string{"kind", "status"},
		),
		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "barcut_job_duration_seconds",
				Help:    "Wall time of background jobs",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 9),
			},
			[]string{"kind"},
		),
		jobsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "barcut_jobs_in_flight",
				Help: "Number of background jobs currently running",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcut_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"method", "route", "code"},
		),
	}

	registry.MustRegister(m.optimizations)
	registry.MustRegister(m.optimizeDuration)
	registry.MustRegister(m.patterns)
	registry.MustRegister(m.jobs)
	registry.MustRegister(m.jobDuration)
	registry.MustRegister(m.jobsInFlight)
	registry.MustRegister(m.httpRequests)
	return m
}

// ObserveSolve records one optimizer run.
func (m *MetricsEmitter) ObserveSolve(algorithm model.Algorithm, status string, patterns int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.optimizations.With(prometheus.Labels{"algorithm": string(algorithm), "status": status}).Inc()
	m.optimizeDuration.With(prometheus.Labels{"algorithm": string(algorithm)}).Observe(elapsed.Seconds())
	if patterns > 0 {
		m.patterns.Observe(float64(patterns))
	}
}

// JobStarted marks a job as running.
func (m *MetricsEmitter) JobStarted(kind string) {
	if m == nil {
		return
	}
	m.jobsInFlight.Inc()
}

// JobFinished records the outcome of a job that JobStarted was called for.
func (m *MetricsEmitter) JobFinished(kind string, status model.JobStatus, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobsInFlight.Dec()
	m.jobs.With(prometheus.Labels{"kind": kind, "status": string(status)}).Inc()
	m.jobDuration.With(prometheus.Labels{"kind": kind}).Observe(elapsed.Seconds())
}

// HTTPRequest counts one served request.
func (m *MetricsEmitter) HTTPRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.With(prometheus.Labels{"method": method, "route": route, "code": statusText(code)}).Inc()
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
