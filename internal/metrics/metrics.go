// Package metrics holds the Prometheus collectors for LLM traffic and the HTTP API.
//
// Collectors are registered on an explicit registry instead of the global
// default so tests and multiple servers in one process don't collide.
// Every method is safe to call on a nil *Metrics, which the CLI uses to
// run without instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt outcomes reported by the executor.
const (
	OutcomeSuccess   = "success"
	OutcomeTransient = "transient"
	OutcomeFatal     = "fatal"
)

// Task statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type Metrics struct {
	attempts     *prometheus.CounterVec
	cooldowns    prometheus.Counter
	tasks        *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		attempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_attempts_total",
				Help: "Total number of outbound LLM call attempts.",
			},
			[]string{"provider", "outcome"},
		),
		cooldowns: f.NewCounter(
			prometheus.CounterOpts{
				Name: "llm_cooldowns_total",
				Help: "Total number of cooldown sleeps after transient provider failures.",
			},
		),
		tasks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tasks_total",
				Help: "Total number of task runs by task and status.",
			},
			[]string{"task", "status"},
		),
		taskDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "llm_task_duration_seconds",
				Help: "Wall-clock duration of task runs, including throttling and cooldowns.",
				// Cooldowns push runs into minutes.
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"task"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

func (m *Metrics) ObserveAttempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) ObserveCooldown() {
	if m == nil {
		return
	}
	m.cooldowns.Inc()
}

// ObserveTask records one finished task run.
func (m *Metrics) ObserveTask(task, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.tasks.WithLabelValues(task, status).Inc()
	m.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

// ObserveHTTP records one served HTTP request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
