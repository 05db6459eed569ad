package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the service counters on /metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ForbiddenTotal  prometheus.Counter
	stepFailures    *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ForbiddenTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "admin_authz_denials_total",
			Help: "Mutations rejected by the authorization policy.",
		}),
		stepFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_workflow_step_failures_total",
			Help: "Failed steps in multi-store workflows.",
		}, []string{"workflow", "step"}),
	}
}

// StepFailed records one failed workflow step.
func (m *Metrics) StepFailed(workflow, step string) {
	m.stepFailures.WithLabelValues(workflow, step).Inc()
}
