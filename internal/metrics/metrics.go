// Package metrics exposes Tasklane Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tasklane"

// Metrics owns a private registry so tests and multiple servers in one
// process never collide on the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	authDecisions   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	sessionsIssued  prometheus.Counter
	sessionsRevoked *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		authDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_decisions_total",
				Help:      "Authorization decisions by stage, outcome and capability.",
			},
			[]string{"stage", "outcome", "capability"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route pattern and status code.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route pattern.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"method", "route"},
		),
		sessionsIssued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_issued_total",
				Help:      "Sessions created by successful logins.",
			},
		),
		sessionsRevoked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_revoked_total",
				Help:      "Sessions removed, by reason (replaced, logout, expired).",
			},
			[]string{"reason"},
		),
	}

	m.registry.MustRegister(
		m.authDecisions,
		m.httpRequests,
		m.httpDuration,
		m.sessionsIssued,
		m.sessionsRevoked,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveAuthDecision counts one authorization outcome. Safe on a nil receiver.
func (m *Metrics) ObserveAuthDecision(stage, outcome, capability string) {
	if m == nil {
		return
	}
	m.authDecisions.WithLabelValues(stage, outcome, capability).Inc()
}

// ObserveRequest records a finished HTTP request. Safe on a nil receiver.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SessionIssued counts a login. Safe on a nil receiver.
func (m *Metrics) SessionIssued() {
	if m == nil {
		return
	}
	m.sessionsIssued.Inc()
}

// SessionsRevoked counts n removed sessions. Safe on a nil receiver.
func (m *Metrics) SessionsRevoked(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sessionsRevoked.WithLabelValues(reason).Add(float64(n))
}
