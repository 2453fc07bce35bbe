// Package metrics exposes Prometheus instrumentation for the membership API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricHTTPRequestsTotal   = "membership_http_requests_total"
	MetricHTTPRequestDuration = "membership_http_request_duration_seconds"
	MetricCheckoutsTotal      = "membership_checkouts_total"
	MetricWebhookEventsTotal  = "membership_webhook_events_total"
	MetricCancellationsTotal  = "membership_cancellations_total"
)

const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeIgnored  = "ignored"
)

// Metrics is safe for concurrent use. Each instance owns its registry so tests do not collide on
// the global one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	checkouts     *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
	cancellations prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPRequestDuration,
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCheckoutsTotal,
			Help: "Checkout sessions requested by target tier, billing cycle and outcome.",
		}, []string{"tier", "billing_cycle", "outcome"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricWebhookEventsTotal,
			Help: "Stripe webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCancellationsTotal,
			Help: "Memberships scheduled for cancellation at period end.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.checkouts,
		m.webhookEvents,
		m.cancellations,
	)
	return m
}

func (m *Metrics) ObserveHTTP(route, method string, code int, duration time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

func (m *Metrics) RecordCheckout(tier, cycle, outcome string) {
	m.checkouts.WithLabelValues(tier, cycle, outcome).Inc()
}

func (m *Metrics) RecordWebhookEvent(eventType, outcome string) {
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func (m *Metrics) RecordCancellation() {
	m.cancellations.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
