// Package metrics exposes Prometheus collectors for the HTTP server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "offerdesk"

// Metrics owns a private registry so several servers (and tests) can coexist
// in one process.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	submissions     *prometheus.CounterVec
	uploadsRejected *prometheus.CounterVec
	rateLimited     prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"route", "method"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_submitted_total",
			Help:      "Application submissions by outcome.",
		}, []string{"outcome"}),
		uploadsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_rejected_total",
			Help:      "Rejected file uploads by form field.",
		}, []string{"field"}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
}

// ObserveRequest records one finished request. route is the mux pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Submission outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// ObserveSubmission counts an application submission by outcome.
func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// ObserveRejectedUpload counts a refused file part.
func (m *Metrics) ObserveRejectedUpload(field string) {
	if m == nil {
		return
	}
	m.uploadsRejected.WithLabelValues(field).Inc()
}

// ObserveRateLimited counts a throttled request.
func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// Registry exposes the registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
