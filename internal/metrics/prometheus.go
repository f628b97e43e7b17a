// Package metrics provides Prometheus metrics for the Quran Challenge API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quranchallenge/server/domain/entities"
)

// Manager owns the service's metrics and the registry they are exposed from.
// All recording methods are safe to call on a nil *Manager.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	readingsSubmitted   *prometheus.CounterVec
	historicalSubmitted prometheus.Counter
	registrations       prometheus.Counter
	loginFailures       prometheus.Counter
}

// Option applies a configuration option to the Manager
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets custom buckets for the latency histogram
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// NewManager creates a Manager registered on its own registry
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "quran_challenge",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"route", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method", "status"})

	m.readingsSubmitted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "readings_total",
		Help:      "Readings recorded, by category",
	}, []string{"category"})

	m.historicalSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "historical_entries_total",
		Help:      "Historical entries recorded",
	})

	m.registrations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "registrations_total",
		Help:      "Users registered",
	})

	m.loginFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "login_failures_total",
		Help:      "Rejected login attempts",
	})
}

// Registry returns the registry the metrics are registered on
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request
func (m *Manager) RecordHTTPRequest(route, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(route, method, status).Observe(duration.Seconds())
}

// RecordReading counts each category of a stored reading
func (m *Manager) RecordReading(categories []entities.Category) {
	if m == nil {
		return
	}
	for _, c := range categories {
		m.readingsSubmitted.WithLabelValues(string(c)).Inc()
	}
}

// RecordHistoricalEntry counts a stored historical entry
func (m *Manager) RecordHistoricalEntry() {
	if m == nil {
		return
	}
	m.historicalSubmitted.Inc()
}

// RecordRegistration counts a new user
func (m *Manager) RecordRegistration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

// RecordLoginFailure counts a rejected login
func (m *Manager) RecordLoginFailure() {
	if m == nil {
		return
	}
	m.loginFailures.Inc()
}
