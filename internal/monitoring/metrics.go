// Package monitoring exposes Prometheus metrics and Sentry error capture.
package monitoring

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Write outcomes recorded for client and appointment mutations.
const (
	OutcomeCreated       = "created"
	OutcomeUpdated       = "updated"
	OutcomeDeleted       = "deleted"
	OutcomeConflict      = "conflict"
	OutcomeMissingClient = "missing_client"
	OutcomeError         = "error"
)

type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	writesTotal        *prometheus.CounterVec
	sessionTransitions *prometheus.CounterVec
	gatherer           prometheus.Gatherer
}

// NewMetrics registers with reg, or the default registry when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicdesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"method", "path"}),
		writesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Client and appointment writes by outcome",
		}, []string{"entity", "outcome"}),
		sessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions",
		}, []string{"to"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.writesTotal, m.sessionTransitions)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

func (m *Metrics) ObserveRequest(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(seconds)
}

func (m *Metrics) ObserveWrite(entity, outcome string) {
	if m == nil {
		return
	}
	m.writesTotal.WithLabelValues(entity, outcome).Inc()
}

func (m *Metrics) ObserveSession(to string) {
	if m == nil {
		return
	}
	m.sessionTransitions.WithLabelValues(to).Inc()
}

// Handler serves the registry the metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
