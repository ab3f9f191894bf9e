// Package metrics holds the Prometheus collectors recorded by the client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the client's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	// RequestsTotal counts API calls by method and status ("timeout" and
	// "error" for calls that never produced a response).
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes API call latency by method.
	RequestDuration *prometheus.HistogramVec

	// StaleResponses counts list responses discarded because a newer
	// request superseded them.
	StaleResponses prometheus.Counter
}

// New creates and registers the client collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "subtrack",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by method and response status.",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "subtrack",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		StaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "subtrack",
			Subsystem: "list",
			Name:      "stale_responses_total",
			Help:      "List responses discarded because a newer request superseded them.",
		}),
	}
	m.Registry.MustRegister(m.RequestsTotal, m.RequestDuration, m.StaleResponses)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
