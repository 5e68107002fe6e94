package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequests counts API requests by method, path pattern and status.
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration observes request latency by path pattern.
	HTTPDuration *prometheus.HistogramVec
	// ComputationDuration observes end-to-end index computation latency.
	ComputationDuration prometheus.Histogram
	// PanelRows tracks the size of the last loaded panel before and after
	// universe filtering.
	PanelRows *prometheus.GaugeVec
}

// NewMetrics creates and registers the collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crspindex_http_requests_total",
			Help: "API requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crspindex_http_request_duration_seconds",
			Help:    "API request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		ComputationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crspindex_computation_duration_seconds",
			Help:    "End-to-end index computation latency.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		PanelRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crspindex_panel_rows",
			Help: "Rows in the last loaded panel by stage (raw, filtered).",
		}, []string{"stage"}),
	}
	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.ComputationDuration,
		m.PanelRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
