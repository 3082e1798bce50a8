package httpapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds the Prometheus metrics exposed at /metrics,
// grounded on the teacher's interfaces/http.MetricsRegistry —
// generalized from pipeline-step/regime counters to the ingestion and
// HTTP-request counters this system actually produces.
type MetricsRegistry struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	CatalogSize     prometheus.Gauge
}

// NewMetricsRegistry builds and registers every metric with the
// default Prometheus registerer. Safe to call once per process.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "techsignal_http_request_duration_seconds",
				Help:    "Duration of HTTP API requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"route", "status"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "techsignal_http_requests_total",
				Help: "Total HTTP API requests by route and status",
			},
			[]string{"route", "status"},
		),
		CatalogSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "techsignal_catalog_size",
				Help: "Current number of records held in the Catalog Store",
			},
		),
	}

	prometheus.MustRegister(
		m.RequestDuration,
		m.RequestsTotal,
		m.CatalogSize,
	)
	return m
}

// Handler serves the Prometheus exposition format.
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one completed HTTP request's duration and
// outcome, called from the server's logging middleware.
func (m *MetricsRegistry) ObserveRequest(route, status string, d time.Duration) {
	m.RequestDuration.WithLabelValues(route, status).Observe(d.Seconds())
	m.RequestsTotal.WithLabelValues(route, status).Inc()
}
