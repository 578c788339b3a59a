// Package metrics provides Prometheus metrics for the board API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the board.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	TransitionsTotal *prometheus.CounterVec
	GenerationsTotal *prometheus.CounterVec
	QASavesTotal     *prometheus.CounterVec
	TemplateReloads  *prometheus.CounterVec
	DBSizeBytes      prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_http_requests_total",
				Help: "Total HTTP requests by route, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kanban_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_task_transitions_total",
				Help: "Task status changes by source and target column.",
			},
			[]string{"from", "to"},
		),
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_generations_total",
				Help: "Generated documents by type and generator.",
			},
			[]string{"document", "generator"},
		),
		QASavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_qa_saves_total",
				Help: "Q&A session saves by category and resulting status.",
			},
			[]string{"category", "status"},
		),
		TemplateReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kanban_template_evictions_total",
				Help: "Question template cache evictions caused by file changes.",
			},
			[]string{"category"},
		),
		DBSizeBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "kanban_db_size_bytes",
				Help: "Size of the SQLite database file.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.TransitionsTotal,
		m.GenerationsTotal,
		m.QASavesTotal,
		m.TemplateReloads,
		m.DBSizeBytes,
	)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts a served request and its latency.
func (m *Metrics) RecordRequest(route, method, code string, seconds float64) {
	m.RequestsTotal.WithLabelValues(route, method, code).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}

// RecordTransition counts a status change.
func (m *Metrics) RecordTransition(from, to string) {
	m.TransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordGeneration counts a generated document.
func (m *Metrics) RecordGeneration(document, generator string) {
	m.GenerationsTotal.WithLabelValues(document, generator).Inc()
}

// RecordQASave counts a session save.
func (m *Metrics) RecordQASave(category, status string) {
	m.QASavesTotal.WithLabelValues(category, status).Inc()
}

// RecordTemplateEviction counts a template cache eviction.
func (m *Metrics) RecordTemplateEviction(category string) {
	m.TemplateReloads.WithLabelValues(category).Inc()
}

// SetDBSize sets the database size gauge.
func (m *Metrics) SetDBSize(bytes float64) {
	m.DBSizeBytes.Set(bytes)
}
