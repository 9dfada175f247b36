// Package metrics collects Prometheus counters for conversion activity.
//
// All methods are safe on a nil *Metrics so callers can run with metrics
// disabled without guarding every call site.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for a single registry. Collectors are
// registered on a private registry rather than the global default so tests
// can create as many instances as they need.
type Metrics struct {
	registry *prometheus.Registry

	conversionsTotal  *prometheus.CounterVec
	rowsTotal         prometheus.Counter
	bytesTotal        prometheus.Counter
	activeConversions prometheus.Gauge
	duration          *prometheus.HistogramVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		conversionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactport_conversions_total",
				Help: "Conversion runs by source format and final status.",
			},
			[]string{"format", "status"},
		),
		rowsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "contactport_conversion_rows_total",
				Help: "Contact rows written across all conversions.",
			},
		),
		bytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "contactport_conversion_input_bytes_total",
				Help: "Input bytes read across all conversions.",
			},
		),
		activeConversions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "contactport_active_conversions",
				Help: "Conversions currently running.",
			},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contactport_conversion_duration_seconds",
				Help:    "Wall time per conversion run.",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"format"},
		),
	}

	m.registry.MustRegister(
		m.conversionsTotal,
		m.rowsTotal,
		m.bytesTotal,
		m.activeConversions,
		m.duration,
	)
	return m
}

// ConversionStarted marks a conversion as in flight.
func (m *Metrics) ConversionStarted() {
	if m == nil {
		return
	}
	m.activeConversions.Inc()
}

// ConversionFinished records the outcome of a conversion run.
func (m *Metrics) ConversionFinished(formatKey, status string, rows, bytes int64, d time.Duration) {
	if m == nil {
		return
	}
	m.activeConversions.Dec()
	m.conversionsTotal.WithLabelValues(formatKey, status).Inc()
	m.rowsTotal.Add(float64(rows))
	m.bytesTotal.Add(float64(bytes))
	m.duration.WithLabelValues(formatKey).Observe(d.Seconds())
}

// Registry exposes the underlying registry. Primarily useful for testing.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
