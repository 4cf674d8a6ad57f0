package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Tool metrics
	ToolDispatchTotal       *prometheus.CounterVec
	ToolDispatchDuration    *prometheus.HistogramVec
	ToolDispatchErrorsTotal *prometheus.CounterVec
	ToolsRegistered         prometheus.Gauge
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ToolDispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_dispatch_total",
				Help: "Total number of tool dispatches",
			},
			[]string{"tool", "status"},
		),
		ToolDispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tool_dispatch_duration_seconds",
				Help:    "Duration of tool dispatches in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"tool"},
		),
		ToolDispatchErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_dispatch_errors_total",
				Help: "Total number of failed tool dispatches",
			},
			[]string{"tool", "error_type"},
		),
		ToolsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tools_registered",
				Help: "Number of tools in the catalog",
			},
		),
	}

	m.registry.MustRegister(
		m.ToolDispatchTotal,
		m.ToolDispatchDuration,
		m.ToolDispatchErrorsTotal,
		m.ToolsRegistered,
	)

	return m
}

// ObserveDispatch records one tool dispatch.
func (m *Metrics) ObserveDispatch(tool, status, errorType string, duration time.Duration) {
	m.ToolDispatchTotal.WithLabelValues(tool, status).Inc()
	m.ToolDispatchDuration.WithLabelValues(tool).Observe(duration.Seconds())
	if errorType != "" {
		m.ToolDispatchErrorsTotal.WithLabelValues(tool, errorType).Inc()
	}
}

// SetToolsRegistered records the catalog size.
func (m *Metrics) SetToolsRegistered(n int) {
	m.ToolsRegistered.Set(float64(n))
}

// WriteTextfile writes the registry in the Prometheus text format, for
// collection by node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
