// Package telemetry records per-run conversion metrics and exports them in
// the Prometheus text format for a node-exporter textfile collector.
package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters updated by the converters. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	records  *prometheus.CounterVec
	chunks   *prometheus.CounterVec
	unmapped *prometheus.CounterVec
	duration *prometheus.GaugeVec
}

// New creates a Metrics backed by its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gtfs_preprocessor",
			Name:      "records_written_total",
			Help:      "Records written per output file.",
		}, []string{"file"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gtfs_preprocessor",
			Name:      "chunks_processed_total",
			Help:      "Chunks processed per streamed file.",
		}, []string{"file"}),
		unmapped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gtfs_preprocessor",
			Name:      "unmapped_values_total",
			Help:      "Values outside a remapping's known domain.",
		}, []string{"file", "field"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gtfs_preprocessor",
			Name:      "step_duration_seconds",
			Help:      "Wall time of the last run of each step.",
		}, []string{"step"}),
	}
	m.registry.MustRegister(m.records, m.chunks, m.unmapped, m.duration)
	return m
}

func (m *Metrics) AddRecords(file string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.records.WithLabelValues(file).Add(float64(n))
}

func (m *Metrics) IncChunks(file string) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(file).Inc()
}

func (m *Metrics) AddUnmapped(file, field string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unmapped.WithLabelValues(file, field).Add(float64(n))
}

func (m *Metrics) ObserveStep(step string, seconds float64) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(step).Set(seconds)
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
