package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PreprocessMetrics observes preprocessing pipeline runs.
type PreprocessMetrics struct {
	runsTotal   *prometheus.CounterVec
	runDuration prometheus.Histogram
	rowsPerRun  prometheus.Histogram
}

// NewPreprocessMetrics creates and registers the pipeline collectors.
func NewPreprocessMetrics(registry *prometheus.Registry) (*PreprocessMetrics, error) {
	m := &PreprocessMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmwatch_preprocess_runs_total",
			Help: "Total number of preprocessing pipeline runs",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "farmwatch_preprocess_duration_seconds",
			Help:    "Duration of preprocessing pipeline runs",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		}),
		rowsPerRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "farmwatch_preprocess_rows",
			Help:    "Rows produced per preprocessing run",
			Buckets: prometheus.ExponentialBuckets(BucketStart10Rows, BucketFactor4, BucketCount8),
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register preprocess metrics: %w", err)
	}
	return m, nil
}

// RecordPreprocessRun satisfies preprocess.RunRecorder.
func (m *PreprocessMetrics) RecordPreprocessRun(status string, rows int, duration time.Duration) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(duration.Seconds())
	if status == StatusSuccess {
		m.rowsPerRun.Observe(float64(rows))
	}
}

// Describe implements the Collector interface
func (m *PreprocessMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.runsTotal.Describe(ch)
	m.runDuration.Describe(ch)
	m.rowsPerRun.Describe(ch)
}

// Collect implements the Collector interface
func (m *PreprocessMetrics) Collect(ch chan<- prometheus.Metric) {
	m.runsTotal.Collect(ch)
	m.runDuration.Collect(ch)
	m.rowsPerRun.Collect(ch)
}
