package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics tracks store operations by name and outcome.
type DatastoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	lastErrorTime     prometheus.Gauge
}

// NewDatastoreMetrics creates and registers the datastore collectors.
func NewDatastoreMetrics(registry *prometheus.Registry) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmwatch_db_operations_total",
			Help: "Total number of datastore operations",
		}, []string{"operation", "status"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "farmwatch_db_operation_duration_seconds",
			Help:    "Duration of datastore operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		}, []string{"operation"}),
		lastErrorTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farmwatch_db_last_error_time_seconds",
			Help: "Timestamp of the last failed datastore operation",
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register datastore metrics: %w", err)
	}
	return m, nil
}

// RecordOperation records one store call. It satisfies datastore.OperationRecorder.
func (m *DatastoreMetrics) RecordOperation(operation, status string, duration time.Duration) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if status == StatusError {
		m.lastErrorTime.SetToCurrentTime()
	}
}

// Describe implements the Collector interface
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.operationDuration.Describe(ch)
	m.lastErrorTime.Describe(ch)
}

// Collect implements the Collector interface
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.operationDuration.Collect(ch)
	m.lastErrorTime.Collect(ch)
}
