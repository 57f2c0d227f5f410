package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SensorMetrics covers scheduled collection and MQTT ingestion.
type SensorMetrics struct {
	readsTotal         *prometheus.CounterVec
	collectionsTotal   *prometheus.CounterVec
	collectionDuration prometheus.Histogram
	lastCollection     prometheus.Gauge
	ingestedTotal      *prometheus.CounterVec
	sensorOnline       *prometheus.GaugeVec
}

// NewSensorMetrics creates and registers the sensor collectors.
func NewSensorMetrics(registry *prometheus.Registry) (*SensorMetrics, error) {
	m := &SensorMetrics{
		readsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmwatch_sensor_reads_total",
			Help: "Total number of individual sensor reads",
		}, []string{"sensor", "status"}),
		collectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmwatch_sensor_collections_total",
			Help: "Total number of collection rounds",
		}, []string{"status"}),
		collectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "farmwatch_sensor_collection_duration_seconds",
			Help:    "Duration of a full collection round",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount10),
		}),
		lastCollection: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farmwatch_sensor_last_collection_time_seconds",
			Help: "Timestamp of the last successful collection round",
		}),
		ingestedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "farmwatch_sensor_ingested_total",
			Help: "Readings received over MQTT by outcome",
		}, []string{"status"}),
		sensorOnline: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "farmwatch_sensor_online",
			Help: "Sensor state from the last self test (1 online, 0 error)",
		}, []string{"sensor"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register sensor metrics: %w", err)
	}
	return m, nil
}

// RecordSensorRead counts a single sensor read.
func (m *SensorMetrics) RecordSensorRead(sensor, status string) {
	m.readsTotal.WithLabelValues(sensor, status).Inc()
}

// RecordCollection records a full collection round.
func (m *SensorMetrics) RecordCollection(status string, duration time.Duration) {
	m.collectionsTotal.WithLabelValues(status).Inc()
	m.collectionDuration.Observe(duration.Seconds())
	if status == StatusSuccess {
		m.lastCollection.SetToCurrentTime()
	}
}

// RecordIngest counts one MQTT reading.
func (m *SensorMetrics) RecordIngest(status string) {
	m.ingestedTotal.WithLabelValues(status).Inc()
}

// SetSensorOnline stores a self test outcome.
func (m *SensorMetrics) SetSensorOnline(sensor string, online bool) {
	v := 0.0
	if online {
		v = 1
	}
	m.sensorOnline.WithLabelValues(sensor).Set(v)
}

// Describe implements the Collector interface
func (m *SensorMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.readsTotal.Describe(ch)
	m.collectionsTotal.Describe(ch)
	m.collectionDuration.Describe(ch)
	m.lastCollection.Describe(ch)
	m.ingestedTotal.Describe(ch)
	m.sensorOnline.Describe(ch)
}

// Collect implements the Collector interface
func (m *SensorMetrics) Collect(ch chan<- prometheus.Metric) {
	m.readsTotal.Collect(ch)
	m.collectionsTotal.Collect(ch)
	m.collectionDuration.Collect(ch)
	m.lastCollection.Collect(ch)
	m.ingestedTotal.Collect(ch)
	m.sensorOnline.Collect(ch)
}
