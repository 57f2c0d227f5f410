// Package metrics provides the Prometheus collectors used by FarmWatch.
package metrics

import "time"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusInvalid = "invalid"
	StatusDropped = "dropped"
)

// Histogram bucket configuration.
const (
	// BucketStart1ms covers 1ms to ~1s.
	BucketStart1ms = 0.001
	// BucketStart10ms covers 10ms to ~10s.
	BucketStart10ms = 0.01
	// BucketStart100ms covers 100ms to ~100s.
	BucketStart100ms = 0.1
	// BucketStart64B is the first size bucket for payload histograms.
	BucketStart64B = 64.0
	// BucketStart10Rows is the first bucket for row count histograms.
	BucketStart10Rows = 10.0

	BucketFactor2 = 2
	BucketFactor4 = 4
	BucketCount8  = 8
	BucketCount10 = 10
)

// ShutdownTimeout bounds the graceful shutdown of the metrics listener.
const ShutdownTimeout = 5 * time.Second
