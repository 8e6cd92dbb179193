// Package metrics provides the Prometheus collectors of OrderLens.
package metrics

// Histogram bucket configuration.
const (
	// BucketStart100us starts histograms covering 0.1ms to ~1.6s.
	BucketStart100us = 0.0001
	// BucketStart1ms starts histograms covering 1ms to ~16s.
	BucketStart1ms = 0.001
	// BucketStart10ms starts histograms covering 10ms to ~160s.
	BucketStart10ms = 0.01

	// BucketFactor2 is the exponential growth factor of the buckets.
	BucketFactor2 = 2
	// BucketCount15 is the number of exponential buckets.
	BucketCount15 = 15
)

// namespace prefixes every metric name.
const namespace = "orderlens"
