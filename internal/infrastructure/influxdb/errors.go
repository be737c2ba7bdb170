package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, influxdb.ErrBucketNotFound) {
//	    // Target bucket is absent and create_bucket is disabled
//	}
var (
	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrBucketNotFound indicates the target bucket is absent and automatic
	// creation is disabled.
	ErrBucketNotFound = errors.New("influxdb: bucket not found")

	// ErrWriteFailed indicates a batch write was rejected permanently or
	// exhausted its retries. The batch for that tick is dropped.
	ErrWriteFailed = errors.New("influxdb: write failed")
)
