// Package influxdb is the time-series sink for the Pi-hole monitor.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, idempotent bucket creation, and synchronous batched writes.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "my-org",
//	    Bucket: "pihole",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.EnsureBucket(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	err = client.WritePoints(ctx, points)
//
// # Write semantics
//
// One tick produces one batch and one write call. Transient failures (network
// errors, timeouts, HTTP 429/5xx) are retried a bounded number of times with
// backoff inside WritePoints; permanent failures surface immediately as
// ErrWriteFailed and the batch is dropped whole. InfluxDB's native upsert on
// the (measurement, tag set, timestamp) key makes re-exported history buckets
// idempotent.
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
package influxdb
