// Package exporter orchestrates the Pi-hole poll-map-write pipeline.
//
// It contains the pieces that sit between the Pi-hole API client and the
// time-series sink:
//
//   - Fetcher: queries the statistics categories of one instance, keeping
//     each category independent so a failing endpoint only loses its own
//     data.
//   - Mapper: pure transformation from API responses to metrics.Point
//     values, stamping live stats with the poll time and history buckets
//     with their own timestamps.
//   - WatermarkStore: the only cross-tick state, tracking the newest
//     history bucket confirmed written per instance.
//   - Poller: the scheduler loop. All instances are polled concurrently,
//     their points merged into one batch per cycle, and watermarks advance
//     only after the sink confirms the write.
//
// # Failure isolation
//
// A cycle degrades rather than fails: unreachable instances, rejected
// sessions, and individual endpoint errors are logged and skipped while the
// remaining data is still exported. An authentication failure mid-cycle
// triggers exactly one re-authentication and refetch; a second rejection
// drops the instance for that cycle.
package exporter
