// Package metrics defines the normalized point model shared by the point
// mapper and the sink writer.
//
// It exists so that the mapper (pure transformation, no I/O) does not depend
// on the InfluxDB client types, and the sink does not depend on Pi-hole
// response shapes. Both sides meet at Point.
package metrics
