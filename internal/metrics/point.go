package metrics

import "time"

// Point is a single time-stamped, tagged, multi-field observation destined
// for the time-series sink.
//
// Points are value types and treated as immutable once constructed: mappers
// build them, the sink writer serialises them, nothing mutates them in
// between. Field values are restricted to int64, float64, bool and string;
// each measurement declares a fixed type per field so repeated polls never
// flip a field between integer and float.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]interface{}
	Timestamp   time.Time
}

// New constructs a Point. The tags and fields maps are copied so callers may
// reuse their own maps across categories.
func New(measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) Point {
	t := make(map[string]string, len(tags))
	for k, v := range tags {
		t[k] = v
	}
	f := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		f[k] = v
	}
	return Point{
		Measurement: measurement,
		Tags:        t,
		Fields:      f,
		Timestamp:   ts,
	}
}
