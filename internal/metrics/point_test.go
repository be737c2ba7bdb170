package metrics

import (
	"testing"
	"time"
)

func TestNew_CopiesMaps(t *testing.T) {
	tags := map[string]string{"alias": "pihole"}
	fields := map[string]interface{}{"count": int64(3)}

	p := New("top_domains", tags, fields, time.Unix(1700000000, 0))

	tags["alias"] = "mutated"
	fields["count"] = int64(99)

	if p.Tags["alias"] != "pihole" {
		t.Errorf("Tags[alias] = %q, want %q (caller mutation leaked)", p.Tags["alias"], "pihole")
	}
	if p.Fields["count"] != int64(3) {
		t.Errorf("Fields[count] = %v, want 3 (caller mutation leaked)", p.Fields["count"])
	}
}

func TestNew_PreservesTimestamp(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	p := New("history", nil, nil, ts)
	if !p.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", p.Timestamp, ts)
	}
}
