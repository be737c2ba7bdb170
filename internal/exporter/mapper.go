package exporter

import (
	"strconv"
	"time"

	"github.com/avojak/pihole-influxdb/internal/metrics"
	"github.com/avojak/pihole-influxdb/internal/pihole"
)

// Mapper converts one instance's Bundle into normalized points.
//
// Mapping is pure and deterministic: no I/O, no clock reads (the poll
// timestamp is a parameter), and identical input always yields identical
// points. Absent categories are simply skipped; the fetch step has already
// recorded why they are missing.
//
// Field types are fixed per measurement: counters are int64, ratios and
// latencies float64, the blocking state bool. Upstream payloads that drift
// from these shapes fail JSON decoding at fetch time and never reach the
// mapper.
type Mapper struct{}

// Map builds the points for one instance's cycle.
//
// All points are stamped with polledAt except history, where each point
// carries its own bucket timestamp. History buckets older than the watermark
// are skipped; the bucket equal to the watermark is re-exported every cycle
// because it is still filling, and the sink's upsert on (measurement, tags,
// timestamp) replaces the earlier partial counts.
//
// Parameters:
//   - inst: The instance, providing the alias and hostname tags
//   - bundle: The raw responses for this cycle
//   - polledAt: The poll timestamp applied to non-history points
//   - watermark: The newest history bucket already exported for this
//     instance; zero means no watermark (full window exported)
//
// Returns:
//   - []metrics.Point: The normalized points, in category order
//   - time.Time: The newest history bucket timestamp seen (zero when the
//     history category is absent or empty); becomes the next watermark
//     after a successful write
func (m Mapper) Map(inst pihole.Instance, bundle *Bundle, polledAt time.Time, watermark time.Time) ([]metrics.Point, time.Time) {
	tags := map[string]string{
		"alias":    inst.Alias,
		"hostname": inst.Hostname(),
	}

	var points []metrics.Point

	if s := bundle.Summary; s != nil {
		points = append(points, metrics.New("summary", tags, map[string]interface{}{
			"total_queries":        s.Queries.Total,
			"blocked_queries":      s.Queries.Blocked,
			"percent_blocked":      s.Queries.PercentBlocked,
			"unique_domains":       s.Queries.UniqueDomains,
			"forwarded_queries":    s.Queries.Forwarded,
			"cached_queries":       s.Queries.Cached,
			"domains_on_blocklist": s.Gravity.DomainsBeingBlocked,
			"active_clients":       s.Clients.Active,
			"total_clients":        s.Clients.Total,
		}, polledAt))

		if len(s.Queries.Replies) > 0 {
			points = append(points, metrics.New("query_replies", tags, countFields(s.Queries.Replies), polledAt))
		}
		if len(s.Queries.Status) > 0 {
			points = append(points, metrics.New("query_statuses", tags, countFields(s.Queries.Status), polledAt))
		}
	}

	if qt := bundle.QueryTypes; qt != nil && len(qt.Types) > 0 {
		points = append(points, metrics.New("query_types", tags, countFields(qt.Types), polledAt))
	}

	if b := bundle.Blocking; b != nil {
		timer := -1.0
		if b.Timer != nil {
			timer = *b.Timer
		}
		points = append(points, metrics.New("blocking", tags, map[string]interface{}{
			"enabled": b.Enabled(),
			"timer":   timer,
		}, polledAt))
	}

	points = append(points, m.mapTopDomains(tags, bundle.TopPermitted, false, polledAt)...)
	points = append(points, m.mapTopDomains(tags, bundle.TopBlocked, true, polledAt)...)

	if tc := bundle.TopClients; tc != nil {
		for rank, client := range tc.Clients {
			clientTags := map[string]string{
				"alias":    tags["alias"],
				"hostname": tags["hostname"],
				"ip":       client.IP,
				"name":     client.Name,
			}
			points = append(points, metrics.New("top_clients", clientTags, map[string]interface{}{
				"count": client.Count,
				"rank":  int64(rank + 1),
			}, polledAt))
		}
	}

	if up := bundle.Upstreams; up != nil {
		for _, upstream := range up.Upstreams {
			upstreamTags := map[string]string{
				"alias":    tags["alias"],
				"hostname": tags["hostname"],
				"ip":       upstream.IP,
				"name":     upstream.Name,
				"port":     strconv.Itoa(upstream.Port),
			}
			points = append(points, metrics.New("upstreams", upstreamTags, map[string]interface{}{
				"count":             upstream.Count,
				"response_time":     upstream.Statistics.Response,
				"response_variance": upstream.Statistics.Variance,
			}, polledAt))
		}
	}

	var latest time.Time
	if h := bundle.History; h != nil {
		for _, bucket := range h.History {
			if bucket.Timestamp <= 0 {
				continue
			}
			ts := time.Unix(int64(bucket.Timestamp), 0)
			if ts.After(latest) {
				latest = ts
			}
			if ts.Before(watermark) {
				continue
			}
			points = append(points, metrics.New("history", tags, map[string]interface{}{
				"total":     bucket.Total,
				"cached":    bucket.Cached,
				"blocked":   bucket.Blocked,
				"forwarded": bucket.Forwarded,
			}, ts))
		}
	}

	return points, latest
}

// countFields widens a per-name counter map into a point field map.
func countFields(counts map[string]int64) map[string]interface{} {
	fields := make(map[string]interface{}, len(counts))
	for name, count := range counts {
		fields[name] = count
	}
	return fields
}

// mapTopDomains emits one point per top-domain entry, ranked in response
// order, with a blocked=true/false tag distinguishing the two calls.
func (m Mapper) mapTopDomains(tags map[string]string, domains *pihole.TopDomains, blocked bool, polledAt time.Time) []metrics.Point {
	if domains == nil {
		return nil
	}

	points := make([]metrics.Point, 0, len(domains.Domains))
	for rank, domain := range domains.Domains {
		domainTags := map[string]string{
			"alias":    tags["alias"],
			"hostname": tags["hostname"],
			"domain":   domain.Domain,
			"blocked":  strconv.FormatBool(blocked),
		}
		points = append(points, metrics.New("top_domains", domainTags, map[string]interface{}{
			"count": domain.Count,
			"rank":  int64(rank + 1),
		}, polledAt))
	}
	return points
}
