package pihole

// API response types for the Pi-hole v6 (FTL) HTTP API.
//
// Only the portions of each payload that are exported as points are decoded;
// unknown fields are ignored by encoding/json.

// Summary is the response from GET /api/stats/summary.
type Summary struct {
	Queries struct {
		Total          int64   `json:"total"`
		Blocked        int64   `json:"blocked"`
		PercentBlocked float64 `json:"percent_blocked"`
		UniqueDomains  int64   `json:"unique_domains"`
		Forwarded      int64   `json:"forwarded"`
		Cached         int64   `json:"cached"`

		// Replies maps a DNS reply type (NODATA, NXDOMAIN, IP, ...) to its count.
		Replies map[string]int64 `json:"replies"`

		// Status maps a query status (FORWARDED, CACHE, GRAVITY, ...) to its count.
		Status map[string]int64 `json:"status"`
	} `json:"queries"`
	Clients struct {
		Active int64 `json:"active"`
		Total  int64 `json:"total"`
	} `json:"clients"`
	Gravity struct {
		DomainsBeingBlocked int64 `json:"domains_being_blocked"`
	} `json:"gravity"`
}

// QueryTypes is the response from GET /api/stats/query_types.
// Types maps a DNS record type (A, AAAA, PTR, ...) to its query count.
type QueryTypes struct {
	Types map[string]int64 `json:"types"`
}

// TopDomains is the response from GET /api/stats/top_domains.
type TopDomains struct {
	Domains []struct {
		Domain string `json:"domain"`
		Count  int64  `json:"count"`
	} `json:"domains"`
	TotalQueries   int64 `json:"total_queries"`
	BlockedQueries int64 `json:"blocked_queries"`
}

// TopClients is the response from GET /api/stats/top_clients.
type TopClients struct {
	Clients []struct {
		IP    string `json:"ip"`
		Name  string `json:"name"`
		Count int64  `json:"count"`
	} `json:"clients"`
}

// Upstreams is the response from GET /api/stats/upstreams.
type Upstreams struct {
	Upstreams []struct {
		IP         string `json:"ip"`
		Name       string `json:"name"`
		Port       int    `json:"port"`
		Count      int64  `json:"count"`
		Statistics struct {
			Response float64 `json:"response"`
			Variance float64 `json:"variance"`
		} `json:"statistics"`
	} `json:"upstreams"`
}

// History is the response from GET /api/history. Buckets are ten-minute
// aggregates covering the trailing 24 hours, each stamped with its own
// timestamp.
type History struct {
	History []HistoryBucket `json:"history"`
}

// HistoryBucket is one time bucket within the activity history.
type HistoryBucket struct {
	Timestamp float64 `json:"timestamp"`
	Total     int64   `json:"total"`
	Cached    int64   `json:"cached"`
	Blocked   int64   `json:"blocked"`
	Forwarded int64   `json:"forwarded"`
}

// Blocking is the response from GET /api/dns/blocking. The timer is the
// remaining seconds of a temporary enable/disable, or null when none is set.
type Blocking struct {
	Blocking string   `json:"blocking"`
	Timer    *float64 `json:"timer"`
}

// Enabled reports whether DNS blocking is currently active.
func (b *Blocking) Enabled() bool {
	return b.Blocking == "enabled"
}

// authResponse is the session envelope returned by POST /api/auth.
type authResponse struct {
	Session struct {
		Valid    bool   `json:"valid"`
		SID      string `json:"sid"`
		Validity int    `json:"validity"`
		Message  string `json:"message"`
	} `json:"session"`
}

// errorResponse is the FTL error envelope carried by 4xx responses.
type errorResponse struct {
	Error struct {
		Key     string `json:"key"`
		Message string `json:"message"`
		Hint    string `json:"hint"`
	} `json:"error"`
}
