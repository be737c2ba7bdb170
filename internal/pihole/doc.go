// Package pihole provides the upstream side of the monitor: instance
// configuration, session-authenticated access to the Pi-hole v6 (FTL) HTTP
// API, and the fixed set of statistics read calls.
//
// # Components
//
//   - NewInstances resolves the configured alias/address/password lists into
//     immutable Instance records (the instance registry).
//   - SessionManager owns the per-instance session cache: it exchanges a
//     password for a session ID (POST /api/auth), renews it on expiry, and
//     invalidates it when a request comes back 401.
//   - Client issues the read calls (summary, query types, top domains, top
//     clients, upstreams, blocking status, history), presenting the session
//     ID in the X-FTL-SID header.
//
// # Failure model
//
// Every call returns an explicit error instead of panicking or retrying:
// callers aggregate partial results per category. Instances without a
// password surface ErrAuthRequired and run degraded (authenticated endpoints
// skipped). Non-2xx responses surface as *APIError carrying the FTL error
// envelope; IsAuthError identifies the 401/403 responses that should
// invalidate the cached session.
//
// # Thread Safety
//
// Client and SessionManager are safe for concurrent use; instances are
// polled in parallel and share no mutable state.
package pihole
