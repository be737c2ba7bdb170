package pihole

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client issues read calls against the Pi-hole v6 (FTL) HTTP API.
//
// The client is stateless with respect to instances and sessions: every call
// takes the target Instance and the session ID to present. Session lifecycle
// lives in SessionManager. Each request carries its own bounded timeout so a
// hung appliance can only ever delay its own instance's cycle.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	http *http.Client
}

// NewClient creates a Pi-hole API client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Authenticate exchanges the instance's password for a session ID via
// POST /api/auth.
//
// Returns:
//   - string: The session ID (SID) to present in the X-FTL-SID header
//   - time.Duration: The server-reported session validity
//   - error: ErrAuthRequired when no password is configured, ErrAuthFailed
//     when the Pi-hole rejects the password or reports an invalid session
func (c *Client) Authenticate(ctx context.Context, inst Instance) (string, time.Duration, error) {
	if !inst.HasPassword() {
		return "", 0, ErrAuthRequired
	}

	body, err := json.Marshal(map[string]string{"password": inst.Password})
	if err != nil {
		return "", 0, fmt.Errorf("encoding auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, inst.Address+"/api/auth", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("building auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("authenticating against %s: %w", inst.Address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%w: %w", ErrAuthFailed, decodeError(resp))
	}

	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", 0, fmt.Errorf("decoding auth response: %w", err)
	}
	if !auth.Session.Valid || auth.Session.SID == "" {
		return "", 0, fmt.Errorf("%w: session reported invalid", ErrAuthFailed)
	}

	return auth.Session.SID, time.Duration(auth.Session.Validity) * time.Second, nil
}

// Logout deletes the server-side session via DELETE /api/auth. Pi-hole caps
// the number of concurrent API sessions, so sessions are released on shutdown
// rather than left to expire.
func (c *Client) Logout(ctx context.Context, inst Instance, sid string) error {
	if sid == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, inst.Address+"/api/auth", nil)
	if err != nil {
		return fmt.Errorf("building logout request: %w", err)
	}
	req.Header.Set("X-FTL-SID", sid)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("logging out of %s: %w", inst.Address, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// Summary fetches the overview of Pi-hole activity (GET /api/stats/summary).
func (c *Client) Summary(ctx context.Context, inst Instance, sid string) (*Summary, error) {
	var out Summary
	if err := c.get(ctx, inst, sid, "/stats/summary", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryTypes fetches the query-type breakdown (GET /api/stats/query_types).
func (c *Client) QueryTypes(ctx context.Context, inst Instance, sid string) (*QueryTypes, error) {
	var out QueryTypes
	if err := c.get(ctx, inst, sid, "/stats/query_types", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TopDomains fetches the top permitted or blocked domains
// (GET /api/stats/top_domains).
//
// Parameters:
//   - count: Maximum number of entries to return
//   - blocked: true for top blocked domains, false for top permitted
func (c *Client) TopDomains(ctx context.Context, inst Instance, sid string, count int, blocked bool) (*TopDomains, error) {
	var out TopDomains
	endpoint := fmt.Sprintf("/stats/top_domains?count=%d&blocked=%t", count, blocked)
	if err := c.get(ctx, inst, sid, endpoint, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TopClients fetches the top clients (GET /api/stats/top_clients).
func (c *Client) TopClients(ctx context.Context, inst Instance, sid string, count int) (*TopClients, error) {
	var out TopClients
	endpoint := fmt.Sprintf("/stats/top_clients?count=%d", count)
	if err := c.get(ctx, inst, sid, endpoint, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upstreams fetches the upstream destination metrics
// (GET /api/stats/upstreams).
func (c *Client) Upstreams(ctx context.Context, inst Instance, sid string) (*Upstreams, error) {
	var out Upstreams
	if err := c.get(ctx, inst, sid, "/stats/upstreams", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History fetches the time-bucketed activity history (GET /api/history).
func (c *Client) History(ctx context.Context, inst Instance, sid string) (*History, error) {
	var out History
	if err := c.get(ctx, inst, sid, "/history", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Blocking fetches the current blocking status (GET /api/dns/blocking).
func (c *Client) Blocking(ctx context.Context, inst Instance, sid string) (*Blocking, error) {
	var out Blocking
	if err := c.get(ctx, inst, sid, "/dns/blocking", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// get executes an authenticated GET against the Pi-hole API and decodes the
// JSON response body into out.
//
// All read endpoints require a session; callers without one get ErrNoSession
// so the category is skipped rather than producing a guaranteed 401.
func (c *Client) get(ctx context.Context, inst Instance, sid string, endpoint string, out interface{}) error {
	if sid == "" {
		return ErrNoSession
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, inst.Address+"/api"+endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-FTL-SID", sid)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s%s: %w", inst.Address, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// decodeError turns a non-2xx response into an *APIError, decoding the FTL
// error envelope (key/message/hint) when the body carries one.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if err == nil {
			var envelope errorResponse
			if json.Unmarshal(body, &envelope) == nil {
				apiErr.Key = envelope.Error.Key
				apiErr.Message = envelope.Error.Message
				apiErr.Hint = envelope.Error.Hint
			}
		}
	}

	return apiErr
}
