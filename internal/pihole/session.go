package pihole

import (
	"context"
	"sync"
	"time"
)

// expiryMargin renews sessions slightly before their server-reported
// validity lapses, so a session never expires mid-cycle.
const expiryMargin = 10 * time.Second

// session is the cached authentication state for one instance.
type session struct {
	sid      string
	obtained time.Time
	validity time.Duration
}

// fresh reports whether the session is still within its validity window.
func (s *session) fresh(now time.Time) bool {
	if s == nil || s.sid == "" {
		return false
	}
	return now.Sub(s.obtained) < s.validity-expiryMargin
}

// SessionManager maintains exactly one valid session per instance.
//
// Sessions are held in an explicit map keyed by instance alias and owned
// exclusively by the manager; nothing else caches SIDs. Sessions are never
// persisted across restarts — on shutdown they are deleted server-side.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//     Instances authenticate independently; one instance's slow auth call
//     never blocks another's.
type SessionManager struct {
	client *Client

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionManager creates a SessionManager using the given API client.
func NewSessionManager(client *Client) *SessionManager {
	return &SessionManager{
		client:   client,
		sessions: make(map[string]*session),
	}
}

// EnsureSession returns a valid session ID for the instance, authenticating
// when no session exists or the cached one is past its validity.
//
// Returns:
//   - string: A session ID to present as X-FTL-SID
//   - error: ErrAuthRequired when the instance has no password (degraded
//     mode), ErrAuthFailed (wrapped) when the Pi-hole rejects the password
func (m *SessionManager) EnsureSession(ctx context.Context, inst Instance) (string, error) {
	if !inst.HasPassword() {
		return "", ErrAuthRequired
	}

	m.mu.Lock()
	cached := m.sessions[inst.Alias]
	m.mu.Unlock()

	if cached.fresh(time.Now()) {
		return cached.sid, nil
	}

	sid, validity, err := m.client.Authenticate(ctx, inst)
	if err != nil {
		m.mu.Lock()
		delete(m.sessions, inst.Alias)
		m.mu.Unlock()
		return "", err
	}

	m.mu.Lock()
	m.sessions[inst.Alias] = &session{
		sid:      sid,
		obtained: time.Now(),
		validity: validity,
	}
	m.mu.Unlock()

	return sid, nil
}

// Invalidate drops the cached session for an instance. Called after a request
// using the session came back 401/403; the next EnsureSession authenticates
// from scratch.
func (m *SessionManager) Invalidate(alias string) {
	m.mu.Lock()
	delete(m.sessions, alias)
	m.mu.Unlock()
}

// Logout deletes the server-side session for the instance, if one is cached.
// Pi-hole limits concurrent API sessions, so they are released on shutdown
// rather than left to age out.
func (m *SessionManager) Logout(ctx context.Context, inst Instance) error {
	m.mu.Lock()
	cached := m.sessions[inst.Alias]
	delete(m.sessions, inst.Alias)
	m.mu.Unlock()

	if cached == nil {
		return nil
	}
	return m.client.Logout(ctx, inst, cached.sid)
}
