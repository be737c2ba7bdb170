package pihole

import (
	"errors"
	"fmt"
)

// Sentinel errors for Pi-hole operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, pihole.ErrAuthRequired) {
//	    // Instance has no password configured; skip authenticated endpoints
//	}
var (
	// ErrAuthRequired indicates an instance has no configured password but the
	// requested endpoint needs an authenticated session.
	ErrAuthRequired = errors.New("pihole: authentication required but no password configured")

	// ErrNoSession indicates a call that needs a session was attempted without one.
	ErrNoSession = errors.New("pihole: no valid session")

	// ErrAuthFailed indicates the Pi-hole rejected the configured password or
	// returned an invalid session.
	ErrAuthFailed = errors.New("pihole: authentication failed")
)

// APIError is a non-2xx response from the Pi-hole API. For 4xx responses the
// FTL error envelope (key/message/hint) is decoded when present.
type APIError struct {
	StatusCode int
	Key        string
	Message    string
	Hint       string
}

func (e *APIError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("pihole: HTTP %d [%s] %s", e.StatusCode, e.Key, e.Message)
	}
	return fmt.Sprintf("pihole: HTTP %d", e.StatusCode)
}

// IsAuthError reports whether err is an API error with a 401 or 403 status,
// signalling that the cached session should be invalidated.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
}
