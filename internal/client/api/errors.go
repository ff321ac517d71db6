package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the service could not be reached at all
	// (connection refused, timeout, DNS failure).
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized maps any 401 response. Callers treat it as a
	// session-expired sentinel and clear stored tokens.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a non-2xx or otherwise failed API response, carrying the HTTP
// status and the server-supplied message when one could be decoded.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (status %d)", e.Status)
}
