// Package common defines shared constants and sentinel errors used across
// the DeckSync client layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Session lifecycle errors.
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrSessionExpired = errors.New("session expired")

	// Sync-specific outcomes.
	ErrProtectedField  = errors.New("field is protected")
	ErrCardNotFound    = errors.New("card not found")
	ErrVersionNotFound = errors.New("version not found")
)
