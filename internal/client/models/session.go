package models

import "time"

// Session holds the token pair for the authenticated account. ExpiresAt is
// nil when the service did not report an expiry and none could be derived
// from the token itself.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    *int64 `json:"expires_at"`
}

// User is the account profile returned at login.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Valid reports whether the access token can still be used at the given
// moment. A session with unknown expiry is never considered valid, which
// forces a refresh attempt before the next authenticated call.
func (s *Session) Valid(now time.Time, buffer time.Duration) bool {
	if s.AccessToken == "" {
		return false
	}
	if s.ExpiresAt == nil {
		return false
	}
	return now.Before(time.Unix(*s.ExpiresAt, 0).Add(-buffer))
}
