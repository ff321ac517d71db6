// Package services contains the application services of the sync engine:
// session management, update scanning, change pulls, conflict resolution,
// rollback and batch orchestration.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/decksync/internal/client/api"
	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/settings"
	"github.com/dmitrijs2005/decksync/internal/common"
	"github.com/dmitrijs2005/decksync/internal/logging"
)

// SessionService owns the token pair and keeps the API client authenticated.
//
// Contract:
//   - Login: authenticate, persist the session, install the access token.
//   - EnsureValid: make sure an access token good for at least the expiry
//     buffer is installed, refreshing when needed. Returns
//     common.ErrNotLoggedIn when no session exists and
//     common.ErrSessionExpired when the refresh fails for any reason; in
//     the latter case the stored tokens are cleared.
//   - Expire: drop the stored tokens. Called when an authenticated request
//     comes back 401 despite a formally valid token; the service's verdict
//     overrules the stored expiry.
//   - Logout: drop the stored session and user profile.
type SessionService interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	EnsureValid(ctx context.Context) error
	Expire(ctx context.Context)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
}

type sessionService struct {
	client   api.Client
	settings settings.Repository
	log      logging.Logger
	now      func() time.Time
}

func NewSessionService(client api.Client, settings settings.Repository, log logging.Logger) SessionService {
	return &sessionService{client: client, settings: settings, log: log, now: time.Now}
}

func (s *sessionService) Login(ctx context.Context, email, password string) (*models.User, error) {
	session, user, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	fillExpiry(session)

	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}
	if user != nil {
		data, err := json.Marshal(user)
		if err != nil {
			return nil, fmt.Errorf("encoding user: %w", err)
		}
		if err := s.settings.Set(ctx, settings.KeyUser, data); err != nil {
			return nil, err
		}
	}

	s.client.SetToken(session.AccessToken)
	s.log.Info(ctx, "logged in", "email", email)
	return user, nil
}

func (s *sessionService) EnsureValid(ctx context.Context) error {
	session, err := s.loadSession(ctx)
	if err != nil {
		return err
	}
	if session == nil || (session.AccessToken == "" && session.RefreshToken == "") {
		return common.ErrNotLoggedIn
	}

	if session.Valid(s.now(), common.TokenExpiryBuffer) {
		s.client.SetToken(session.AccessToken)
		return nil
	}

	if session.RefreshToken == "" {
		return common.ErrNotLoggedIn
	}

	refreshed, err := s.client.RefreshToken(ctx, session.RefreshToken)
	if err != nil {
		// A failed refresh, rejected or unreachable, forces a new login
		// instead of retrying with a token the service may have revoked.
		s.clearTokens(ctx)
		s.log.Warn(ctx, "token refresh failed", "error", err)
		return common.ErrSessionExpired
	}
	fillExpiry(refreshed)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = session.RefreshToken
	}

	if err := s.saveSession(ctx, refreshed); err != nil {
		return err
	}
	s.client.SetToken(refreshed.AccessToken)
	s.log.Debug(ctx, "session refreshed")
	return nil
}

func (s *sessionService) Expire(ctx context.Context) {
	s.clearTokens(ctx)
	s.client.SetToken("")
	s.log.Warn(ctx, "access token rejected by the service, tokens cleared")
}

// expireOnAuthError maps a transport 401 to an expired session, clearing
// the stored tokens on the way so the rejected token is never re-presented.
// Every error from an authenticated call passes through here.
func expireOnAuthError(ctx context.Context, sessions SessionService, err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		sessions.Expire(ctx)
		return common.ErrSessionExpired
	}
	return err
}

func (s *sessionService) Logout(ctx context.Context) error {
	s.clearTokens(ctx)
	if err := s.settings.Delete(ctx, settings.KeyUser); err != nil {
		return err
	}
	s.client.SetToken("")
	s.log.Info(ctx, "logged out")
	return nil
}

func (s *sessionService) CurrentUser(ctx context.Context) (*models.User, error) {
	data, err := s.settings.Get(ctx, settings.KeyUser)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, common.ErrNotLoggedIn
	}
	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	return &user, nil
}

func (s *sessionService) loadSession(ctx context.Context) (*models.Session, error) {
	data, err := s.settings.Get(ctx, settings.KeySession)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &session, nil
}

func (s *sessionService) saveSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return s.settings.Set(ctx, settings.KeySession, data)
}

func (s *sessionService) clearTokens(ctx context.Context) {
	if err := s.settings.Delete(ctx, settings.KeySession); err != nil {
		s.log.Warn(ctx, "clearing stored session", "error", err)
	}
}

// fillExpiry derives ExpiresAt from the access token's exp claim when the
// service did not report an expiry. The token is parsed without signature
// verification; the expiry only gates client-side refresh timing.
func fillExpiry(session *models.Session) {
	if session == nil || session.ExpiresAt != nil || session.AccessToken == "" {
		return
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(session.AccessToken, claims); err != nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	unix := exp.Unix()
	session.ExpiresAt = &unix
}
