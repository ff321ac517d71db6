package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/decksync/internal/client/api"
	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/settings"
	"github.com/dmitrijs2005/decksync/internal/common"
)

func ptrInt64(v int64) *int64 { return &v }

func newSessionService(client *fakeAPI, store *memSettings, now time.Time) *sessionService {
	s := NewSessionService(client, store, testLogger()).(*sessionService)
	s.now = func() time.Time { return now }
	return s
}

func TestSessionService_Login(t *testing.T) {
	now := time.Now()
	client := &fakeAPI{
		loginFn: func(_ context.Context, email, password string) (*models.Session, *models.User, error) {
			assert.Equal(t, "a@b.c", email)
			assert.Equal(t, "secret", password)
			return &models.Session{
					AccessToken:  "acc",
					RefreshToken: "ref",
					ExpiresAt:    ptrInt64(now.Add(time.Hour).Unix()),
				}, &models.User{ID: "u1", Email: "a@b.c"}, nil
		},
	}
	store := newMemSettings()
	svc := newSessionService(client, store, now)

	user, err := svc.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "acc", client.currentToken())

	// session is persisted, so EnsureValid succeeds without a refresh
	require.NoError(t, svc.EnsureValid(context.Background()))

	got, err := svc.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", got.Email)
}

func TestSessionService_EnsureValid_NotLoggedIn(t *testing.T) {
	svc := newSessionService(&fakeAPI{}, newMemSettings(), time.Now())
	err := svc.EnsureValid(context.Background())
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestSessionService_EnsureValid_RefreshInsideBuffer(t *testing.T) {
	now := time.Now()
	refreshed := false
	client := &fakeAPI{
		refreshFn: func(_ context.Context, refreshToken string) (*models.Session, error) {
			refreshed = true
			assert.Equal(t, "ref", refreshToken)
			return &models.Session{
				AccessToken: "acc2",
				ExpiresAt:   ptrInt64(now.Add(time.Hour).Unix()),
			}, nil
		},
	}
	store := newMemSettings()
	svc := newSessionService(client, store, now)

	// Token still formally alive but inside the expiry buffer, so it must
	// be refreshed before use.
	require.NoError(t, svc.saveSession(context.Background(), &models.Session{
		AccessToken:  "acc",
		RefreshToken: "ref",
		ExpiresAt:    ptrInt64(now.Add(200 * time.Second).Unix()),
	}))

	require.NoError(t, svc.EnsureValid(context.Background()))
	assert.True(t, refreshed)
	assert.Equal(t, "acc2", client.currentToken())

	// the refresh token is kept when the service does not rotate it
	saved, err := svc.loadSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ref", saved.RefreshToken)
}

func TestSessionService_EnsureValid_RefreshRejected(t *testing.T) {
	now := time.Now()
	client := &fakeAPI{
		refreshFn: func(_ context.Context, _ string) (*models.Session, error) {
			return nil, api.ErrUnauthorized
		},
	}
	store := newMemSettings()
	svc := newSessionService(client, store, now)

	require.NoError(t, svc.saveSession(context.Background(), &models.Session{
		AccessToken:  "acc",
		RefreshToken: "ref",
		ExpiresAt:    ptrInt64(now.Add(-time.Minute).Unix()),
	}))

	err := svc.EnsureValid(context.Background())
	assert.ErrorIs(t, err, common.ErrSessionExpired)

	// tokens are gone; the next attempt reports not logged in
	err = svc.EnsureValid(context.Background())
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestSessionService_EnsureValid_ServiceUnavailable(t *testing.T) {
	now := time.Now()
	client := &fakeAPI{
		refreshFn: func(_ context.Context, _ string) (*models.Session, error) {
			return nil, api.ErrUnavailable
		},
	}
	store := newMemSettings()
	svc := newSessionService(client, store, now)

	require.NoError(t, svc.saveSession(context.Background(), &models.Session{
		AccessToken:  "acc",
		RefreshToken: "ref",
		ExpiresAt:    ptrInt64(now.Add(-time.Minute).Unix()),
	}))

	// an unreachable service fails the refresh the same way a rejection
	// does: tokens are cleared and a new login is required
	err := svc.EnsureValid(context.Background())
	assert.ErrorIs(t, err, common.ErrSessionExpired)

	err = svc.EnsureValid(context.Background())
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestSessionService_Expire(t *testing.T) {
	now := time.Now()
	client := &fakeAPI{}
	client.SetToken("acc")
	store := newMemSettings()
	svc := newSessionService(client, store, now)

	require.NoError(t, svc.saveSession(context.Background(), &models.Session{
		AccessToken:  "acc",
		RefreshToken: "ref",
		ExpiresAt:    ptrInt64(now.Add(time.Hour).Unix()),
	}))

	// a formally valid session dies the moment the service says so
	svc.Expire(context.Background())
	assert.Empty(t, client.currentToken())
	assert.ErrorIs(t, svc.EnsureValid(context.Background()), common.ErrNotLoggedIn)
}

func TestExpireOnAuthError(t *testing.T) {
	guard := &stubSessionGuard{}

	err := expireOnAuthError(context.Background(), guard, api.ErrUnauthorized)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
	assert.Equal(t, 1, guard.expired)

	// other failures pass through untouched
	err = expireOnAuthError(context.Background(), guard, api.ErrUnavailable)
	assert.ErrorIs(t, err, api.ErrUnavailable)
	assert.Equal(t, 1, guard.expired)
}

func TestSessionService_Logout(t *testing.T) {
	now := time.Now()
	client := &fakeAPI{}
	client.SetToken("acc")
	store := newMemSettings()
	svc := newSessionService(client, store, now)

	require.NoError(t, svc.saveSession(context.Background(), &models.Session{AccessToken: "acc"}))
	require.NoError(t, store.Set(context.Background(), settings.KeyUser, []byte(`{"id":"u1"}`)))

	require.NoError(t, svc.Logout(context.Background()))
	assert.Empty(t, client.currentToken())

	_, err := svc.CurrentUser(context.Background())
	assert.ErrorIs(t, err, common.ErrNotLoggedIn)
}

func TestFillExpiry(t *testing.T) {
	// unsigned token with exp claim 1893456000 (2030-01-01T00:00:00Z)
	token := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJleHAiOjE4OTM0NTYwMDB9."

	s := &models.Session{AccessToken: token}
	fillExpiry(s)
	require.NotNil(t, s.ExpiresAt)
	assert.Equal(t, int64(1893456000), *s.ExpiresAt)

	// a reported expiry wins over the claim
	explicit := ptrInt64(42)
	s = &models.Session{AccessToken: token, ExpiresAt: explicit}
	fillExpiry(s)
	assert.Equal(t, explicit, s.ExpiresAt)

	// garbage tokens leave the expiry unknown
	s = &models.Session{AccessToken: "not-a-jwt"}
	fillExpiry(s)
	assert.Nil(t, s.ExpiresAt)
}
