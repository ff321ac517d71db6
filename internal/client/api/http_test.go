package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *HTTPClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewHTTPClient(srv.URL, 0)
	c.http = srv.Client()
	c.fetching = srv.Client()
	return srv, c
}

func TestLogin_Success(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, endpointLogin, r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"), "login must not send a token")

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user@example.com", req.Email)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":       true,
			"access_token":  "acc-1",
			"refresh_token": "ref-1",
			"expires_at":    1800000000,
			"user":          map[string]any{"id": "u1", "email": "user@example.com"},
		})
	})

	session, user, err := c.Login(context.Background(), "user@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", session.AccessToken)
	assert.Equal(t, "ref-1", session.RefreshToken)
	require.NotNil(t, session.ExpiresAt)
	assert.Equal(t, int64(1800000000), *session.ExpiresAt)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
}

func TestPost_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		checkFn func(t *testing.T, err error)
	}{
		{
			name:   "401 maps to ErrUnauthorized",
			status: http.StatusUnauthorized,
			body:   `{"message":"token expired"}`,
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name:   "500 carries status and message",
			status: http.StatusInternalServerError,
			body:   `{"error":"boom"}`,
			checkFn: func(t *testing.T, err error) {
				var apiErr *Error
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
				assert.Equal(t, "boom", apiErr.Message)
			},
		},
		{
			name:   "success=false is an error",
			status: http.StatusOK,
			body:   `{"success":false,"message":"deck not purchased"}`,
			checkFn: func(t *testing.T, err error) {
				var apiErr *Error
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, "deck not purchased", apiErr.Message)
			},
		},
		{
			name:   "malformed body is an error",
			status: http.StatusOK,
			body:   `<html>not json</html>`,
			checkFn: func(t *testing.T, err error) {
				var apiErr *Error
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, "malformed response body", apiErr.Message)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.ListDecks(context.Background())
			require.Error(t, err)
			tc.checkFn(t, err)
		})
	}
}

func TestPost_ServerUnreachable(t *testing.T) {
	srv, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.ListDecks(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPullChanges_DecodesPayload(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, endpointPullChanges, r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var req pullChangesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "law101", req.DeckID)
		assert.Equal(t, int64(42), req.Since)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"changes": []map[string]any{
				{"card_guid": "g1", "field_name": "Answer", "change_type": "modify", "new_value": "X", "change_id": 43},
				{"card_guid": "g2", "field_name": "Notes", "change_type": "modify", "new_value": "Y", "change_id": 44},
			},
			"conflicts": []map[string]any{
				{"card_guid": "g1", "field_name": "Front", "local_value": "a", "server_value": "b"},
			},
		})
	})

	c.SetToken("tok-1")
	payload, err := c.PullChanges(context.Background(), "law101", 42)
	require.NoError(t, err)
	require.Len(t, payload.Changes, 2)
	assert.Equal(t, int64(43), payload.Changes[0].ChangeID)
	assert.Equal(t, "Notes", payload.Changes[1].FieldName)
	require.Len(t, payload.Conflicts, 1)
	assert.Equal(t, "b", payload.Conflicts[0].ServerValue)
}

func TestDownloadDeck_RequiresURL(t *testing.T) {
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	c.SetToken("tok-1")
	_, _, err := c.DownloadDeck(context.Background(), "law101")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
}

func TestFetchPackage_Warning(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pkg", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not-an-archive"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewHTTPClient(srv.URL, 0)
	c.fetching = srv.Client()

	data, warning, err := c.FetchPackage(context.Background(), srv.URL+"/pkg")
	require.NoError(t, err)
	assert.Equal(t, []byte("not-an-archive"), data)
	assert.NotEmpty(t, warning)
}
