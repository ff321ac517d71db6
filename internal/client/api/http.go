package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/netx"
)

// DefaultRequestTimeout bounds a single API round trip. Package downloads
// use a separate, longer timeout because deck archives can be large.
const (
	DefaultRequestTimeout = 30 * time.Second
	packageFetchTimeout   = 120 * time.Second
)

const (
	endpointLogin           = "/login"
	endpointRefreshToken    = "/refresh-token"
	endpointListDecks       = "/list-decks"
	endpointCheckUpdates    = "/check-updates"
	endpointPullChanges     = "/pull-changes"
	endpointRollbackCard    = "/rollback-card"
	endpointProtectedFields = "/get-protected-fields"
	endpointDownloadDeck    = "/download-deck"
	endpointChangelog       = "/get-changelog"
	endpointCardHistory     = "/card-history"
)

// envelope is satisfied by every response type via the embedded apiEnvelope.
type envelope interface {
	ok() bool
	errText() string
}

// HTTPClient implements Client over net/http.
type HTTPClient struct {
	baseURL  string
	http     *http.Client
	fetching *http.Client
	token    string
}

// NewHTTPClient builds a client for the service at baseURL. A zero timeout
// selects DefaultRequestTimeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &HTTPClient{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		fetching: &http.Client{Timeout: packageFetchTimeout},
	}
}

// SetToken installs the bearer token used on authenticated requests.
// The engine runs one network operation per deck at a time, so no locking
// is needed around the token field.
func (c *HTTPClient) SetToken(token string) {
	c.token = token
}

// post sends body as JSON to path and decodes the response into out.
// It maps transport and status failures to the package's error taxonomy.
func (c *HTTPClient) post(ctx context.Context, path string, body any, authed bool, out envelope) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("building request url: %w", err)
	}

	if body == nil {
		body = struct{}{}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: serverMessage(raw)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Status: resp.StatusCode, Message: "malformed response body"}
	}

	if !out.ok() {
		msg := out.errText()
		if msg == "" {
			msg = "request failed"
		}
		return &Error{Status: resp.StatusCode, Message: msg}
	}

	return nil
}

// serverMessage extracts a human-readable error from a failure body, trying
// the conventional message/error/detail keys in that order.
func serverMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Err     string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	switch {
	case body.Message != "":
		return body.Message
	case body.Err != "":
		return body.Err
	default:
		return body.Detail
	}
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.Session, *models.User, error) {
	var resp loginResponse
	err := c.post(ctx, endpointLogin, loginRequest{Email: email, Password: password}, false, &resp)
	if err != nil {
		return nil, nil, err
	}

	session := &models.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	}
	return session, resp.User, nil
}

func (c *HTTPClient) RefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	var resp refreshResponse
	err := c.post(ctx, endpointRefreshToken, refreshRequest{RefreshToken: refreshToken}, false, &resp)
	if err != nil {
		return nil, err
	}

	return &models.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	}, nil
}

func (c *HTTPClient) ListDecks(ctx context.Context) ([]models.DeckListing, error) {
	var resp listDecksResponse
	if err := c.post(ctx, endpointListDecks, nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Decks, nil
}

func (c *HTTPClient) CheckUpdates(ctx context.Context, installed []InstalledDeck) ([]DeckUpdate, error) {
	var resp checkUpdatesResponse
	if err := c.post(ctx, endpointCheckUpdates, checkUpdatesRequest{Decks: installed}, true, &resp); err != nil {
		return nil, err
	}
	return resp.Decks, nil
}

func (c *HTTPClient) PullChanges(ctx context.Context, deckID string, since int64) (*PullPayload, error) {
	var resp pullChangesResponse
	if err := c.post(ctx, endpointPullChanges, pullChangesRequest{DeckID: deckID, Since: since}, true, &resp); err != nil {
		return nil, err
	}
	return &PullPayload{Changes: resp.Changes, Conflicts: resp.Conflicts}, nil
}

func (c *HTTPClient) RollbackCard(ctx context.Context, deckID, cardGUID, targetVersion string) error {
	var resp rollbackCardResponse
	req := rollbackCardRequest{DeckID: deckID, CardGUID: cardGUID, TargetVersion: targetVersion}
	return c.post(ctx, endpointRollbackCard, req, true, &resp)
}

func (c *HTTPClient) GetProtectedFields(ctx context.Context, deckID string) ([]string, error) {
	var resp protectedFieldsResponse
	if err := c.post(ctx, endpointProtectedFields, deckIDRequest{DeckID: deckID}, true, &resp); err != nil {
		return nil, err
	}
	return resp.ProtectedFields, nil
}

func (c *HTTPClient) DownloadDeck(ctx context.Context, deckID string) (string, string, error) {
	var resp downloadDeckResponse
	if err := c.post(ctx, endpointDownloadDeck, deckIDRequest{DeckID: deckID}, true, &resp); err != nil {
		return "", "", err
	}
	if resp.DownloadURL == "" {
		return "", "", &Error{Status: http.StatusOK, Message: "response carried no download url"}
	}
	return resp.DownloadURL, resp.Version, nil
}

func (c *HTTPClient) FetchPackage(ctx context.Context, url string) ([]byte, string, error) {
	return netx.DownloadFromPresignedURL(ctx, c.fetching, url)
}

func (c *HTTPClient) GetChangelog(ctx context.Context, deckID string) ([]ChangelogEntry, error) {
	var resp changelogResponse
	if err := c.post(ctx, endpointChangelog, deckIDRequest{DeckID: deckID}, true, &resp); err != nil {
		return nil, err
	}
	return resp.Versions, nil
}

func (c *HTTPClient) CardHistory(ctx context.Context, deckID, cardGUID string, limit int) ([]models.HistoryEntry, error) {
	var resp cardHistoryResponse
	req := cardHistoryRequest{DeckID: deckID, CardGUID: cardGUID, Limit: limit}
	if err := c.post(ctx, endpointCardHistory, req, true, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}
