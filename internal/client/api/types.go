package api

import (
	"time"

	"github.com/dmitrijs2005/decksync/internal/client/models"
)

// InstalledDeck is one tracked deck reported to the check-updates endpoint.
type InstalledDeck struct {
	DeckID  string `json:"deck_id"`
	Version string `json:"current_version"`
}

// DeckUpdate is the per-deck verdict of the check-updates endpoint.
type DeckUpdate struct {
	DeckID           string `json:"deck_id"`
	HasUpdate        bool   `json:"has_update"`
	CurrentVersion   string `json:"current_version"`
	LatestVersion    string `json:"latest_version"`
	UpdateType       string `json:"update_type"`
	ChangelogSummary string `json:"changelog_summary"`
}

// PullPayload carries the ordered change list and the conflicts the server
// detected for one deck since the submitted checkpoint.
type PullPayload struct {
	Changes   []models.ChangeRecord `json:"changes"`
	Conflicts []models.Conflict     `json:"conflicts"`
}

// ChangelogEntry is one released version in a deck's changelog.
type ChangelogEntry struct {
	Version    string    `json:"version"`
	ReleasedAt time.Time `json:"released_at"`
	Summary    string    `json:"summary"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type checkUpdatesRequest struct {
	Decks []InstalledDeck `json:"decks"`
}

type pullChangesRequest struct {
	DeckID string `json:"deck_id"`
	Since  int64  `json:"since"`
}

type rollbackCardRequest struct {
	DeckID        string `json:"deck_id"`
	CardGUID      string `json:"card_guid"`
	TargetVersion string `json:"target_version"`
}

type deckIDRequest struct {
	DeckID string `json:"deck_id"`
}

type cardHistoryRequest struct {
	DeckID   string `json:"deck_id"`
	CardGUID string `json:"card_guid"`
	Limit    int    `json:"limit"`
}

// apiEnvelope is embedded in every response shape: a success flag plus the
// optional error message/detail the service attaches on failure.
type apiEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (e *apiEnvelope) ok() bool { return e.Success }

func (e *apiEnvelope) errText() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Detail
}

type loginResponse struct {
	apiEnvelope
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresAt    *int64       `json:"expires_at"`
	User         *models.User `json:"user"`
}

type refreshResponse struct {
	apiEnvelope
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    *int64 `json:"expires_at"`
}

type checkUpdatesResponse struct {
	apiEnvelope
	Decks []DeckUpdate `json:"decks"`
}

type pullChangesResponse struct {
	apiEnvelope
	Changes   []models.ChangeRecord `json:"changes"`
	Conflicts []models.Conflict     `json:"conflicts"`
}

type rollbackCardResponse struct {
	apiEnvelope
}

type protectedFieldsResponse struct {
	apiEnvelope
	ProtectedFields []string `json:"protected_fields"`
}

type downloadDeckResponse struct {
	apiEnvelope
	DownloadURL string `json:"download_url"`
	DeckTitle   string `json:"deck_title"`
	Version     string `json:"version"`
}

type listDecksResponse struct {
	apiEnvelope
	Decks []models.DeckListing `json:"decks"`
}

type changelogResponse struct {
	apiEnvelope
	Versions []ChangelogEntry `json:"versions"`
}

type cardHistoryResponse struct {
	apiEnvelope
	History []models.HistoryEntry `json:"history"`
}
