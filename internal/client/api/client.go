// Package api implements the JSON/HTTPS wire contract of the deck service.
// All endpoints are POST requests with JSON bodies; authenticated calls
// carry the access token as a bearer header. Package bytes are fetched with
// a plain GET of the presigned URL returned by DownloadDeck.
package api

import (
	"context"

	"github.com/dmitrijs2005/decksync/internal/client/models"
)

// Client is the transport interface the engine services depend on.
//
// Error mapping contract:
//   - unreachable service → error matching ErrUnavailable
//   - 401 from any endpoint → error matching ErrUnauthorized
//   - other non-2xx, JSON parse failures, success=false → *Error
type Client interface {
	// Login authenticates with email/password and returns the issued
	// session plus the account profile.
	Login(ctx context.Context, email, password string) (*models.Session, *models.User, error)

	// RefreshToken exchanges a refresh token for a new session.
	RefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)

	// ListDecks returns every deck visible to the account.
	ListDecks(ctx context.Context) ([]models.DeckListing, error)

	// CheckUpdates reports, for each installed deck, whether a newer
	// version has been published.
	CheckUpdates(ctx context.Context, installed []InstalledDeck) ([]DeckUpdate, error)

	// PullChanges returns the ordered change list and conflicts for one
	// deck since the given checkpoint.
	PullChanges(ctx context.Context, deckID string, since int64) (*PullPayload, error)

	// RollbackCard asks the service for confirmation that the target
	// version exists; the local restoration is the caller's job.
	RollbackCard(ctx context.Context, deckID, cardGUID, targetVersion string) error

	// GetProtectedFields returns the server-recommended protected field
	// names for a deck.
	GetProtectedFields(ctx context.Context, deckID string) ([]string, error)

	// DownloadDeck returns a short-lived URL for the deck package.
	DownloadDeck(ctx context.Context, deckID string) (url string, version string, err error)

	// FetchPackage GETs package bytes from a download URL. The warning is
	// non-empty when the body does not look like a package archive.
	FetchPackage(ctx context.Context, url string) (data []byte, warning string, err error)

	// GetChangelog lists the published versions of a deck.
	GetChangelog(ctx context.Context, deckID string) ([]ChangelogEntry, error)

	// CardHistory returns up to limit recorded versions of one card,
	// newest first.
	CardHistory(ctx context.Context, deckID, cardGUID string, limit int) ([]models.HistoryEntry, error)

	// SetToken installs the access token used on authenticated calls.
	SetToken(token string)
}
