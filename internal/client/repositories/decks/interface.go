// Package decks tracks which remote decks are installed locally, the version
// each one is at, and the sync checkpoint used for incremental pulls.
package decks

import (
	"context"
	"time"

	"github.com/dmitrijs2005/decksync/internal/client/models"
)

type Repository interface {
	// Upsert inserts the record or replaces an existing one with the same
	// deck id.
	Upsert(ctx context.Context, rec *models.DeckRecord) error
	// GetByID returns common.ErrorNotFound when the deck is not tracked.
	GetByID(ctx context.Context, deckID string) (*models.DeckRecord, error)
	GetAll(ctx context.Context) ([]*models.DeckRecord, error)
	// UpdateCheckpoint advances the stored version and sync position after a
	// successful pull.
	UpdateCheckpoint(ctx context.Context, deckID string, version string, lastChangeID int64, lastSyncAt time.Time) error
	Delete(ctx context.Context, deckID string) error
}
