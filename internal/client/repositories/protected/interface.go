// Package protected is the registry of note fields that synchronization and
// rollback must never touch. Entries are scoped per deck; an empty deck id
// scopes an entry to every deck.
package protected

import "context"

// GlobalScope marks an entry that applies to all decks.
const GlobalScope = ""

type Repository interface {
	// Get returns the protected field names effective for the deck: the
	// deck's own entries plus the global ones.
	Get(ctx context.Context, deckID string) (map[string]struct{}, error)
	// Set replaces the deck's entries with the given names. Names are
	// trimmed and de-duplicated; blank names are rejected with a
	// models.ValidationError.
	Set(ctx context.Context, deckID string, fields []string) error
	// Add merges names into the deck's entries without removing existing
	// ones. Used when pulling server-declared protections.
	Add(ctx context.Context, deckID string, fields []string) error
}
