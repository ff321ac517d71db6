package models

import "time"

// DeckRecord tracks one installed deck. Created on first successful
// download, updated on every pull and update, removed when the user drops
// the deck or the local reference stops resolving.
type DeckRecord struct {
	// DeckID is the service-side deck identifier.
	DeckID string `json:"deck_id"`
	// Version is the installed release tag. Opaque to the client.
	Version string `json:"version"`
	// LocalRef is the collection identifier returned by the package importer.
	LocalRef string `json:"local_ref"`
	// LastChangeID is the pull checkpoint; zero means no pull has happened yet.
	LastChangeID int64 `json:"last_change_id"`
	// LastSyncAt is the fallback checkpoint for decks without a change id.
	LastSyncAt time.Time `json:"last_sync_at"`
	// InstalledAt records when the deck was first imported.
	InstalledAt time.Time `json:"installed_at"`
}

// Checkpoint returns the value sent as "since" on pull requests: the last
// change id when one exists, otherwise the last sync time in unix seconds.
func (d *DeckRecord) Checkpoint() int64 {
	if d.LastChangeID > 0 {
		return d.LastChangeID
	}
	if !d.LastSyncAt.IsZero() {
		return d.LastSyncAt.Unix()
	}
	return 0
}

// UpdateInfo describes an available deck update. Transient: recomputed on
// every scan and cleared once the deck is actually updated.
type UpdateInfo struct {
	DeckID           string    `json:"deck_id"`
	CurrentVersion   string    `json:"current_version"`
	LatestVersion    string    `json:"latest_version"`
	UpdateType       string    `json:"update_type"`
	ChangelogSummary string    `json:"changelog_summary"`
	CheckedAt        time.Time `json:"checked_at"`
}

// DeckListing is a deck visible to the account on the service, whether or
// not it is installed locally.
type DeckListing struct {
	DeckID        string `json:"deck_id"`
	Title         string `json:"title"`
	LatestVersion string `json:"latest_version"`
}
