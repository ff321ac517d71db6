package models

import "time"

// HistoryEntry is one recorded version of a card, as returned by the deck
// service. Changes maps field names to the value the field had *before*
// this version was published, which is what a rollback restores.
type HistoryEntry struct {
	Version   string            `json:"version"`
	ChangedAt time.Time         `json:"changed_at"`
	ChangedBy string            `json:"changed_by"`
	Changes   map[string]string `json:"changes"`
}
