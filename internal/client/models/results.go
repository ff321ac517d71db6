package models

// ApplyOutcome is the per-item verdict of applying a single change.
type ApplyOutcome string

const (
	OutcomeApplied   ApplyOutcome = "applied"
	OutcomeProtected ApplyOutcome = "protected"
	OutcomeNotFound  ApplyOutcome = "not_found"
	OutcomeError     ApplyOutcome = "error"
)

// SyncSummary aggregates the per-item outcomes of one pull.
type SyncSummary struct {
	Applied          int `json:"applied"`
	SkippedProtected int `json:"skipped_protected"`
	NotFound         int `json:"not_found"`
	Errors           int `json:"errors"`
}

// PullResult is the complete outcome of pulling one deck: aggregate counts,
// the checkpoint after the pull, and any conflicts the server reported.
type PullResult struct {
	DeckID     string      `json:"deck_id"`
	Summary    SyncSummary `json:"summary"`
	Checkpoint int64       `json:"checkpoint"`
	Conflicts  []Conflict  `json:"conflicts"`
}

// DeckFailure names one deck that failed inside a batch, with the reason.
type DeckFailure struct {
	DeckID  string `json:"deck_id"`
	Message string `json:"message"`
}

// BatchResult is the partial-failure accounting of a multi-deck operation:
// how many succeeded and exactly which decks failed and why.
type BatchResult struct {
	SuccessCount int           `json:"success_count"`
	Failures     []DeckFailure `json:"failures"`
}

// Failed reports whether any item in the batch failed.
func (b *BatchResult) Failed() bool {
	return len(b.Failures) > 0
}

// ResolveResult aggregates a bulk conflict resolution.
type ResolveResult struct {
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
}

// RollbackResult summarizes a single-card rollback.
type RollbackResult struct {
	Restored         int `json:"restored"`
	SkippedProtected int `json:"skipped_protected"`
}
