// Package cli provides the interactive DeckSync command-line client.
//
// It wires configuration, the local tracking database, the deck service API
// and an interactive REPL. Typical flow: log in, install or update decks,
// pull field-level changes, resolve conflicts and roll cards back when an
// update went wrong.
//
// Key features:
//   - Login / Logout against the deck service
//   - Install, update and remove decks
//   - Throttled update scans with cached verdicts
//   - Incremental change pulls with conflict resolution
//   - Card history and single-card rollback
//   - Per-deck protected-field management
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
