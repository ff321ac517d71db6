// Package models defines the records exchanged with the deck service and
// the local tracking state derived from them.
package models

import (
	"fmt"
	"time"
)

// ChangeType classifies a field-level delta.
type ChangeType string

const (
	ChangeTypeAdd    ChangeType = "add"
	ChangeTypeModify ChangeType = "modify"
	ChangeTypeDelete ChangeType = "delete"
)

// ValidationError reports a malformed wire item. The offending item is
// skipped and counted; it never aborts the containing batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// ChangeRecord is one field-level delta published by the deck service.
// Records are immutable once received; ChangeID is monotonic per deck and
// serves as the pull checkpoint.
type ChangeRecord struct {
	CardGUID  string     `json:"card_guid"`
	FieldName string     `json:"field_name"`
	Type      ChangeType `json:"change_type"`
	NewValue  string     `json:"new_value"`
	Version   string     `json:"version"`
	ChangeID  int64      `json:"change_id"`
	ChangedAt time.Time  `json:"changed_at"`
	ChangedBy string     `json:"changed_by"`
}

// Validate checks the fields a change cannot be applied without.
func (c *ChangeRecord) Validate() error {
	if c.CardGUID == "" {
		return &ValidationError{Field: "card_guid", Reason: "is required"}
	}
	if c.FieldName == "" {
		return &ValidationError{Field: "field_name", Reason: "is required"}
	}
	switch c.Type {
	case ChangeTypeAdd, ChangeTypeModify, ChangeTypeDelete:
	case "":
		// Older service versions omit the type on modifications.
	default:
		return &ValidationError{Field: "change_type", Reason: fmt.Sprintf("unknown value %q", c.Type)}
	}
	return nil
}

// Conflict is a field where the local and server values have diverged
// according to the server. Conflicts are per-pull artifacts: they are
// resolved exactly once and never persisted.
type Conflict struct {
	CardGUID    string `json:"card_guid"`
	FieldName   string `json:"field_name"`
	LocalValue  string `json:"local_value"`
	ServerValue string `json:"server_value"`
}

// Validate checks the identifying fields of a conflict.
func (c *Conflict) Validate() error {
	if c.CardGUID == "" {
		return &ValidationError{Field: "card_guid", Reason: "is required"}
	}
	if c.FieldName == "" {
		return &ValidationError{Field: "field_name", Reason: "is required"}
	}
	return nil
}

// Key identifies a conflict within a pull cycle.
func (c *Conflict) Key() string {
	return c.CardGUID + "/" + c.FieldName
}

// ResolutionChoice selects how a conflict is settled.
type ResolutionChoice string

const (
	// KeepLocal leaves the local value in place.
	KeepLocal ResolutionChoice = "keep_local"
	// TakeServer overwrites the local value with the server's.
	TakeServer ResolutionChoice = "take_server"
)
