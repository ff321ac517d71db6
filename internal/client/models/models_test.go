package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		change  ChangeRecord
		wantErr bool
	}{
		{"complete", ChangeRecord{CardGUID: "g1", FieldName: "Answer", Type: ChangeTypeModify}, false},
		{"empty type allowed", ChangeRecord{CardGUID: "g1", FieldName: "Answer"}, false},
		{"missing guid", ChangeRecord{FieldName: "Answer"}, true},
		{"missing field", ChangeRecord{CardGUID: "g1"}, true},
		{"unknown type", ChangeRecord{CardGUID: "g1", FieldName: "Answer", Type: "merge"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.change.Validate()
			if tc.wantErr {
				require.Error(t, err)
				var ve *ValidationError
				assert.True(t, errors.As(err, &ve), "expected *ValidationError, got %T", err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConflict_Validate(t *testing.T) {
	ok := Conflict{CardGUID: "g1", FieldName: "Notes"}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "g1/Notes", ok.Key())

	bad := Conflict{FieldName: "Notes"}
	require.Error(t, bad.Validate())
}

func TestSession_Valid(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	buffer := 300 * time.Second

	expiresAt := func(d time.Duration) *int64 {
		v := now.Add(d).Unix()
		return &v
	}

	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{"fresh token", Session{AccessToken: "t", ExpiresAt: expiresAt(time.Hour)}, true},
		{"inside buffer", Session{AccessToken: "t", ExpiresAt: expiresAt(200 * time.Second)}, false},
		{"already expired", Session{AccessToken: "t", ExpiresAt: expiresAt(-time.Minute)}, false},
		{"unknown expiry", Session{AccessToken: "t"}, false},
		{"no token", Session{ExpiresAt: expiresAt(time.Hour)}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.session.Valid(now, buffer))
		})
	}
}

func TestDeckRecord_Checkpoint(t *testing.T) {
	syncedAt := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name string
		deck DeckRecord
		want int64
	}{
		{"change id wins", DeckRecord{LastChangeID: 42, LastSyncAt: syncedAt}, 42},
		{"falls back to sync time", DeckRecord{LastSyncAt: syncedAt}, syncedAt.Unix()},
		{"never synced", DeckRecord{}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.deck.Checkpoint())
		})
	}
}
