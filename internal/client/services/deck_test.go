package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/decksync/internal/client/cardstore"
	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/protected"
)

// stubImporter returns a fixed collection reference.
type stubImporter struct {
	ref      string
	err      error
	imported []string
}

func (s *stubImporter) Import(_ context.Context, _ []byte, name string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.imported = append(s.imported, name)
	return s.ref, nil
}

type deckFixture struct {
	svc       *deckService
	client    *fakeAPI
	decks     *memDecks
	store     *cardstore.MemoryStore
	importer  *stubImporter
	protected *protected.MemoryRepository
	settings  *memSettings
}

func newDeckFixture(t *testing.T) *deckFixture {
	t.Helper()
	f := &deckFixture{
		client:    &fakeAPI{},
		decks:     newMemDecks(),
		store:     cardstore.NewMemoryStore(),
		importer:  &stubImporter{ref: "col-new"},
		protected: protected.NewMemoryRepository(),
		settings:  newMemSettings(),
	}
	f.client.downloadDeckFn = func(_ context.Context, deckID string) (string, string, error) {
		return "https://cdn.example.com/" + deckID, "2.0.0", nil
	}
	f.client.fetchPackageFn = func(_ context.Context, _ string) ([]byte, string, error) {
		return []byte("PK\x03\x04pkg"), "", nil
	}
	updates := NewUpdateService(f.client, &stubSessionGuard{}, f.decks, f.settings, time.Hour, testLogger())
	f.svc = NewDeckService(f.client, &stubSessionGuard{}, f.decks, f.protected, f.store, f.importer, updates, testLogger()).(*deckService)
	f.svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return f
}

func TestDeckService_Install(t *testing.T) {
	f := newDeckFixture(t)
	f.client.protectedFieldsFn = func(_ context.Context, deckID string) ([]string, error) {
		return []string{"Personal Notes"}, nil
	}

	rec, err := f.svc.Install(context.Background(), "deck-1")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", rec.Version)
	assert.Equal(t, "col-new", rec.LocalRef)
	assert.Zero(t, rec.LastChangeID)

	// server-recommended protections landed in the registry
	guard, err := f.protected.Get(context.Background(), "deck-1")
	require.NoError(t, err)
	assert.Contains(t, guard, "Personal Notes")

	// a second install of the same deck is rejected
	_, err = f.svc.Install(context.Background(), "deck-1")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeckService_Update(t *testing.T) {
	f := newDeckFixture(t)
	seedDeck(t, f.decks, "deck-1", "1.0.0")
	require.NoError(t, f.decks.UpdateCheckpoint(context.Background(), "deck-1", "1.0.0", 77, time.Now()))
	f.store.AddCard("col-deck-1", "g1", map[string]string{"Front": "x"})

	rec, err := f.svc.Update(context.Background(), "deck-1")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", rec.Version)
	assert.Equal(t, "col-new", rec.LocalRef)

	// the checkpoint is reset to the update moment
	assert.Zero(t, rec.LastChangeID)
	assert.Equal(t, time.Unix(1700000000, 0), rec.LastSyncAt)

	// the superseded collection is gone
	ok, err := f.store.CollectionExists(context.Background(), "col-deck-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeckService_Update_PackageWarningDoesNotFail(t *testing.T) {
	f := newDeckFixture(t)
	seedDeck(t, f.decks, "deck-1", "1.0.0")
	f.client.fetchPackageFn = func(_ context.Context, _ string) ([]byte, string, error) {
		return []byte("weird bytes"), "unexpected content type", nil
	}

	_, err := f.svc.Update(context.Background(), "deck-1")
	require.NoError(t, err)
}

func TestDeckService_Update_DownloadFailureKeepsRecord(t *testing.T) {
	f := newDeckFixture(t)
	seedDeck(t, f.decks, "deck-1", "1.0.0")
	f.client.downloadDeckFn = func(_ context.Context, _ string) (string, string, error) {
		return "", "", assert.AnError
	}

	_, err := f.svc.Update(context.Background(), "deck-1")
	assert.Error(t, err)

	rec, err := f.decks.GetByID(context.Background(), "deck-1")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", rec.Version)
}

func TestDeckService_Remove(t *testing.T) {
	f := newDeckFixture(t)
	seedDeck(t, f.decks, "deck-1", "1.0.0")
	f.store.AddCard("col-deck-1", "g1", nil)

	require.NoError(t, f.svc.Remove(context.Background(), "deck-1"))

	_, err := f.decks.GetByID(context.Background(), "deck-1")
	assert.Error(t, err)
	ok, err := f.store.CollectionExists(context.Background(), "col-deck-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeckService_Installed_SweepsStaleRecords(t *testing.T) {
	f := newDeckFixture(t)
	seedDeck(t, f.decks, "deck-1", "1.0.0")
	seedDeck(t, f.decks, "deck-2", "1.0.0")
	f.store.AddCollection("col-deck-2")

	all, err := f.svc.Installed(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "deck-2", all[0].DeckID)
}

func TestCleanDeleted(t *testing.T) {
	f := newDeckFixture(t)
	seedDeck(t, f.decks, "deck-1", "1.0.0")
	seedDeck(t, f.decks, "deck-2", "1.0.0")
	f.store.AddCollection("col-deck-2")

	cleaned, err := CleanDeleted(context.Background(), f.decks, f.store, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"deck-1"}, cleaned)

	all, err := f.decks.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "deck-2", all[0].DeckID)
}
