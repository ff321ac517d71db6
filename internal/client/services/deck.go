package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/decksync/internal/client/api"
	"github.com/dmitrijs2005/decksync/internal/client/cardstore"
	"github.com/dmitrijs2005/decksync/internal/client/importer"
	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/decks"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/protected"
	"github.com/dmitrijs2005/decksync/internal/common"
	"github.com/dmitrijs2005/decksync/internal/logging"
)

// collectionDropper is implemented by card stores that can discard a whole
// collection. Stores without it simply leave the superseded collection
// behind.
type collectionDropper interface {
	DropCollection(ctx context.Context, localRef string) error
}

// DeckService downloads deck packages and keeps the installed-deck tracking
// in step with them.
//
// Contract:
//   - Install downloads the latest package, imports it as a new collection
//     and starts tracking the deck. Installing an already tracked deck is
//     rejected.
//   - Update re-downloads the package for a tracked deck, replaces its
//     collection and resets the pull checkpoint to the update moment.
//   - Remove stops tracking a deck and drops its collection when the store
//     supports that.
//   - List returns the account's decks from the service. Installed sweeps
//     away tracking records whose collection no longer resolves before
//     returning the rest.
type DeckService interface {
	Install(ctx context.Context, deckID string) (*models.DeckRecord, error)
	Update(ctx context.Context, deckID string) (*models.DeckRecord, error)
	Remove(ctx context.Context, deckID string) error
	List(ctx context.Context) ([]models.DeckListing, error)
	Installed(ctx context.Context) ([]*models.DeckRecord, error)
	Changelog(ctx context.Context, deckID string) ([]api.ChangelogEntry, error)
	// RefreshProtectedFields merges the server-recommended protections for
	// a deck into the local registry.
	RefreshProtectedFields(ctx context.Context, deckID string) error
}

type deckService struct {
	client    api.Client
	sessions  SessionService
	decks     decks.Repository
	protected protected.Repository
	store     cardstore.Store
	importer  importer.PackageImporter
	updates   UpdateService
	log       logging.Logger
	now       func() time.Time
}

func NewDeckService(client api.Client, sessions SessionService, deckRepo decks.Repository, protectedRepo protected.Repository, store cardstore.Store, imp importer.PackageImporter, updates UpdateService, log logging.Logger) DeckService {
	return &deckService{
		client:    client,
		sessions:  sessions,
		decks:     deckRepo,
		protected: protectedRepo,
		store:     store,
		importer:  imp,
		updates:   updates,
		log:       log,
		now:       time.Now,
	}
}

func (s *deckService) Install(ctx context.Context, deckID string) (*models.DeckRecord, error) {
	_, err := s.decks.GetByID(ctx, deckID)
	if err == nil {
		return nil, &models.ValidationError{Field: "deck_id", Reason: "already installed"}
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	localRef, version, err := s.fetchAndImport(ctx, deckID)
	if err != nil {
		return nil, err
	}

	rec := &models.DeckRecord{
		DeckID:      deckID,
		Version:     version,
		LocalRef:    localRef,
		InstalledAt: s.now(),
	}
	if err := s.decks.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.RefreshProtectedFields(ctx, deckID); err != nil {
		// Protections can be fetched later; the install itself succeeded.
		s.log.Warn(ctx, "fetching protected fields", "deck_id", deckID, "error", err)
	}

	s.log.Info(ctx, "deck installed", "deck_id", deckID, "version", version)
	return rec, nil
}

func (s *deckService) Update(ctx context.Context, deckID string) (*models.DeckRecord, error) {
	rec, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}

	localRef, version, err := s.fetchAndImport(ctx, deckID)
	if err != nil {
		return nil, err
	}

	oldRef := rec.LocalRef
	rec.LocalRef = localRef
	rec.Version = version
	// The fresh package already carries every change up to this version, so
	// the next pull starts from the update moment.
	rec.LastChangeID = 0
	rec.LastSyncAt = s.now()
	if err := s.decks.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	s.dropCollection(ctx, oldRef)

	if err := s.updates.Clear(ctx, deckID); err != nil {
		s.log.Warn(ctx, "clearing cached update", "deck_id", deckID, "error", err)
	}

	s.log.Info(ctx, "deck updated", "deck_id", deckID, "version", version)
	return rec, nil
}

func (s *deckService) Remove(ctx context.Context, deckID string) error {
	rec, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		return err
	}
	if err := s.decks.Delete(ctx, deckID); err != nil {
		return err
	}
	s.dropCollection(ctx, rec.LocalRef)
	if err := s.updates.Clear(ctx, deckID); err != nil {
		s.log.Warn(ctx, "clearing cached update", "deck_id", deckID, "error", err)
	}
	s.log.Info(ctx, "deck removed", "deck_id", deckID)
	return nil
}

func (s *deckService) List(ctx context.Context) ([]models.DeckListing, error) {
	listings, err := s.client.ListDecks(ctx)
	if err != nil {
		return nil, expireOnAuthError(ctx, s.sessions, err)
	}
	return listings, nil
}

func (s *deckService) Installed(ctx context.Context) ([]*models.DeckRecord, error) {
	if _, err := CleanDeleted(ctx, s.decks, s.store, s.log); err != nil {
		s.log.Warn(ctx, "sweeping stale deck records", "error", err)
	}
	return s.decks.GetAll(ctx)
}

func (s *deckService) Changelog(ctx context.Context, deckID string) ([]api.ChangelogEntry, error) {
	entries, err := s.client.GetChangelog(ctx, deckID)
	if err != nil {
		return nil, expireOnAuthError(ctx, s.sessions, err)
	}
	return entries, nil
}

func (s *deckService) RefreshProtectedFields(ctx context.Context, deckID string) error {
	fields, err := s.client.GetProtectedFields(ctx, deckID)
	if err != nil {
		return expireOnAuthError(ctx, s.sessions, err)
	}
	if len(fields) == 0 {
		return nil
	}
	return s.protected.Add(ctx, deckID, fields)
}

// CleanDeleted drops tracking records whose collection no longer resolves
// in the card store, e.g. after the user deleted the deck in the study app.
// It returns the ids of the decks that were cleaned up.
func CleanDeleted(ctx context.Context, deckRepo decks.Repository, store cardstore.Store, log logging.Logger) ([]string, error) {
	installed, err := deckRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var cleaned []string
	for _, rec := range installed {
		exists, err := store.CollectionExists(ctx, rec.LocalRef)
		if err != nil {
			return cleaned, err
		}
		if exists {
			continue
		}
		if err := deckRepo.Delete(ctx, rec.DeckID); err != nil {
			return cleaned, err
		}
		log.Info(ctx, "dropped stale deck record", "deck_id", rec.DeckID)
		cleaned = append(cleaned, rec.DeckID)
	}
	return cleaned, nil
}

func (s *deckService) fetchAndImport(ctx context.Context, deckID string) (localRef, version string, err error) {
	url, version, err := s.client.DownloadDeck(ctx, deckID)
	if err != nil {
		return "", "", expireOnAuthError(ctx, s.sessions, err)
	}

	pkg, warning, err := s.client.FetchPackage(ctx, url)
	if err != nil {
		return "", "", err
	}
	if warning != "" {
		s.log.Warn(ctx, "package validation", "deck_id", deckID, "warning", warning)
	}

	localRef, err = s.importer.Import(ctx, pkg, deckID)
	if err != nil {
		return "", "", err
	}
	return localRef, version, nil
}

func (s *deckService) dropCollection(ctx context.Context, localRef string) {
	dropper, ok := s.store.(collectionDropper)
	if !ok || localRef == "" {
		return
	}
	if err := dropper.DropCollection(ctx, localRef); err != nil {
		s.log.Warn(ctx, "dropping superseded collection", "local_ref", localRef, "error", err)
	}
}
