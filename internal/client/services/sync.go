package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/decksync/internal/client/api"
	"github.com/dmitrijs2005/decksync/internal/client/cardstore"
	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/decks"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/protected"
	"github.com/dmitrijs2005/decksync/internal/common"
	"github.com/dmitrijs2005/decksync/internal/logging"
)

// SyncService pulls field-level changes for installed decks and applies
// them to the local card store.
//
// Contract:
//   - Pull fetches everything after the deck's checkpoint and applies it in
//     server order. A bad item is counted and skipped, never aborting the
//     rest of the list.
//   - Fields in the protected registry are never written; matching changes
//     count as skipped.
//   - Changes the server flagged as conflicting are withheld from the apply
//     pass and returned for resolution.
//   - The checkpoint only ever moves forward, and only after the apply pass
//     ran to completion, so a crashed pull is retried from the old position.
//     A pull that advanced nothing persists nothing. Re-applying an already
//     applied change is harmless.
type SyncService interface {
	Pull(ctx context.Context, deckID string) (*models.PullResult, error)
	// Apply writes one change, honoring the protected registry. Shared
	// with conflict resolution.
	Apply(ctx context.Context, localRef, deckID string, change *models.ChangeRecord) models.ApplyOutcome
}

type syncService struct {
	client    api.Client
	sessions  SessionService
	decks     decks.Repository
	protected protected.Repository
	store     cardstore.Store
	log       logging.Logger
	now       func() time.Time
}

func NewSyncService(client api.Client, sessions SessionService, deckRepo decks.Repository, protectedRepo protected.Repository, store cardstore.Store, log logging.Logger) SyncService {
	return &syncService{
		client:    client,
		sessions:  sessions,
		decks:     deckRepo,
		protected: protectedRepo,
		store:     store,
		log:       log,
		now:       time.Now,
	}
}

func (s *syncService) Pull(ctx context.Context, deckID string) (*models.PullResult, error) {
	rec, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}

	since := rec.Checkpoint()
	payload, err := s.client.PullChanges(ctx, deckID, since)
	if err != nil {
		return nil, expireOnAuthError(ctx, s.sessions, err)
	}

	conflicted := make(map[string]struct{}, len(payload.Conflicts))
	for _, c := range payload.Conflicts {
		conflicted[c.Key()] = struct{}{}
	}

	result := &models.PullResult{
		DeckID:    deckID,
		Conflicts: payload.Conflicts,
	}

	// The checkpoint only moves forward, even if the server replays older
	// change ids.
	lastChangeID := rec.LastChangeID
	for i := range payload.Changes {
		change := &payload.Changes[i]
		if change.ChangeID > lastChangeID {
			lastChangeID = change.ChangeID
		}
		if _, held := conflicted[change.CardGUID+"/"+change.FieldName]; held {
			continue
		}
		switch s.Apply(ctx, rec.LocalRef, deckID, change) {
		case models.OutcomeApplied:
			result.Summary.Applied++
		case models.OutcomeProtected:
			result.Summary.SkippedProtected++
		case models.OutcomeNotFound:
			result.Summary.NotFound++
		default:
			result.Summary.Errors++
		}
	}
	result.Checkpoint = lastChangeID

	// An empty pull leaves the stored record alone: there is no new position
	// to remember, and stamping a sync time here would silently move the
	// checkpoint of a deck that has never received change ids.
	if lastChangeID > rec.LastChangeID {
		if err := s.decks.UpdateCheckpoint(ctx, deckID, rec.Version, lastChangeID, s.now()); err != nil {
			return nil, err
		}
	}

	s.log.Info(ctx, "pull finished",
		"deck_id", deckID,
		"since", since,
		"applied", result.Summary.Applied,
		"protected", result.Summary.SkippedProtected,
		"not_found", result.Summary.NotFound,
		"errors", result.Summary.Errors,
		"conflicts", len(result.Conflicts),
		"checkpoint", result.Checkpoint)
	return result, nil
}

func (s *syncService) Apply(ctx context.Context, localRef, deckID string, change *models.ChangeRecord) models.ApplyOutcome {
	if err := change.Validate(); err != nil {
		s.log.Warn(ctx, "skipping malformed change", "deck_id", deckID, "error", err)
		return models.OutcomeError
	}

	guard, err := s.protected.Get(ctx, deckID)
	if err != nil {
		s.log.Error(ctx, "reading protected registry", "deck_id", deckID, "error", err)
		return models.OutcomeError
	}
	if _, shielded := guard[change.FieldName]; shielded {
		s.log.Debug(ctx, "change skipped, field is protected",
			"card_guid", change.CardGUID, "field", change.FieldName)
		return models.OutcomeProtected
	}

	switch change.Type {
	case models.ChangeTypeDelete:
		if err := s.store.DeleteCard(ctx, localRef, change.CardGUID); err != nil {
			s.log.Error(ctx, "deleting card", "card_guid", change.CardGUID, "error", err)
			return models.OutcomeError
		}
		return models.OutcomeApplied
	default:
		err := s.store.SetField(ctx, localRef, change.CardGUID, change.FieldName, change.NewValue)
		if err != nil {
			if errors.Is(err, common.ErrCardNotFound) {
				return models.OutcomeNotFound
			}
			s.log.Error(ctx, "writing field",
				"card_guid", change.CardGUID, "field", change.FieldName, "error", err)
			return models.OutcomeError
		}
		return models.OutcomeApplied
	}
}
