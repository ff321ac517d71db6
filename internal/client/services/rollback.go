package services

import (
	"context"

	"github.com/dmitrijs2005/decksync/internal/client/api"
	"github.com/dmitrijs2005/decksync/internal/client/cardstore"
	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/decks"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/protected"
	"github.com/dmitrijs2005/decksync/internal/common"
	"github.com/dmitrijs2005/decksync/internal/logging"
)

// historyFetchLimit bounds how far back a rollback searches for the target
// version.
const historyFetchLimit = 100

// RollbackService restores a card to the values it had before a given
// version was published.
//
// Contract:
//   - The target version must appear in the card's server-side history;
//     otherwise common.ErrVersionNotFound.
//   - The card must exist locally; otherwise common.ErrCardNotFound.
//   - Protected fields are never written; they are counted as skipped.
//   - The service is notified so the rollback appears in the audit trail.
type RollbackService interface {
	Rollback(ctx context.Context, deckID, cardGUID, targetVersion string) (*models.RollbackResult, error)
	History(ctx context.Context, deckID, cardGUID string, limit int) ([]models.HistoryEntry, error)
}

type rollbackService struct {
	client    api.Client
	sessions  SessionService
	decks     decks.Repository
	protected protected.Repository
	store     cardstore.Store
	log       logging.Logger
}

func NewRollbackService(client api.Client, sessions SessionService, deckRepo decks.Repository, protectedRepo protected.Repository, store cardstore.Store, log logging.Logger) RollbackService {
	return &rollbackService{
		client:    client,
		sessions:  sessions,
		decks:     deckRepo,
		protected: protectedRepo,
		store:     store,
		log:       log,
	}
}

func (s *rollbackService) Rollback(ctx context.Context, deckID, cardGUID, targetVersion string) (*models.RollbackResult, error) {
	rec, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}

	exists, err := s.store.CardExists(ctx, rec.LocalRef, cardGUID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, common.ErrCardNotFound
	}

	history, err := s.client.CardHistory(ctx, deckID, cardGUID, historyFetchLimit)
	if err != nil {
		return nil, expireOnAuthError(ctx, s.sessions, err)
	}
	var target *models.HistoryEntry
	for i := range history {
		if history[i].Version == targetVersion {
			target = &history[i]
			break
		}
	}
	if target == nil {
		return nil, common.ErrVersionNotFound
	}

	// Record the rollback server-side before touching the card; a rejected
	// version never reaches the apply loop.
	if err := s.client.RollbackCard(ctx, deckID, cardGUID, targetVersion); err != nil {
		return nil, expireOnAuthError(ctx, s.sessions, err)
	}

	guard, err := s.protected.Get(ctx, deckID)
	if err != nil {
		return nil, err
	}

	result := &models.RollbackResult{}
	for field, oldValue := range target.Changes {
		if _, shielded := guard[field]; shielded {
			result.SkippedProtected++
			continue
		}
		if err := s.store.SetField(ctx, rec.LocalRef, cardGUID, field, oldValue); err != nil {
			return nil, err
		}
		result.Restored++
	}

	s.log.Info(ctx, "card rolled back",
		"deck_id", deckID,
		"card_guid", cardGUID,
		"version", targetVersion,
		"restored", result.Restored,
		"protected", result.SkippedProtected)
	return result, nil
}

func (s *rollbackService) History(ctx context.Context, deckID, cardGUID string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = historyFetchLimit
	}
	history, err := s.client.CardHistory(ctx, deckID, cardGUID, limit)
	if err != nil {
		return nil, expireOnAuthError(ctx, s.sessions, err)
	}
	return history, nil
}
