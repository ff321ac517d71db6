package services

import (
	"context"

	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/logging"
)

// BatchService runs a per-deck operation over many decks, strictly one at a
// time.
//
// Contract:
//   - Decks are processed in the order given; there is no concurrency, so
//     two decks never touch the card store at once.
//   - The session is revalidated before every deck; a session that cannot
//     be made valid stops the batch with the partial result.
//   - A failed deck is recorded with its reason and the batch moves on.
//   - Context cancellation stops the batch between decks; decks already
//     processed keep their recorded outcome and the context error is
//     returned alongside the partial result.
type BatchService interface {
	UpdateAll(ctx context.Context, deckIDs []string) (*models.BatchResult, error)
	SyncAll(ctx context.Context, deckIDs []string) (*models.BatchResult, error)
}

type batchService struct {
	sessions SessionService
	deckSvc  DeckService
	syncSvc  SyncService
	log      logging.Logger
}

func NewBatchService(sessions SessionService, deckSvc DeckService, syncSvc SyncService, log logging.Logger) BatchService {
	return &batchService{sessions: sessions, deckSvc: deckSvc, syncSvc: syncSvc, log: log}
}

func (s *batchService) UpdateAll(ctx context.Context, deckIDs []string) (*models.BatchResult, error) {
	return s.run(ctx, "update", deckIDs, func(ctx context.Context, deckID string) error {
		_, err := s.deckSvc.Update(ctx, deckID)
		return err
	})
}

func (s *batchService) SyncAll(ctx context.Context, deckIDs []string) (*models.BatchResult, error) {
	return s.run(ctx, "sync", deckIDs, func(ctx context.Context, deckID string) error {
		_, err := s.syncSvc.Pull(ctx, deckID)
		return err
	})
}

func (s *batchService) run(ctx context.Context, op string, deckIDs []string, fn func(ctx context.Context, deckID string) error) (*models.BatchResult, error) {
	result := &models.BatchResult{}
	for _, deckID := range deckIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.sessions.EnsureValid(ctx); err != nil {
			return result, err
		}
		if err := fn(ctx, deckID); err != nil {
			s.log.Warn(ctx, "batch item failed", "op", op, "deck_id", deckID, "error", err)
			result.Failures = append(result.Failures, models.DeckFailure{
				DeckID:  deckID,
				Message: err.Error(),
			})
			continue
		}
		result.SuccessCount++
	}
	s.log.Info(ctx, "batch finished",
		"op", op, "total", len(deckIDs),
		"succeeded", result.SuccessCount, "failed", len(result.Failures))
	return result, nil
}
