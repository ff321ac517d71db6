package services

import (
	"context"

	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/common"
	"github.com/dmitrijs2005/decksync/internal/logging"
)

// changeApplier is the slice of SyncService that conflict resolution needs:
// writing a single change under the protected-field and card-lookup rules.
type changeApplier interface {
	Apply(ctx context.Context, localRef, deckID string, change *models.ChangeRecord) models.ApplyOutcome
}

// ResolveService settles the conflicts a pull reported.
//
// Contract:
//   - keep_local leaves the card untouched and counts as resolved.
//   - take_server runs the server value through the sync engine's apply
//     path. A protected field or a missing card is a failed resolution, not
//     a silent success.
//   - ResolveAll applies one choice per conflict and never stops at a
//     failed item; the result carries the resolved/failed split.
type ResolveService interface {
	Resolve(ctx context.Context, localRef, deckID string, conflict *models.Conflict, choice models.ResolutionChoice) error
	ResolveAll(ctx context.Context, localRef, deckID string, conflicts []models.Conflict, choices map[string]models.ResolutionChoice, fallback models.ResolutionChoice) *models.ResolveResult
}

type resolveService struct {
	apply changeApplier
	log   logging.Logger
}

func NewResolveService(apply SyncService, log logging.Logger) ResolveService {
	return &resolveService{apply: apply, log: log}
}

func (s *resolveService) Resolve(ctx context.Context, localRef, deckID string, conflict *models.Conflict, choice models.ResolutionChoice) error {
	if err := conflict.Validate(); err != nil {
		return err
	}

	switch choice {
	case models.KeepLocal:
		return nil
	case models.TakeServer:
		change := &models.ChangeRecord{
			CardGUID:  conflict.CardGUID,
			FieldName: conflict.FieldName,
			Type:      models.ChangeTypeModify,
			NewValue:  conflict.ServerValue,
		}
		switch s.apply.Apply(ctx, localRef, deckID, change) {
		case models.OutcomeApplied:
			return nil
		case models.OutcomeProtected:
			return common.ErrProtectedField
		case models.OutcomeNotFound:
			return common.ErrCardNotFound
		default:
			return common.ErrorInternal
		}
	default:
		return &models.ValidationError{Field: "choice", Reason: "must be keep_local or take_server"}
	}
}

// ResolveAll looks up each conflict's choice by its key, falling back to
// the given default when the map has no entry.
func (s *resolveService) ResolveAll(ctx context.Context, localRef, deckID string, conflicts []models.Conflict, choices map[string]models.ResolutionChoice, fallback models.ResolutionChoice) *models.ResolveResult {
	result := &models.ResolveResult{}
	for i := range conflicts {
		conflict := &conflicts[i]
		choice, ok := choices[conflict.Key()]
		if !ok {
			choice = fallback
		}
		if err := s.Resolve(ctx, localRef, deckID, conflict, choice); err != nil {
			s.log.Warn(ctx, "conflict resolution failed",
				"card_guid", conflict.CardGUID, "field", conflict.FieldName, "error", err)
			result.Failed++
			continue
		}
		result.Resolved++
	}
	return result
}
