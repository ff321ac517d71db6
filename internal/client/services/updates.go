package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/decksync/internal/client/api"
	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/decks"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/settings"
	"github.com/dmitrijs2005/decksync/internal/common"
	"github.com/dmitrijs2005/decksync/internal/logging"
)

// UpdateService is the throttled update scanner.
//
// Contract:
//   - Scan asks the service about every installed deck, caches the verdicts
//     and stamps the check time. With force=false the call is a no-op while
//     the previous scan is younger than the configured interval; the cached
//     verdicts are returned instead.
//   - Available returns the cached verdicts without going to the network.
//   - Clear drops one deck's cached verdict, typically right after the deck
//     was updated.
type UpdateService interface {
	Scan(ctx context.Context, force bool) ([]models.UpdateInfo, error)
	Available(ctx context.Context) ([]models.UpdateInfo, error)
	Clear(ctx context.Context, deckID string) error
}

type updateService struct {
	client   api.Client
	sessions SessionService
	decks    decks.Repository
	settings settings.Repository
	log      logging.Logger
	interval time.Duration
	now      func() time.Time
}

// NewUpdateService builds the scanner. Intervals shorter than
// common.MinUpdateCheckInterval are raised to it: the deck service asks
// clients not to poll more than hourly.
func NewUpdateService(client api.Client, sessions SessionService, deckRepo decks.Repository, settingsRepo settings.Repository, interval time.Duration, log logging.Logger) UpdateService {
	if interval < common.MinUpdateCheckInterval {
		interval = common.MinUpdateCheckInterval
	}
	return &updateService{
		client:   client,
		sessions: sessions,
		decks:    deckRepo,
		settings: settingsRepo,
		log:      log,
		interval: interval,
		now:      time.Now,
	}
}

func (s *updateService) Scan(ctx context.Context, force bool) ([]models.UpdateInfo, error) {
	if !force {
		due, err := s.scanDue(ctx)
		if err != nil {
			return nil, err
		}
		if !due {
			s.log.Debug(ctx, "update scan throttled")
			return s.Available(ctx)
		}
	}

	installed, err := s.decks.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(installed) == 0 {
		if err := s.stampChecked(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	req := make([]api.InstalledDeck, 0, len(installed))
	for _, d := range installed {
		req = append(req, api.InstalledDeck{DeckID: d.DeckID, Version: d.Version})
	}

	verdicts, err := s.client.CheckUpdates(ctx, req)
	if err != nil {
		// A failed scan still counts against the throttle; launching again
		// must not hammer an unreachable service.
		if serr := s.stampChecked(ctx); serr != nil {
			s.log.Warn(ctx, "stamping update check", "error", serr)
		}
		return nil, expireOnAuthError(ctx, s.sessions, err)
	}

	checkedAt := s.now()
	var updates []models.UpdateInfo
	for _, v := range verdicts {
		if !v.HasUpdate {
			continue
		}
		updates = append(updates, models.UpdateInfo{
			DeckID:           v.DeckID,
			CurrentVersion:   v.CurrentVersion,
			LatestVersion:    v.LatestVersion,
			UpdateType:       v.UpdateType,
			ChangelogSummary: v.ChangelogSummary,
			CheckedAt:        checkedAt,
		})
	}

	if err := s.saveAvailable(ctx, updates); err != nil {
		return nil, err
	}
	if err := s.stampChecked(ctx); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "update scan finished", "decks", len(installed), "updates", len(updates))
	return updates, nil
}

func (s *updateService) Available(ctx context.Context) ([]models.UpdateInfo, error) {
	data, err := s.settings.Get(ctx, settings.KeyAvailableUpdates)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var updates []models.UpdateInfo
	if err := json.Unmarshal(data, &updates); err != nil {
		return nil, fmt.Errorf("decoding cached updates: %w", err)
	}
	return updates, nil
}

func (s *updateService) Clear(ctx context.Context, deckID string) error {
	updates, err := s.Available(ctx)
	if err != nil {
		return err
	}
	kept := updates[:0]
	for _, u := range updates {
		if u.DeckID != deckID {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(updates) {
		return nil
	}
	return s.saveAvailable(ctx, kept)
}

func (s *updateService) scanDue(ctx context.Context) (bool, error) {
	data, err := s.settings.Get(ctx, settings.KeyLastUpdateCheck)
	if err != nil {
		return false, err
	}
	if data == nil {
		return true, nil
	}
	last, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		// An unreadable stamp should never wedge scanning shut.
		return true, nil
	}
	return s.now().Sub(time.Unix(last, 0)) >= s.interval, nil
}

func (s *updateService) stampChecked(ctx context.Context) error {
	stamp := strconv.FormatInt(s.now().Unix(), 10)
	return s.settings.Set(ctx, settings.KeyLastUpdateCheck, []byte(stamp))
}

func (s *updateService) saveAvailable(ctx context.Context, updates []models.UpdateInfo) error {
	if len(updates) == 0 {
		return s.settings.Delete(ctx, settings.KeyAvailableUpdates)
	}
	data, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("encoding cached updates: %w", err)
	}
	return s.settings.Set(ctx, settings.KeyAvailableUpdates, data)
}
