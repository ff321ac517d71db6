package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/decksync/internal/client/api"
	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/common"
	"github.com/dmitrijs2005/decksync/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

// stubSessionGuard is a SessionService whose EnsureValid verdict is fixed.
// Expire calls are counted so tests can assert a 401 dropped the session.
type stubSessionGuard struct {
	err     error
	expired int
}

func (s *stubSessionGuard) Login(context.Context, string, string) (*models.User, error) {
	return nil, nil
}

func (s *stubSessionGuard) EnsureValid(context.Context) error { return s.err }
func (s *stubSessionGuard) Logout(context.Context) error      { return nil }
func (s *stubSessionGuard) Expire(context.Context)            { s.expired++ }

func (s *stubSessionGuard) CurrentUser(context.Context) (*models.User, error) {
	return nil, nil
}

// memSettings is an in-memory settings.Repository.
type memSettings struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemSettings() *memSettings {
	return &memSettings{data: make(map[string][]byte)}
}

func (m *memSettings) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *memSettings) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memSettings) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memSettings) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}

// memDecks is an in-memory decks.Repository.
type memDecks struct {
	mu    sync.Mutex
	decks map[string]*models.DeckRecord
}

func newMemDecks() *memDecks {
	return &memDecks{decks: make(map[string]*models.DeckRecord)}
}

func (m *memDecks) Upsert(_ context.Context, rec *models.DeckRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *rec
	m.decks[rec.DeckID] = &copied
	return nil
}

func (m *memDecks) GetByID(_ context.Context, deckID string) (*models.DeckRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.decks[deckID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *memDecks) GetAll(_ context.Context) ([]*models.DeckRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.DeckRecord
	for _, rec := range m.decks {
		copied := *rec
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeckID < out[j].DeckID })
	return out, nil
}

func (m *memDecks) UpdateCheckpoint(_ context.Context, deckID string, version string, lastChangeID int64, lastSyncAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.decks[deckID]
	if !ok {
		return common.ErrorNotFound
	}
	rec.Version = version
	rec.LastChangeID = lastChangeID
	rec.LastSyncAt = lastSyncAt
	return nil
}

func (m *memDecks) Delete(_ context.Context, deckID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.decks, deckID)
	return nil
}

// fakeAPI implements api.Client with pluggable behavior per method.
type fakeAPI struct {
	loginFn           func(ctx context.Context, email, password string) (*models.Session, *models.User, error)
	refreshFn         func(ctx context.Context, refreshToken string) (*models.Session, error)
	listDecksFn       func(ctx context.Context) ([]models.DeckListing, error)
	checkUpdatesFn    func(ctx context.Context, installed []api.InstalledDeck) ([]api.DeckUpdate, error)
	pullChangesFn     func(ctx context.Context, deckID string, since int64) (*api.PullPayload, error)
	rollbackCardFn    func(ctx context.Context, deckID, cardGUID, targetVersion string) error
	protectedFieldsFn func(ctx context.Context, deckID string) ([]string, error)
	downloadDeckFn    func(ctx context.Context, deckID string) (string, string, error)
	fetchPackageFn    func(ctx context.Context, url string) ([]byte, string, error)
	changelogFn       func(ctx context.Context, deckID string) ([]api.ChangelogEntry, error)
	cardHistoryFn     func(ctx context.Context, deckID, cardGUID string, limit int) ([]models.HistoryEntry, error)

	mu    sync.Mutex
	token string
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*models.Session, *models.User, error) {
	return f.loginFn(ctx, email, password)
}

func (f *fakeAPI) RefreshToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	return f.refreshFn(ctx, refreshToken)
}

func (f *fakeAPI) ListDecks(ctx context.Context) ([]models.DeckListing, error) {
	return f.listDecksFn(ctx)
}

func (f *fakeAPI) CheckUpdates(ctx context.Context, installed []api.InstalledDeck) ([]api.DeckUpdate, error) {
	return f.checkUpdatesFn(ctx, installed)
}

func (f *fakeAPI) PullChanges(ctx context.Context, deckID string, since int64) (*api.PullPayload, error) {
	return f.pullChangesFn(ctx, deckID, since)
}

func (f *fakeAPI) RollbackCard(ctx context.Context, deckID, cardGUID, targetVersion string) error {
	return f.rollbackCardFn(ctx, deckID, cardGUID, targetVersion)
}

func (f *fakeAPI) GetProtectedFields(ctx context.Context, deckID string) ([]string, error) {
	if f.protectedFieldsFn == nil {
		return nil, nil
	}
	return f.protectedFieldsFn(ctx, deckID)
}

func (f *fakeAPI) DownloadDeck(ctx context.Context, deckID string) (string, string, error) {
	return f.downloadDeckFn(ctx, deckID)
}

func (f *fakeAPI) FetchPackage(ctx context.Context, url string) ([]byte, string, error) {
	return f.fetchPackageFn(ctx, url)
}

func (f *fakeAPI) GetChangelog(ctx context.Context, deckID string) ([]api.ChangelogEntry, error) {
	return f.changelogFn(ctx, deckID)
}

func (f *fakeAPI) CardHistory(ctx context.Context, deckID, cardGUID string, limit int) ([]models.HistoryEntry, error) {
	return f.cardHistoryFn(ctx, deckID, cardGUID, limit)
}

func (f *fakeAPI) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeAPI) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}
