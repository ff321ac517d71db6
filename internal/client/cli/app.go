package cli

import (
	"bufio"
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/decksync/internal/client/api"
	"github.com/dmitrijs2005/decksync/internal/client/config"
	"github.com/dmitrijs2005/decksync/internal/client/importer"
	"github.com/dmitrijs2005/decksync/internal/client/localdb"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/cards"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/decks"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/protected"
	"github.com/dmitrijs2005/decksync/internal/client/repositories/settings"
	"github.com/dmitrijs2005/decksync/internal/client/services"
	"github.com/dmitrijs2005/decksync/internal/logging"
)

// App owns the wired service graph behind the REPL.
type App struct {
	config    *config.Config
	db        *sql.DB
	sessions  services.SessionService
	decks     services.DeckService
	sync      services.SyncService
	resolve   services.ResolveService
	rollback  services.RollbackService
	updates   services.UpdateService
	batch     services.BatchService
	deckRepo  decks.Repository
	protected protected.Repository
	reader    *bufio.Reader
	log       logging.Logger
	userEmail string
}

// NewApp opens the local database and wires every engine service against it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	db, err := localdb.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.BaseURL, c.RequestTimeout)

	settingsRepo := settings.NewSQLiteRepository(db)
	deckRepo := decks.NewSQLiteRepository(db)
	protectedRepo := protected.NewSQLiteRepository(db)
	cardRepo := cards.NewSQLiteRepository(db)
	imp := importer.NewZipImporter(cardRepo)

	sessions := services.NewSessionService(apiClient, settingsRepo, log)
	updates := services.NewUpdateService(apiClient, sessions, deckRepo, settingsRepo, c.UpdateCheckInterval, log)
	syncSvc := services.NewSyncService(apiClient, sessions, deckRepo, protectedRepo, cardRepo, log)
	resolveSvc := services.NewResolveService(syncSvc, log)
	rollbackSvc := services.NewRollbackService(apiClient, sessions, deckRepo, protectedRepo, cardRepo, log)
	deckSvc := services.NewDeckService(apiClient, sessions, deckRepo, protectedRepo, cardRepo, imp, updates, log)
	batchSvc := services.NewBatchService(sessions, deckSvc, syncSvc, log)

	return &App{
		config:    c,
		db:        db,
		sessions:  sessions,
		decks:     deckSvc,
		sync:      syncSvc,
		resolve:   resolveSvc,
		rollback:  rollbackSvc,
		updates:   updates,
		batch:     batchSvc,
		deckRepo:  deckRepo,
		protected: protectedRepo,
		reader:    bufio.NewReader(os.Stdin),
		log:       log,
	}, nil
}

// Run performs the startup housekeeping and blocks in the REPL until the
// user exits.
func (a *App) Run(ctx context.Context) {
	defer a.db.Close()

	if user, err := a.sessions.CurrentUser(ctx); err == nil {
		a.userEmail = user.Email
	}

	a.startupScan(ctx)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// startupScan runs the throttled update check on launch when configured,
// and applies pending updates when auto-apply is on.
func (a *App) startupScan(ctx context.Context) {
	if !a.config.AutoCheckUpdates {
		return
	}
	if err := a.sessions.EnsureValid(ctx); err != nil {
		return
	}
	updates, err := a.updates.Scan(ctx, false)
	if err != nil {
		a.log.Warn(ctx, "startup update scan", "error", err)
		return
	}
	if len(updates) == 0 {
		return
	}
	if !a.config.AutoApplyUpdates {
		printlnFn(len(updates), "deck update(s) available, run 'check' for details")
		return
	}
	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.DeckID)
	}
	result, err := a.batch.UpdateAll(ctx, ids)
	if err != nil {
		a.log.Warn(ctx, "auto-applying updates", "error", err)
		return
	}
	printlnFn("Auto-applied updates:", result.SuccessCount, "succeeded,", len(result.Failures), "failed")
}

func (a *App) getStatus() string {
	if a.userEmail == "" {
		return ""
	}
	return "(" + a.userEmail + ")"
}

func (a *App) isLoggedIn() bool {
	return a.userEmail != ""
}
