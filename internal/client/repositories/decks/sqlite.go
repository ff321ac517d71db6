package decks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/common"
	"github.com/dmitrijs2005/decksync/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.DeckRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO decks (deck_id, version, local_ref, last_change_id, last_sync_at, installed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(deck_id) DO UPDATE SET
		   version = excluded.version,
		   local_ref = excluded.local_ref,
		   last_change_id = excluded.last_change_id,
		   last_sync_at = excluded.last_sync_at`,
		rec.DeckID, rec.Version, rec.LocalRef, rec.LastChangeID,
		unixOrZero(rec.LastSyncAt), unixOrZero(rec.InstalledAt))
	if err != nil {
		return fmt.Errorf("decks upsert %q: %w", rec.DeckID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, deckID string) (*models.DeckRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT deck_id, version, local_ref, last_change_id, last_sync_at, installed_at FROM decks WHERE deck_id = ?",
		deckID)
	rec, err := scanDeck(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("decks get %q: %w", deckID, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.DeckRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT deck_id, version, local_ref, last_change_id, last_sync_at, installed_at FROM decks ORDER BY deck_id")
	if err != nil {
		return nil, fmt.Errorf("decks list: %w", err)
	}
	defer rows.Close()

	var result []*models.DeckRecord
	for rows.Next() {
		rec, err := scanDeck(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("decks list: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("decks list: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) UpdateCheckpoint(ctx context.Context, deckID string, version string, lastChangeID int64, lastSyncAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE decks SET version = ?, last_change_id = ?, last_sync_at = ? WHERE deck_id = ?",
		version, lastChangeID, unixOrZero(lastSyncAt), deckID)
	if err != nil {
		return fmt.Errorf("decks checkpoint %q: %w", deckID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decks checkpoint %q: %w", deckID, err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, deckID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM decks WHERE deck_id = ?", deckID)
	if err != nil {
		return fmt.Errorf("decks delete %q: %w", deckID, err)
	}
	return nil
}

func scanDeck(scan func(dest ...any) error) (*models.DeckRecord, error) {
	var rec models.DeckRecord
	var lastSync, installed int64
	if err := scan(&rec.DeckID, &rec.Version, &rec.LocalRef, &rec.LastChangeID, &lastSync, &installed); err != nil {
		return nil, err
	}
	if lastSync > 0 {
		rec.LastSyncAt = time.Unix(lastSync, 0).UTC()
	}
	if installed > 0 {
		rec.InstalledAt = time.Unix(installed, 0).UTC()
	}
	return &rec, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
