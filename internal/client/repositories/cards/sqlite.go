// Package cards is the SQLite-backed card store. It implements
// cardstore.Store and adds the write paths the package importer needs to
// materialize a downloaded deck into a local collection.
package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/decksync/internal/client/models"
	"github.com/dmitrijs2005/decksync/internal/common"
	"github.com/dmitrijs2005/decksync/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CollectionExists(ctx context.Context, localRef string) (bool, error) {
	row := r.db.QueryRowContext(ctx, "SELECT 1 FROM collections WHERE local_ref = ?", localRef)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("cards collection exists: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) CardExists(ctx context.Context, localRef, guid string) (bool, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM cards WHERE local_ref = ? AND guid = ?", localRef, guid)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("cards exists: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) GetField(ctx context.Context, localRef, guid, field string) (string, error) {
	ok, err := r.CardExists(ctx, localRef, guid)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", common.ErrCardNotFound
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT value FROM card_fields WHERE guid = ? AND field_name = ?", guid, field)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", &models.ValidationError{Field: field, Reason: "not present on card"}
		}
		return "", fmt.Errorf("cards get field: %w", err)
	}
	return value, nil
}

func (r *SQLiteRepository) SetField(ctx context.Context, localRef, guid, field, value string) error {
	ok, err := r.CardExists(ctx, localRef, guid)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrCardNotFound
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO card_fields (guid, field_name, value) VALUES (?, ?, ?)
		 ON CONFLICT(guid, field_name) DO UPDATE SET value = excluded.value`,
		guid, field, value)
	if err != nil {
		return fmt.Errorf("cards set field: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCard(ctx context.Context, localRef, guid string) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM cards WHERE local_ref = ? AND guid = ?", localRef, guid); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM card_fields WHERE guid = ?", guid)
		return err
	})
	if err != nil {
		return fmt.Errorf("cards delete: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Tags(ctx context.Context, localRef, guid string) ([]string, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT tags FROM cards WHERE local_ref = ? AND guid = ?", localRef, guid)
	var joined string
	if err := row.Scan(&joined); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrCardNotFound
		}
		return nil, fmt.Errorf("cards tags: %w", err)
	}
	if joined == "" {
		return nil, nil
	}
	return strings.Split(joined, " "), nil
}

func (r *SQLiteRepository) SetTags(ctx context.Context, localRef, guid string, tags []string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cards SET tags = ? WHERE local_ref = ? AND guid = ?",
		strings.Join(tags, " "), localRef, guid)
	if err != nil {
		return fmt.Errorf("cards set tags: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cards set tags: %w", err)
	}
	if affected == 0 {
		return common.ErrCardNotFound
	}
	return nil
}

// CreateCollection registers a new collection. The importer calls this once
// per imported package.
func (r *SQLiteRepository) CreateCollection(ctx context.Context, localRef, name string, createdAt int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO collections (local_ref, name, created_at) VALUES (?, ?, ?)",
		localRef, name, createdAt)
	if err != nil {
		return fmt.Errorf("cards create collection: %w", err)
	}
	return nil
}

// UpsertCard writes a card and all its fields in one transaction. A card
// that already exists under another collection is moved to this one, so a
// deck update re-homes the surviving cards into the fresh collection before
// the superseded one is dropped. Existing fields not present in the map are
// left alone, matching how deck updates only ever ship the fields they
// changed.
func (r *SQLiteRepository) UpsertCard(ctx context.Context, localRef, guid string, fields map[string]string, tags []string) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cards (guid, local_ref, tags) VALUES (?, ?, ?)
			 ON CONFLICT(guid) DO UPDATE SET local_ref = excluded.local_ref, tags = excluded.tags`,
			guid, localRef, strings.Join(tags, " "))
		if err != nil {
			return err
		}
		for name, value := range fields {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO card_fields (guid, field_name, value) VALUES (?, ?, ?)
				 ON CONFLICT(guid, field_name) DO UPDATE SET value = excluded.value`,
				guid, name, value)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cards upsert %q: %w", guid, err)
	}
	return nil
}

// DropCollection removes a collection together with its cards and fields.
func (r *SQLiteRepository) DropCollection(ctx context.Context, localRef string) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM card_fields WHERE guid IN (SELECT guid FROM cards WHERE local_ref = ?)",
			localRef); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM cards WHERE local_ref = ?", localRef); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE local_ref = ?", localRef)
		return err
	})
	if err != nil {
		return fmt.Errorf("cards drop collection %q: %w", localRef, err)
	}
	return nil
}
