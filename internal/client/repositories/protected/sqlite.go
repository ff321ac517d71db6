package protected

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/decksync/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, deckID string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT field_name FROM protected_fields WHERE deck_id = ? OR deck_id = ?",
		deckID, GlobalScope)
	if err != nil {
		return nil, fmt.Errorf("protected get %q: %w", deckID, err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("protected get %q: %w", deckID, err)
		}
		result[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("protected get %q: %w", deckID, err)
	}
	return result, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, deckID string, fields []string) error {
	names, err := normalize(fields)
	if err != nil {
		return err
	}
	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM protected_fields WHERE deck_id = ?", deckID); err != nil {
			return err
		}
		return insertNames(ctx, tx, deckID, names)
	})
	if err != nil {
		return fmt.Errorf("protected set %q: %w", deckID, err)
	}
	return nil
}

func (r *SQLiteRepository) Add(ctx context.Context, deckID string, fields []string) error {
	names, err := normalize(fields)
	if err != nil {
		return err
	}
	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return insertNames(ctx, tx, deckID, names)
	})
	if err != nil {
		return fmt.Errorf("protected add %q: %w", deckID, err)
	}
	return nil
}

func insertNames(ctx context.Context, tx dbx.DBTX, deckID string, names []string) error {
	for _, name := range names {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO protected_fields (deck_id, field_name) VALUES (?, ?) ON CONFLICT DO NOTHING",
			deckID, name)
		if err != nil {
			return err
		}
	}
	return nil
}
