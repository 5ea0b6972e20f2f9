package favorites

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"imovelmap/pkg/models"
)

// LocalStore is the durable fallback for sessions without a server account:
// the favorite-code list and listing snapshots survive restarts as JSON rows
// in the local sqlite database.
type LocalStore struct {
	DB *sql.DB
}

func NewLocalStore(db *sql.DB) *LocalStore {
	return &LocalStore{DB: db}
}

// SaveAll replaces the persisted favorites with the given snapshot in one
// transaction, so a crash can never leave codes without their snapshots.
func (s *LocalStore) SaveAll(ctx context.Context, snap Snapshot) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save favorites: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM local_favorites`); err != nil {
		return fmt.Errorf("clear local favorites: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO local_favorites (codigo, listing, saved_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for code := range snap.Codes {
		listing, ok := snap.Snapshots[code]
		if !ok {
			// Registry invariant: every code carries a snapshot.
			err = fmt.Errorf("favorite %s has no snapshot", code)
			return err
		}
		var b []byte
		b, err = json.Marshal(listing)
		if err != nil {
			return fmt.Errorf("marshal favorite %s: %w", code, err)
		}
		if _, err = stmt.ExecContext(ctx, code, string(b)); err != nil {
			return fmt.Errorf("insert favorite %s: %w", code, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save favorites: %w", err)
	}
	return nil
}

// Load reads the persisted favorites back into a snapshot.
func (s *LocalStore) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{
		Codes:     make(map[string]struct{}),
		Snapshots: make(map[string]models.Listing),
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT codigo, listing FROM local_favorites`)
	if err != nil {
		return snap, fmt.Errorf("load local favorites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code, raw string
		if err := rows.Scan(&code, &raw); err != nil {
			return snap, fmt.Errorf("scan local favorite: %w", err)
		}
		var listing models.Listing
		if err := json.Unmarshal([]byte(raw), &listing); err != nil {
			// A corrupt row loses one favorite, not the whole set.
			continue
		}
		snap.Codes[code] = struct{}{}
		snap.Snapshots[code] = listing
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("rows err: %w", err)
	}
	return snap, nil
}
