package layoutstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/goliatone/go-insights/components/insights"
)

const createLayoutsTable = `CREATE TABLE IF NOT EXISTS layouts (
	key TEXT PRIMARY KEY,
	placements TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore keeps one row per scope in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ insights.LayoutStore = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at dsn and ensures the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("layoutstore: open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)
	store, err := NewSQLiteStore(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore uses an already opened database.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("layoutstore: database is required")
	}
	if _, err := db.ExecContext(ctx, createLayoutsTable); err != nil {
		return nil, fmt.Errorf("layoutstore: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveLayout implements insights.LayoutStore.
func (s *SQLiteStore) SaveLayout(ctx context.Context, scope string, placements []insights.WidgetPlacement) error {
	if strings.TrimSpace(scope) == "" {
		return errors.New("layoutstore: scope is required")
	}
	data, err := insights.EncodeLayout(placements)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO layouts (key, placements, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET placements = excluded.placements, updated_at = excluded.updated_at`,
		insights.LayoutKey(scope), string(data))
	if err != nil {
		return fmt.Errorf("layoutstore: save %s: %w", scope, err)
	}
	return nil
}

// LoadLayout implements insights.LayoutStore.
func (s *SQLiteStore) LoadLayout(ctx context.Context, scope string) ([]insights.WidgetPlacement, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT placements FROM layouts WHERE key = ?`, insights.LayoutKey(scope)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("layoutstore: load %s: %w", scope, err)
	}
	placements, err := insights.DecodeLayout([]byte(data))
	if err != nil {
		return nil, false, err
	}
	return placements, true, nil
}
