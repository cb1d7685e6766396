// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/tabsplit/tabsplit/internal/models"
	"github.com/tabsplit/tabsplit/internal/storage"
)

// Persisted keys. keyTableID is the legacy key kept separate from the cart
// blob; on load it overrides whatever table id the blob carries.
const (
	keyCart    = "cart"
	keyTableID = "tableId"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCart rewrites the cart blob under the "cart" key.
func (s *SQLiteStore) SaveCart(ctx context.Context, state *models.CartState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode cart snapshot: %w", err)
	}
	return s.put(ctx, keyCart, string(blob))
}

// LoadCart returns the stored snapshot, or (nil, nil) when none exists.
func (s *SQLiteStore) LoadCart(ctx context.Context) (*models.CartState, error) {
	raw, ok, err := s.get(ctx, keyCart)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	state := &models.CartState{}
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}
	return state, nil
}

// SaveTableID writes the legacy table id key.
func (s *SQLiteStore) SaveTableID(ctx context.Context, tableID string) error {
	return s.put(ctx, keyTableID, tableID)
}

// DeleteTableID removes the legacy table id key.
func (s *SQLiteStore) DeleteTableID(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", keyTableID)
	if err != nil {
		return fmt.Errorf("failed to delete table id: %w", err)
	}
	return nil
}

// LoadTableID returns the legacy table id, or ("", nil) when absent.
func (s *SQLiteStore) LoadTableID(ctx context.Context) (string, error) {
	raw, ok, err := s.get(ctx, keyTableID)
	if err != nil || !ok {
		return "", err
	}
	return raw, nil
}

func (s *SQLiteStore) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE key = ?", key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}
