// Package storage provides abstractions for persisting engine snapshots.
package storage

import (
	"context"

	"github.com/tabsplit/tabsplit/internal/models"
)

// Store is the durable key-value contract the engine writes through after
// every mutation. Two independent keys exist: the cart blob, and a legacy
// plain-string table id that mirrors (and on load overrides) the table id
// inside the blob. The abstraction allows swapping backends (SQLite, a
// browser bridge, etc.) without touching the engine.
type Store interface {
	// SaveCart rewrites the full cart snapshot.
	SaveCart(ctx context.Context, state *models.CartState) error

	// LoadCart returns the stored snapshot, or (nil, nil) when none was
	// ever written.
	LoadCart(ctx context.Context) (*models.CartState, error)

	// SaveTableID writes the legacy table id key.
	SaveTableID(ctx context.Context, tableID string) error

	// DeleteTableID removes the legacy table id key. Called when the table
	// context is cleared.
	DeleteTableID(ctx context.Context) error

	// LoadTableID returns the legacy table id, or ("", nil) when absent.
	LoadTableID(ctx context.Context) (string, error)

	// Close releases any resources held by the store.
	Close() error
}
