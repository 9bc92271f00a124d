// Package store provides the per-user metadata store with two
// interchangeable backends: a remote key-value service and a local
// file-backed document. The backend is chosen once at startup and
// injected; callers never branch on which variant is active.
package store

import (
	"context"

	"github.com/secretshelf/secretshelf/internal/models"
)

// MetadataStore is the backend-agnostic contract for per-user
// store-entry and app-id persistence.
type MetadataStore interface {
	// AppendStoreEntry appends entry to the user's collection and
	// returns the stored entry. Duplicate store ids are appended
	// alongside existing ones, not merged.
	AppendStoreEntry(ctx context.Context, userKey string, entry models.StoreEntry) (models.StoreEntry, error)

	// ListStoreEntries returns the user's entries in append order.
	// An unknown user yields an empty slice, never an error.
	ListStoreEntries(ctx context.Context, userKey string) ([]models.StoreEntry, error)

	// RemoveStoreEntry removes every entry matching storeID for the
	// user. Removing a missing id is a no-op.
	RemoveStoreEntry(ctx context.Context, userKey string, storeID string) error

	// AppendAppID registers appID as the user's most recent application id.
	AppendAppID(ctx context.Context, userKey string, appID string) error

	// CurrentAppID returns the most recently appended app id,
	// or "" when the user has none.
	CurrentAppID(ctx context.Context, userKey string) (string, error)
}
