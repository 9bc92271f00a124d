package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/secretshelf/secretshelf/internal/cerrors"
	"github.com/secretshelf/secretshelf/internal/models"
)

// PostgresStore implements MetadataStore against the remote key-value
// service. Entries live under key "user:<userKey>", the current app id
// under "user:<userKey>:app_id". Each operation is an independent
// read-modify-write; there is no cross-statement transaction, so
// concurrent writers to the same user key are last-write-wins.
type PostgresStore struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresStore creates a new PostgresStore with the given database
// connection. db must be a valid *sql.DB connected to the key-value service.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func entriesKey(userKey string) string { return "user:" + userKey }
func appIDKey(userKey string) string   { return "user:" + userKey + ":app_id" }

// getValue fetches the raw JSON value for key. A missing key returns
// (nil, false, nil).
func (s *PostgresStore) getValue(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE key = $1`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %q: %v", cerrors.ErrPersistence, key, err)
	}
	return value, true, nil
}

// setValue upserts the raw JSON value for key.
func (s *PostgresStore) setValue(ctx context.Context, key string, value []byte) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: set %q: %v", cerrors.ErrPersistence, key, err)
	}
	return nil
}

// getEntries decodes the user's entry list; a missing key yields an
// empty slice.
func (s *PostgresStore) getEntries(ctx context.Context, userKey string) ([]models.StoreEntry, error) {
	value, ok, err := s.getValue(ctx, entriesKey(userKey))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.StoreEntry{}, nil
	}

	var entries []models.StoreEntry
	if err := json.Unmarshal(value, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode %q: %v", cerrors.ErrPersistence, entriesKey(userKey), err)
	}
	return entries, nil
}

func (s *PostgresStore) putEntries(ctx context.Context, userKey string, entries []models.StoreEntry) error {
	value, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: encode %q: %v", cerrors.ErrPersistence, entriesKey(userKey), err)
	}
	return s.setValue(ctx, entriesKey(userKey), value)
}

// AppendStoreEntry reads the user's entries, appends, and writes back.
func (s *PostgresStore) AppendStoreEntry(ctx context.Context, userKey string, entry models.StoreEntry) (models.StoreEntry, error) {
	entries, err := s.getEntries(ctx, userKey)
	if err != nil {
		return models.StoreEntry{}, err
	}
	entries = append(entries, entry)
	if err := s.putEntries(ctx, userKey, entries); err != nil {
		return models.StoreEntry{}, err
	}
	return entry, nil
}

// ListStoreEntries returns the user's entries; an unknown user yields
// an empty slice.
func (s *PostgresStore) ListStoreEntries(ctx context.Context, userKey string) ([]models.StoreEntry, error) {
	return s.getEntries(ctx, userKey)
}

// RemoveStoreEntry filters out every entry matching storeID and writes
// the remainder back. A miss still writes the unchanged list.
func (s *PostgresStore) RemoveStoreEntry(ctx context.Context, userKey string, storeID string) error {
	entries, err := s.getEntries(ctx, userKey)
	if err != nil {
		return err
	}

	kept := make([]models.StoreEntry, 0, len(entries))
	for _, e := range entries {
		if e.StoreID != storeID {
			kept = append(kept, e)
		}
	}
	return s.putEntries(ctx, userKey, kept)
}

// AppendAppID stores appID as the user's current application id.
// The key-value service keeps only the most recent id, which is the
// only one the contract ever exposes.
func (s *PostgresStore) AppendAppID(ctx context.Context, userKey string, appID string) error {
	value, err := json.Marshal(appID)
	if err != nil {
		return fmt.Errorf("%w: encode %q: %v", cerrors.ErrPersistence, appIDKey(userKey), err)
	}
	return s.setValue(ctx, appIDKey(userKey), value)
}

// CurrentAppID returns the most recently stored app id, or "".
func (s *PostgresStore) CurrentAppID(ctx context.Context, userKey string) (string, error) {
	value, ok, err := s.getValue(ctx, appIDKey(userKey))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	var appID string
	if err := json.Unmarshal(value, &appID); err != nil {
		return "", fmt.Errorf("%w: decode %q: %v", cerrors.ErrPersistence, appIDKey(userKey), err)
	}
	return appID, nil
}
