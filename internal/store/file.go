package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/secretshelf/secretshelf/internal/cerrors"
	"github.com/secretshelf/secretshelf/internal/models"
)

// schema is the top-level document persisted by the file backend.
type schema struct {
	Users []models.User `json:"users"`
}

// FileStore keeps all users in a single JSON document, read in full and
// written back in full on every mutation. Every write is O(total stored
// data) and the document is last-write-wins across processes; intended
// for single-instance deployment only.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore persisting to the given path.
// The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// load reads the whole document. A missing or malformed file yields an
// empty schema, never an error.
func (fs *FileStore) load() schema {
	var s schema
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return schema{}
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return schema{}
	}
	return s
}

func (fs *FileStore) save(s schema) error {
	f, err := os.Create(fs.path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", cerrors.ErrPersistence, fs.path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("%w: write %s: %v", cerrors.ErrPersistence, fs.path, err)
	}
	return nil
}

// findUser returns a pointer into s.Users for userKey, or nil.
func findUser(s *schema, userKey string) *models.User {
	for i := range s.Users {
		if s.Users[i].UserKey == userKey {
			return &s.Users[i]
		}
	}
	return nil
}

// AppendStoreEntry appends the entry to the user's collection, creating
// the user aggregate on first write.
func (fs *FileStore) AppendStoreEntry(_ context.Context, userKey string, entry models.StoreEntry) (models.StoreEntry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := time.Now().UTC()
	s := fs.load()
	if u := findUser(&s, userKey); u != nil {
		u.StoreIDs = append(u.StoreIDs, entry)
		u.LastUpdated = now
	} else {
		s.Users = append(s.Users, models.User{
			UserKey:     userKey,
			AppIDs:      []string{},
			StoreIDs:    []models.StoreEntry{entry},
			CreatedAt:   now,
			LastUpdated: now,
		})
	}
	if err := fs.save(s); err != nil {
		return models.StoreEntry{}, err
	}
	return entry, nil
}

// ListStoreEntries returns the user's entries; an unknown user yields
// an empty slice.
func (fs *FileStore) ListStoreEntries(_ context.Context, userKey string) ([]models.StoreEntry, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	s := fs.load()
	if u := findUser(&s, userKey); u != nil {
		return append([]models.StoreEntry(nil), u.StoreIDs...), nil
	}
	return []models.StoreEntry{}, nil
}

// RemoveStoreEntry drops every entry matching storeID; a miss is a no-op.
func (fs *FileStore) RemoveStoreEntry(_ context.Context, userKey string, storeID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	s := fs.load()
	u := findUser(&s, userKey)
	if u == nil {
		return nil
	}

	kept := u.StoreIDs[:0]
	for _, e := range u.StoreIDs {
		if e.StoreID != storeID {
			kept = append(kept, e)
		}
	}
	u.StoreIDs = kept
	u.LastUpdated = time.Now().UTC()
	return fs.save(s)
}

// AppendAppID appends the app id, creating the user aggregate on first write.
func (fs *FileStore) AppendAppID(_ context.Context, userKey string, appID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := time.Now().UTC()
	s := fs.load()
	if u := findUser(&s, userKey); u != nil {
		u.AppIDs = append(u.AppIDs, appID)
		u.LastUpdated = now
	} else {
		s.Users = append(s.Users, models.User{
			UserKey:     userKey,
			AppIDs:      []string{appID},
			StoreIDs:    []models.StoreEntry{},
			CreatedAt:   now,
			LastUpdated: now,
		})
	}
	return fs.save(s)
}

// CurrentAppID returns the most recently appended app id, or "".
func (fs *FileStore) CurrentAppID(_ context.Context, userKey string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	s := fs.load()
	if u := findUser(&s, userKey); u != nil {
		return u.CurrentAppID(), nil
	}
	return "", nil
}
