// Package models defines the core data structures for users and their
// stored-secret metadata.
package models

import "time"

// ContentType classifies a secret's payload for display purposes.
type ContentType string

const (
	// ContentTypeText marks a payload rendered as plain text.
	ContentTypeText ContentType = "text"
	// ContentTypeImage marks a payload rendered as a photo.
	ContentTypeImage ContentType = "image"
)

// StoreEntry is one user's locally known metadata record for a secret
// held by the remote service.
type StoreEntry struct {
	// StoreID is the opaque identifier assigned by the remote store.
	StoreID string `json:"store_id"`
	// SecretName is the display label; not guaranteed unique.
	SecretName string `json:"secret_name"`
	// CreatedAt is when this entry was saved locally.
	CreatedAt time.Time `json:"created_at"`
	// ContentType is "text" or "image"; empty means unknown and the
	// payload must be sniffed on retrieval.
	ContentType ContentType `json:"content_type,omitempty"`
	// Thumbnail is a base64-encoded, size-bounded JPEG preview.
	// Only ever set when ContentType is image.
	Thumbnail string `json:"thumbnail,omitempty"`
}

// User is the per-user aggregate of everything persisted for one user key.
type User struct {
	// UserKey partitions all persisted metadata by user.
	UserKey string `json:"user_key"`
	// AppIDs holds registered application ids, most recent last.
	AppIDs []string `json:"app_ids"`
	// StoreIDs holds the user's store entries in append order.
	StoreIDs []StoreEntry `json:"store_ids"`
	// CreatedAt is when the aggregate was first written.
	CreatedAt time.Time `json:"created_at"`
	// LastUpdated tracks the most recent mutation.
	LastUpdated time.Time `json:"last_updated"`
}

// CurrentAppID returns the most recently registered app id,
// or "" if the user has none.
func (u *User) CurrentAppID() string {
	if len(u.AppIDs) == 0 {
		return ""
	}
	return u.AppIDs[len(u.AppIDs)-1]
}
