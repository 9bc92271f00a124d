package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/secretshelf/secretshelf/internal/cerrors"
	"github.com/secretshelf/secretshelf/internal/models"
	"github.com/secretshelf/secretshelf/internal/thumbnail"
)

// MetadataService defines the persistence operations required by the
// EntriesHandler and AppsHandler. store.MetadataStore satisfies it.
type MetadataService interface {
	AppendStoreEntry(ctx context.Context, userKey string, entry models.StoreEntry) (models.StoreEntry, error)
	ListStoreEntries(ctx context.Context, userKey string) ([]models.StoreEntry, error)
	RemoveStoreEntry(ctx context.Context, userKey string, storeID string) error
	AppendAppID(ctx context.Context, userKey string, appID string) error
	CurrentAppID(ctx context.Context, userKey string) (string, error)
}

// EntriesHandler manages the user's local store-entry metadata.
type EntriesHandler struct {
	Store   MetadataService
	Log     *zap.Logger
	UserKey string
}

// Create handles POST /api/entries requests. For image entries carrying
// a payload, a captioned thumbnail is generated and cached alongside
// the metadata; a thumbnail failure degrades the entry to "image
// without thumbnail" instead of failing the save.
func (h *EntriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.UserKey == "" {
		http.Error(w, cerrors.ErrIdentification.Error(), http.StatusBadRequest)
		return
	}

	var req struct {
		StoreID     string             `json:"store_id"`
		SecretName  string             `json:"secret_name"`
		ContentType models.ContentType `json:"content_type"`
		// Payload is the base64-encoded secret, used only to derive
		// a thumbnail for image entries. It is never persisted.
		Payload string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.StoreID == "" || req.SecretName == "" {
		http.Error(w, "store_id and secret_name are required", http.StatusBadRequest)
		return
	}
	switch req.ContentType {
	case "", models.ContentTypeText, models.ContentTypeImage:
	default:
		http.Error(w, "content_type must be text or image", http.StatusBadRequest)
		return
	}

	entry := models.StoreEntry{
		StoreID:     req.StoreID,
		SecretName:  req.SecretName,
		CreatedAt:   time.Now().UTC(),
		ContentType: req.ContentType,
	}

	if req.ContentType == models.ContentTypeImage && req.Payload != "" {
		entry.Thumbnail = h.makeThumbnail(req.Payload, req.SecretName)
	}

	saved, err := h.Store.AppendStoreEntry(r.Context(), h.UserKey, entry)
	if err != nil {
		h.Log.Error("failed to save store entry", zap.String("store_id", req.StoreID), zap.Error(err))
		http.Error(w, "an error occurred", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(saved)
}

// makeThumbnail returns a base64 thumbnail for the payload, or "" when
// generation fails.
func (h *EntriesHandler) makeThumbnail(payload, secretName string) string {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		h.Log.Warn("image payload is not valid base64, skipping thumbnail", zap.Error(err))
		return ""
	}
	thumb, err := thumbnail.Compress(data, secretName)
	if err != nil {
		h.Log.Warn("thumbnail generation failed, saving entry without one", zap.Error(err))
		return ""
	}
	return base64.StdEncoding.EncodeToString(thumb)
}

// List handles GET /api/entries requests.
func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.UserKey == "" {
		http.Error(w, cerrors.ErrIdentification.Error(), http.StatusBadRequest)
		return
	}

	entries, err := h.Store.ListStoreEntries(r.Context(), h.UserKey)
	if err != nil {
		h.Log.Error("failed to list store entries", zap.Error(err))
		http.Error(w, "an error occurred", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"entries": entries})
}

// Delete handles DELETE /api/entries/{storeID} requests. Removing an
// unknown store id still succeeds.
func (h *EntriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.UserKey == "" {
		http.Error(w, cerrors.ErrIdentification.Error(), http.StatusBadRequest)
		return
	}

	storeID := chi.URLParam(r, "storeID")
	if err := h.Store.RemoveStoreEntry(r.Context(), h.UserKey, storeID); err != nil {
		h.Log.Error("failed to remove store entry", zap.String("store_id", storeID), zap.Error(err))
		http.Error(w, "an error occurred", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
