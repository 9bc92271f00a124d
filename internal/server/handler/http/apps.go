package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/secretshelf/secretshelf/internal/cerrors"
)

// AppsHandler manages the user's registered application ids.
type AppsHandler struct {
	Store   MetadataService
	Log     *zap.Logger
	UserKey string
}

// Register handles POST /api/apps requests, appending the app id as the
// user's most recent one.
func (h *AppsHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h.UserKey == "" {
		http.Error(w, cerrors.ErrIdentification.Error(), http.StatusBadRequest)
		return
	}

	var req struct {
		AppID string `json:"app_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AppID == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := h.Store.AppendAppID(r.Context(), h.UserKey, req.AppID); err != nil {
		h.Log.Error("failed to save app id", zap.String("app_id", req.AppID), zap.Error(err))
		http.Error(w, "an error occurred", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"app_id": req.AppID})
}

// Current handles GET /api/apps/current requests, returning the most
// recently registered app id.
func (h *AppsHandler) Current(w http.ResponseWriter, r *http.Request) {
	if h.UserKey == "" {
		http.Error(w, cerrors.ErrIdentification.Error(), http.StatusBadRequest)
		return
	}

	appID, err := h.Store.CurrentAppID(r.Context(), h.UserKey)
	if err != nil {
		h.Log.Error("failed to look up app id", zap.Error(err))
		http.Error(w, "an error occurred", http.StatusInternalServerError)
		return
	}
	if appID == "" {
		http.Error(w, "no app id registered", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"app_id": appID})
}
