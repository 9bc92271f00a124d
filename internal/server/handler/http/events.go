package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/secretshelf/secretshelf/internal/controller"
)

// Interactor defines the controller entry points required by the
// EventsHandler.
type Interactor interface {
	// HandleList handles the initial list request.
	HandleList(ctx context.Context, r controller.Renderer)
	// HandleCallback handles a callback event carrying an opaque
	// action token ("page_<n>" or "store_<id>").
	HandleCallback(ctx context.Context, r controller.Renderer, data string)
	// HandleRetrieve retrieves a secret directly by store id and name.
	HandleRetrieve(ctx context.Context, r controller.Renderer, storeID, secretName string)
}

// EventsHandler exposes the interaction entry points over HTTP.
type EventsHandler struct {
	Interactor Interactor
}

// List handles POST /api/events/list requests.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	c := &collector{}
	h.Interactor.HandleList(r.Context(), c)
	c.flush(w)
}

// Callback handles POST /api/events/callback requests. The body carries
// the opaque callback token under "data".
func (h *EventsHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Data == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	c := &collector{}
	h.Interactor.HandleCallback(r.Context(), c, req.Data)
	c.flush(w)
}

// Retrieve handles GET /api/secrets/{storeID}?secret_name=... requests.
func (h *EventsHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	secretName := r.URL.Query().Get("secret_name")
	if secretName == "" {
		http.Error(w, "secret_name is required", http.StatusBadRequest)
		return
	}

	c := &collector{}
	h.Interactor.HandleRetrieve(r.Context(), c, storeID, secretName)
	c.flush(w)
}
