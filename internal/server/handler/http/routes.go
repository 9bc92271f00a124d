package http

import (
	"net/http"

	"github.com/secretshelf/secretshelf/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler serving the broker API.
//
// Routes:
//
//	POST   /api/events/list       → eventsHandler.List
//	POST   /api/events/callback   → eventsHandler.Callback
//	GET    /api/secrets/{storeID} → eventsHandler.Retrieve
//	POST   /api/entries           → entriesHandler.Create
//	GET    /api/entries           → entriesHandler.List
//	DELETE /api/entries/{storeID} → entriesHandler.Delete
//	POST   /api/apps              → appsHandler.Register
//	GET    /api/apps/current      → appsHandler.Current
func NewRouter(
	eventsHandler *EventsHandler,
	entriesHandler *EntriesHandler,
	appsHandler *AppsHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow bodies with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Mount API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/events/list", eventsHandler.List)
		r.Post("/events/callback", eventsHandler.Callback)
		r.Get("/secrets/{storeID}", eventsHandler.Retrieve)

		r.Post("/entries", entriesHandler.Create)
		r.Get("/entries", entriesHandler.List)
		r.Delete("/entries/{storeID}", entriesHandler.Delete)

		r.Post("/apps", appsHandler.Register)
		r.Get("/apps/current", appsHandler.Current)
	})

	return r
}
