// Package main initializes and starts the secretshelf broker server,
// setting up configuration, logging, the metadata store backend,
// remote-service clients, and HTTP handlers.
package main

import (
	"cmp"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/secretshelf/secretshelf/internal/catalog"
	"github.com/secretshelf/secretshelf/internal/config"
	"github.com/secretshelf/secretshelf/internal/controller"
	"github.com/secretshelf/secretshelf/internal/db"
	"github.com/secretshelf/secretshelf/internal/logger"
	"github.com/secretshelf/secretshelf/internal/retrieve"
	handler "github.com/secretshelf/secretshelf/internal/server/handler/http"
	"github.com/secretshelf/secretshelf/internal/store"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Select the metadata store backend once, per deployment mode.
	var metaStore store.MetadataStore
	switch options.Mode {
	case config.ModeRemote:
		kvDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init key-value service", zap.Error(err))
		}
		metaStore = store.NewPostgresStore(kvDB)
	case config.ModeLocal:
		metaStore = store.NewFileStore(options.LocalDBPath)
	default:
		zapLogger.Fatal("unknown deployment mode", zap.String("mode", options.Mode))
	}

	// Remote calls are bounded by the HTTP client, not by the core.
	httpClient := &nethttp.Client{Timeout: 30 * time.Second}

	// Initialize the remote-service clients.
	pager := catalog.NewPager(httpClient, options.APIBase)
	broker := retrieve.NewBroker(httpClient, options.APIBase)

	// The controller owns the interaction state transitions.
	ctrl := controller.New(metaStore, pager, broker, zapLogger,
		options.AppID, options.UserSeed, options.PageSize)

	// Create HTTP handlers for events, entries, and app ids.
	eventsHandler := &handler.EventsHandler{Interactor: ctrl}
	entriesHandler := &handler.EntriesHandler{Store: metaStore, Log: zapLogger, UserKey: options.UserSeed}
	appsHandler := &handler.AppsHandler{Store: metaStore, Log: zapLogger, UserKey: options.UserSeed}

	// Build the router with middleware and routes.
	router := handler.NewRouter(eventsHandler, entriesHandler, appsHandler, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Port,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server",
		zap.String("addr", options.Port),
		zap.String("mode", options.Mode),
	)
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
