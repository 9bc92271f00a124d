// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Deployment modes selecting the metadata store backend.
const (
	// ModeLocal uses the file-backed document store.
	ModeLocal = "local"
	// ModeRemote uses the remote key-value service (Postgres).
	ModeRemote = "remote"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string

	// Mode selects the metadata store backend: "local" or "remote".
	Mode string

	// DatabaseDSN holds the key-value service connection string,
	// used when Mode is "remote".
	DatabaseDSN string

	// LocalDBPath is the file-backed store path, used when Mode is "local".
	LocalDBPath string

	// APIBase is the base URL of the remote storage/secret service.
	APIBase string

	// AppID is the remote application whose catalog is browsed.
	AppID string

	// UserSeed is the stable per-user seed value; the user key is
	// derived from it. Empty means the user cannot be identified.
	UserSeed string

	// PageSize is the number of catalog items fetched per page.
	PageSize int

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	flag.StringVar(&options.Mode, "m", ModeLocal, "store backend mode: local or remote")
	flag.StringVar(&options.DatabaseDSN, "d", "", "key-value service address")
	flag.StringVar(&options.LocalDBPath, "f", "db.json", "path to local store file")
	flag.StringVar(&options.APIBase, "api", "https://nillion-storage-apis-v0.onrender.com", "remote storage API base URL")
	flag.StringVar(&options.AppID, "app", "", "remote application id")
	flag.StringVar(&options.UserSeed, "seed", "", "per-user seed value")
	flag.IntVar(&options.PageSize, "n", 5, "catalog items per page")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if mode := os.Getenv("DEPLOY_MODE"); mode != "" {
		options.Mode = mode
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if apiBase := os.Getenv("API_BASE"); apiBase != "" {
		options.APIBase = apiBase
	}
	if appID := os.Getenv("NILLION_APP_ID"); appID != "" {
		options.AppID = appID
	}
	if seed := os.Getenv("USER_SEED"); seed != "" {
		options.UserSeed = seed
	}

	return options
}
