// Package logger wraps zap construction so main can configure the
// log level once and hand *zap.Logger to everything else.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger holds the configured zap logger.
type Logger struct {
	// Log is the underlying zap logger, usable once Init has run.
	Log *zap.Logger
}

// New returns a Logger backed by a no-op zap logger until Init is called.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init builds a production zap logger at the given level ("Debug",
// "Info", "Warn", "Error") and replaces the no-op logger.
func (l *Logger) Init(level string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	log, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	l.Log = log
	return nil
}
