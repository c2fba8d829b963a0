package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"lzpending/internal/cache"
	"lzpending/internal/database"
	"lzpending/internal/models"
	"lzpending/internal/service"
	"lzpending/internal/tracing"
	"lzpending/internal/validation"
	"lzpending/pkg/layerzero"

	"github.com/sirupsen/logrus"
)

// app holds the wired components shared by serve and scan.
type app struct {
	cfg     *models.Config
	logger  *logrus.Logger
	tracing *tracing.TracingManager
	cache   *cache.ExtractionCache
	db      *database.Database
	pending service.PendingService
	watcher *service.SightingWatcher
}

// newApp builds the orchestrator and, when withWatcher is set and the watcher
// is enabled, the sighting store and watcher.
func newApp(ctx context.Context, cfg *models.Config, logger *logrus.Logger, withWatcher bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if !validation.IsEVMAddress(cfg.OwnerAddress) {
		logger.WithField("owner", cfg.OwnerAddress).Warn("Owner is not a 20-byte EVM address; passing it to the scan API as is")
	}

	a.tracing = tracing.NewTracingManager(tracing.FromModel(cfg.Tracing, Version), logger)
	if err := a.tracing.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}

	client := layerzero.NewClientWithLogger(layerzero.ClientConfig{
		APIBaseURL:    cfg.Scan.APIBaseURL,
		TxPageBaseURL: cfg.Scan.TxPageBaseURL,
		UserAgent:     "lzpending/" + Version,
		TimeoutSec:    cfg.Scan.HTTPTimeoutSec,
	}, logger)

	// A typed nil would defeat the service's nil check.
	var extractionCache service.ExtractionCache
	if cfg.Cache.Enabled {
		c, err := cache.NewExtractionCache(ctx, time.Duration(cfg.Cache.TTLMinutes)*time.Minute, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create extraction cache: %w", err)
		}
		a.cache = c
		extractionCache = c
	}

	a.pending = service.NewPendingService(client, extractionCache, logger)

	if withWatcher && cfg.Watcher.Enabled {
		db, err := database.NewWithLogger(cfg.Database.Path, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open sighting store: %w", err)
		}
		a.db = db
		a.watcher = service.NewSightingWatcher(a.pending, db, cfg.OwnerAddress, cfg.Watcher, logger)
	}

	return a, nil
}

// sightingReader returns the store for the HTTP layer, or nil when the
// watcher is off.
func (a *app) sightingReader() SightingReader {
	if a.db == nil {
		return nil
	}
	return a.db
}

// Close releases everything newApp opened, in reverse order.
func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warnf("Failed to close sighting store: %v", err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warnf("Failed to close extraction cache: %v", err)
		}
	}
	if a.tracing != nil {
		if err := a.tracing.Shutdown(context.Background()); err != nil {
			a.logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}
}

// newLogger builds the JSON logger. verbose forces debug level.
func newLogger(level string, verbose bool, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(out)

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		logger.Info("Verbose logging enabled - full hex values will be logged")
		return logger
	}

	if level == "" {
		logger.SetLevel(logrus.InfoLevel)
		return logger
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid log level %q, defaulting to info", level)
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}
