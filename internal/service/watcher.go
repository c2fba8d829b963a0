package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lzpending/internal/abbrev"
	"lzpending/internal/constants"
	"lzpending/internal/metrics"
	"lzpending/internal/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// SightingStore persists what the watcher has seen.
type SightingStore interface {
	UpsertSighting(ctx context.Context, s *models.Sighting) error
	PruneSightingsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SightingWatcher periodically scans the owner's pending messages and records
// when each was first and last seen.
type SightingWatcher struct {
	pending   PendingService
	store     SightingStore
	owner     string
	config    models.WatcherConfig
	logger    *logrus.Logger
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	mu        sync.Mutex
	now       func() time.Time
}

// NewSightingWatcher creates a watcher for owner. Zero interval and retention
// values fall back to the defaults.
func NewSightingWatcher(pending PendingService, store SightingStore, owner string, cfg models.WatcherConfig, logger *logrus.Logger) *SightingWatcher {
	if cfg.IntervalSec <= 0 {
		cfg.IntervalSec = constants.DefaultWatcherIntervalSec
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = constants.DefaultWatcherRetentionDays
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &SightingWatcher{
		pending: pending,
		store:   store,
		owner:   owner,
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Start schedules the scan and prune jobs. The first scan runs immediately.
func (w *SightingWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("sighting watcher is already running")
	}

	if !w.config.Enabled {
		w.logger.Info("Sighting watcher is disabled in configuration")
		return nil
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	w.ctx, w.cancel = context.WithCancel(ctx)

	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Duration(w.config.IntervalSec)*time.Second),
		gocron.NewTask(w.runScan),
		gocron.WithName("sighting-scan"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		w.cancel()
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to create scan job: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Duration(constants.DefaultPruneIntervalMinutes)*time.Minute),
		gocron.NewTask(w.runPrune),
		gocron.WithName("sighting-prune"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		w.cancel()
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to create prune job: %w", err)
	}

	scheduler.Start()
	w.scheduler = scheduler
	w.running = true

	w.logger.WithFields(logrus.Fields{
		LogFieldOwner:    abbrev.Hex(w.owner),
		"interval_sec":   w.config.IntervalSec,
		"retention_days": w.config.RetentionDays,
	}).Info("Sighting watcher started")

	return nil
}

// Stop cancels in-flight work and waits for running jobs to return.
func (w *SightingWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.logger.Info("Stopping sighting watcher...")
	w.cancel()
	if err := w.scheduler.Shutdown(); err != nil {
		w.logger.WithError(err).Warn("Scheduler shutdown reported an error")
	}
	w.running = false
	w.logger.Info("Sighting watcher stopped")
}

// IsRunning returns whether the watcher is currently active
func (w *SightingWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *SightingWatcher) runScan() {
	ctx, cancel := context.WithTimeout(w.ctx, time.Duration(constants.DefaultScanTimeoutSec)*time.Second)
	defer cancel()

	if _, _, err := w.ScanOnce(ctx); err != nil && w.ctx.Err() == nil {
		w.logger.WithError(err).Error("Failed to record sightings")
	}
}

func (w *SightingWatcher) runPrune() {
	if _, err := w.PruneOnce(w.ctx); err != nil && w.ctx.Err() == nil {
		w.logger.WithError(err).Error("Failed to prune sightings")
	}
}

// ScanOnce runs one scan and upserts a sighting per pending message. An
// unavailable upstream yields zero sightings, not an error.
func (w *SightingWatcher) ScanOnce(ctx context.Context) (string, int, error) {
	scanID := ulid.Make().String()
	logger := w.logger.WithFields(logrus.Fields{
		LogFieldScanID:  scanID,
		LogFieldTrigger: TriggerWatcher,
	})

	start := w.now()
	results, err := w.pending.GetPendingMessages(WithTrigger(ctx, TriggerWatcher), w.owner)
	if err != nil {
		return scanID, 0, fmt.Errorf("scan %s: %w", scanID, err)
	}

	seenAt := w.now().UTC()
	recorded := 0
	for _, summary := range results {
		sighting := &models.Sighting{
			Owner:      w.owner,
			SrcTxHash:  summary.SrcTxHash,
			DstEid:     summary.DstEidText(),
			Status:     summary.StatusSummary,
			LzTxPage:   summary.LzTxPage,
			FirstSeen:  seenAt,
			LastSeen:   seenAt,
			LastScanID: scanID,
		}
		if err := w.store.UpsertSighting(ctx, sighting); err != nil {
			metrics.RecordSightings(recorded)
			return scanID, recorded, fmt.Errorf("scan %s: failed to record sighting: %w", scanID, err)
		}
		recorded++
	}
	metrics.RecordSightings(recorded)

	logger.WithFields(logrus.Fields{
		LogFieldCount:    recorded,
		LogFieldDuration: w.now().Sub(start).Milliseconds(),
	}).Debug("Completed sighting scan")

	return scanID, recorded, nil
}

// PruneOnce deletes sightings not seen within the retention window.
func (w *SightingWatcher) PruneOnce(ctx context.Context) (int64, error) {
	cutoff := w.now().UTC().Add(-time.Duration(w.config.RetentionDays) * 24 * time.Hour)

	pruned, err := w.store.PruneSightingsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if pruned > 0 {
		w.logger.WithFields(logrus.Fields{
			LogFieldPruned: pruned,
			"cutoff":       cutoff.Format(time.RFC3339),
		}).Info("Pruned stale sightings")
	}
	return pruned, nil
}
