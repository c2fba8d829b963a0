package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lzpending/internal/constants"
	"lzpending/pkg/hexscan"

	"github.com/allegro/bigcache/v3"
	"github.com/sirupsen/logrus"
)

// ExtractionCache memoises hex extractor results per source transaction
// hash. Entries expire after the configured TTL.
type ExtractionCache struct {
	store  *bigcache.BigCache
	logger *logrus.Logger
}

// NewExtractionCache builds a bigcache-backed cache. A ttl <= 0 falls back to
// the default.
func NewExtractionCache(ctx context.Context, ttl time.Duration, logger *logrus.Logger) (*ExtractionCache, error) {
	if ttl <= 0 {
		ttl = time.Duration(constants.DefaultCacheTTLMinutes) * time.Minute
	}
	if logger == nil {
		logger = logrus.New()
	}

	cfg := bigcache.DefaultConfig(ttl)
	// number of shards (must be a power of 2)
	cfg.Shards = constants.DefaultCacheShards
	cfg.CleanWindow = cleanWindow(ttl)
	// tx detail candidates are two hex strings; most payloads fit in 2KB
	cfg.MaxEntrySize = 2048
	cfg.MaxEntriesInWindow = 10 * 1024
	cfg.HardMaxCacheSize = 64
	cfg.Verbose = false

	store, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &ExtractionCache{store: store, logger: logger}, nil
}

// bigcache has one second resolution; anything shorter is pointless.
func cleanWindow(ttl time.Duration) time.Duration {
	w := ttl / 2
	if w < time.Second {
		return time.Second
	}
	return w
}

// Get returns the cached candidates for txHash.
func (c *ExtractionCache) Get(txHash string) (hexscan.Candidates, bool) {
	var candidates hexscan.Candidates

	data, err := c.store.Get(txHash)
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			c.logger.WithError(err).WithField("tx_hash", txHash).Debug("Extraction cache read failed")
		}
		return candidates, false
	}

	if err := json.Unmarshal(data, &candidates); err != nil {
		c.logger.WithError(err).WithField("tx_hash", txHash).Warn("Dropping corrupt extraction cache entry")
		_ = c.store.Delete(txHash)
		return hexscan.Candidates{}, false
	}
	return candidates, true
}

// Set stores candidates for txHash. Failures are logged and otherwise ignored;
// the cache is an optimisation only.
func (c *ExtractionCache) Set(txHash string, candidates hexscan.Candidates) {
	data, err := json.Marshal(candidates)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode extraction cache entry")
		return
	}
	if err := c.store.Set(txHash, data); err != nil {
		c.logger.WithError(err).WithField("tx_hash", txHash).Debug("Extraction cache write failed")
	}
}

// Len reports the number of live entries.
func (c *ExtractionCache) Len() int {
	return c.store.Len()
}

// Close releases the cache's background cleaner.
func (c *ExtractionCache) Close() error {
	return c.store.Close()
}
