package ttl

import (
	"context"
	"time"

	"go.uber.org/zap"

	"timed-cache/internal/logs"
	"timed-cache/internal/metrics"
)

// Store defines the minimal contract required by the TTL cleaner
// This keeps the cleaner interface decoupled from the concrete store implementation
type Store interface {
	RemoveExpired() int
}

// Cleaner periodically sweeps expired keys out of the store. It covers
// the gap left by reads, which never remove anything, and by long pauses
// between writes.
type Cleaner struct {
	store    Store
	interval time.Duration
	logger   *logs.Logger
	metrics  *metrics.Registry
}

// NewCleaner creates a new instance of TTL Cleaner
func NewCleaner(
	store Store,
	interval time.Duration,
	logger *logs.Logger,
	reg *metrics.Registry,
) *Cleaner {
	return &Cleaner{
		store:    store,
		interval: interval,
		logger:   logger.With(zap.String("component", "ttl_cleaner")),
		metrics:  reg,
	}
}

// Start runs the cleanup loop until the context is cancelled.
// It blocks and should typically be run in a separate goroutine.
func (c *Cleaner) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Debug("ttl cleaner started", zap.Duration("interval", c.interval))
	for {
		select {
		case <-ticker.C:
			c.runOnce()
		case <-ctx.Done():
			c.logger.Debug("ttl cleaner stopped")
			return
		}
	}
}

// runOnce performs a single cleanup cycle
func (c *Cleaner) runOnce() int {
	removed := c.store.RemoveExpired()

	c.metrics.Inc(metrics.TTLCleanupRunsTotal)
	c.metrics.Add(metrics.TTLKeysRemovedTotal, int64(removed))

	if removed > 0 {
		c.logger.Info("ttl cleaner removed expired keys", zap.Int("removed", removed))
	}
	return removed
}
