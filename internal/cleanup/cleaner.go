// Package cleanup runs the periodic retention sweep over the board database.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Pruner is the part of the store the sweep calls.
type Pruner interface {
	// RunRetention deletes generation history older than maxAge.
	RunRetention(ctx context.Context, maxAge time.Duration) (int64, error)
	// DBSizeBytes reports the on-disk size of the database.
	DBSizeBytes() (int64, error)
}

// SizeReporter receives the database size after each sweep. *metrics.Metrics implements it.
type SizeReporter interface {
	SetDBSize(bytes float64)
}

// Cleaner prunes old generation history on an interval.
type Cleaner struct {
	cfg      CleanupConfig
	store    Pruner
	reporter SizeReporter
	logger   zerolog.Logger
}

// NewCleaner creates a new Cleaner. reporter may be nil.
func NewCleaner(cfg CleanupConfig, store Pruner, reporter SizeReporter, logger zerolog.Logger) *Cleaner {
	def := DefaultConfig()
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = def.MaxAge
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = def.CheckInterval
	}
	return &Cleaner{
		cfg:      cfg,
		store:    store,
		reporter: reporter,
		logger:   logger.With().Str("component", "cleanup").Logger(),
	}
}

// RunOnce performs a single sweep.
func (c *Cleaner) RunOnce(ctx context.Context) (Result, error) {
	var res Result

	n, err := c.store.RunRetention(ctx, c.cfg.MaxAge)
	if err != nil {
		return res, fmt.Errorf("failed to prune generations: %w", err)
	}
	res.Pruned = n

	size, err := c.store.DBSizeBytes()
	if err != nil {
		// Pruning already succeeded; a missing size only skips the gauge.
		c.logger.Warn().Err(err).Msg("failed to read database size")
		return res, nil
	}
	res.DBSizeBytes = size
	if c.reporter != nil {
		c.reporter.SetDBSize(float64(size))
	}
	return res, nil
}

// Run sweeps once immediately and then every CheckInterval until ctx is cancelled.
func (c *Cleaner) Run(ctx context.Context) error {
	c.logger.Info().
		Dur("max_age", c.cfg.MaxAge).
		Dur("interval", c.cfg.CheckInterval).
		Msg("retention sweep started")

	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		if res, err := c.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error().Err(err).Msg("retention sweep failed")
		} else {
			c.logger.Debug().Int64("pruned", res.Pruned).Int64("db_bytes", res.DBSizeBytes).Msg("retention sweep done")
		}

		select {
		case <-ctx.Done():
			c.logger.Info().Msg("retention sweep stopped")
			return nil
		case <-ticker.C:
		}
	}
}
