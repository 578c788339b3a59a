package cleanup

import "time"

// CleanupConfig holds configuration for the retention sweep.
type CleanupConfig struct {
	MaxAge        time.Duration // default 30 days
	CheckInterval time.Duration // default 1h
}

// DefaultConfig returns sane defaults.
func DefaultConfig() CleanupConfig {
	return CleanupConfig{
		MaxAge:        30 * 24 * time.Hour,
		CheckInterval: 1 * time.Hour,
	}
}

// Result summarises one sweep.
type Result struct {
	Pruned      int64
	DBSizeBytes int64
}
