package config

import "time"

// RetentionConfig controls background cleanup behavior (§4.8.3).
type RetentionConfig struct {
	// EventTTL is how long a run's event log survives after its terminal event.
	EventTTL time.Duration

	// RunGCInterval is how often the cleanup loop scans for expired runs.
	RunGCInterval time.Duration

	// RateLimitSweepInterval is how often expired sliding-window entries
	// are evicted from the rate limiter.
	RateLimitSweepInterval time.Duration
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		EventTTL:               1 * time.Hour,
		RunGCInterval:          5 * time.Minute,
		RateLimitSweepInterval: 10 * time.Minute,
	}
}
