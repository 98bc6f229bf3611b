package config

import "time"

// RateLimitConfig bounds how many Sessions/Hunts an analyst or Asset can
// have active at once (spec §4.8 Admission & Locking).
type RateLimitConfig struct {
	// MaxSessionsPerAnalyst caps concurrently OPEN sessions owned by one
	// analyst.
	MaxSessionsPerAnalyst int `yaml:"max_sessions_per_analyst" validate:"required,min=1"`

	// MaxSessionsPerAsset caps concurrently OPEN sessions against one Asset.
	MaxSessionsPerAsset int `yaml:"max_sessions_per_asset" validate:"required,min=1"`

	// LockTTL is checked to be positive at load time; pkg/admission does
	// not read it and reclaims no stale locks by age.
	LockTTL time.Duration `yaml:"lock_ttl" validate:"required"`
}

// DefaultRateLimitConfig returns the built-in admission defaults.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MaxSessionsPerAnalyst: 5,
		MaxSessionsPerAsset:   1,
		LockTTL:               30 * time.Second,
	}
}
