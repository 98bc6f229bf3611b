package config

import "time"

// RetentionConfig controls audit-data retention and cleanup behavior.
// Persistence is for audit, not recovery of live state (spec §1 Non-goals),
// so retention only ever deletes terminal-state records.
type RetentionConfig struct {
	// SessionRetentionDays is how long a TERMINATED/FAILED/DISCONNECTED
	// session is kept before its record is purged.
	SessionRetentionDays int `yaml:"session_retention_days"`

	// TimelineRetentionDays bounds how long TimelineEvent rows are kept
	// per asset before the oldest are purged.
	TimelineRetentionDays int `yaml:"timeline_retention_days"`

	// CleanupInterval is how often the cleanup sweep runs.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DefaultRetentionConfig returns the built-in retention defaults.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		SessionRetentionDays:  90,
		TimelineRetentionDays: 365,
		CleanupInterval:       12 * time.Hour,
	}
}
