package config

import "time"

// NotifyConfig controls optional Slack paging for system.error and
// system.backpressure events (spec §5 "Propagation": these two event
// kinds are the ones operators need paged on, not routed through a UI).
type NotifyConfig struct {
	// Enabled turns Slack notification on. When false, TokenEnv/ChannelID are
	// not consulted.
	Enabled bool `yaml:"enabled"`

	// TokenEnv names the environment variable holding the Slack bot token.
	TokenEnv string `yaml:"token_env,omitempty"`

	// ChannelID is the Slack channel alerts are posted to.
	ChannelID string `yaml:"channel_id,omitempty"`

	// MinSeverity suppresses paging for system.error events below this
	// severity (info, low, medium, high, critical, fatal). Ignored for
	// system.backpressure, which always pages when enabled.
	MinSeverity string `yaml:"min_severity,omitempty" validate:"omitempty,oneof=info low medium high critical fatal"`

	// PostTimeout bounds a single Slack API call.
	PostTimeout time.Duration `yaml:"post_timeout,omitempty"`
}

// DefaultNotifyConfig returns the built-in notify defaults (disabled).
func DefaultNotifyConfig() *NotifyConfig {
	return &NotifyConfig{
		Enabled:     false,
		MinSeverity: "high",
		PostTimeout: 10 * time.Second,
	}
}
