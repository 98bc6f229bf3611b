package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// validConfig returns a fully-populated, individually-valid Config for use
// as a base in table-driven validator tests that mutate one section at a
// time.
func validConfig() *Config {
	return &Config{
		configDir:  "testdata",
		Defaults:   DefaultDefaults(),
		SSH:        DefaultSSHConfig(),
		AI:         DefaultAIConfig(),
		Queue:      DefaultQueueConfig(),
		Retention:  DefaultRetentionConfig(),
		Auth:       DefaultAuthConfig(),
		EventBus:   DefaultEventBusConfig(),
		RateLimit:  DefaultRateLimitConfig(),
		Gateway:    DefaultGatewayConfig(),
		Enrichment: DefaultEnrichmentConfig(),
		Notify:     DefaultNotifyConfig(),
		External:   DefaultExternalConfig(),
	}
}

func TestConfigStats(t *testing.T) {
	cfg := validConfig()
	cfg.Enrichment.Drivers = []EnrichmentDriverConfig{{Name: "cmdb", Type: "static"}}

	stats := cfg.Stats()

	assert.Equal(t, "anthropic", stats.AIProvider)
	assert.Equal(t, 1, stats.HuntConcurrency)
	assert.Equal(t, 3, stats.AIWorkerCount)
	assert.Equal(t, 1, stats.EnrichmentDrivers)
}

func TestConfigDir(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "testdata", cfg.ConfigDir())
}
