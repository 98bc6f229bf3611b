package config

import "time"

// EnrichmentDriverConfig describes one pluggable enrichment source consulted
// while building AI context (e.g. a CMDB lookup, a threat-intel feed).
type EnrichmentDriverConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Type    string `yaml:"type" validate:"required,oneof=http static"`
	BaseURL string `yaml:"base_url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// EnrichmentConfig lists the enrichment drivers available to the AI Pipeline
// when assembling context beyond the raw Observations.
type EnrichmentConfig struct {
	Drivers []EnrichmentDriverConfig `yaml:"drivers,omitempty"`
}

// DefaultEnrichmentConfig returns the built-in enrichment defaults (none
// configured; enrichment is opt-in per deployment).
func DefaultEnrichmentConfig() *EnrichmentConfig {
	return &EnrichmentConfig{
		Drivers: []EnrichmentDriverConfig{},
	}
}
