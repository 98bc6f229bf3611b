// Package enrichment defines the pluggable threat-intel lookup contract
// (VirusTotal/Shodan/AbuseIPDB-shaped) that the AI Pipeline may consult
// while building context beyond the raw Observations. Out of scope per
// spec.md §1 as a concrete integration; this package is the interface
// boundary spec §1 anticipates for it, plus one HTTP-backed driver and a
// health monitor in the teacher's MCP client/health idiom.
package enrichment

import "context"

// Result is a single driver's answer for one indicator (IP, domain, hash).
type Result struct {
	Indicator  string         `json:"indicator"`
	Source     string         `json:"source"`
	Score      float64        `json:"score"`
	Categories []string       `json:"categories,omitempty"`
	Raw        map[string]any `json:"raw,omitempty"`
}

// Driver is a pluggable enrichment source consulted by name (spec §1's
// "pluggable drivers with a fixed contract", same shape as pkg/ai.Driver
// and pkg/huntmodule's module registry).
type Driver interface {
	// Name returns the driver's configured identifier, matched against
	// config.EnrichmentDriverConfig.Name.
	Name() string

	// Lookup queries the driver for indicator. Implementations must not
	// block past their configured timeout.
	Lookup(ctx context.Context, indicator string) (*Result, error)

	// Ping is a lightweight reachability check used by HealthMonitor.
	Ping(ctx context.Context) error
}
