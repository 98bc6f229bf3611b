package drivers

import (
	"context"
	"fmt"

	"github.com/sablecore/huntbay/pkg/enrichment"
)

// Static is a fixed lookup-table driver (config.EnrichmentDriverConfig.Type
// == "static"): no network calls, used for offline deployments and tests
// that need a deterministic enrichment.Driver.
type Static struct {
	name    string
	results map[string]*enrichment.Result
}

// NewStatic builds a Static driver over a pre-populated result set.
func NewStatic(name string, results map[string]*enrichment.Result) *Static {
	return &Static{name: name, results: results}
}

// Name implements enrichment.Driver.
func (s *Static) Name() string { return s.name }

// Lookup implements enrichment.Driver.
func (s *Static) Lookup(_ context.Context, indicator string) (*enrichment.Result, error) {
	r, ok := s.results[indicator]
	if !ok {
		return nil, fmt.Errorf("enrichment: %s has no entry for %q", s.name, indicator)
	}
	return r, nil
}

// Ping implements enrichment.Driver: a static table is always reachable.
func (s *Static) Ping(_ context.Context) error { return nil }
