package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sablecore/huntbay/pkg/enrichment"
	enrichdrivers "github.com/sablecore/huntbay/pkg/enrichment/drivers"
	"github.com/sablecore/huntbay/pkg/hunt"
)

func TestExtractIndicatorsDedupesAndPreservesOrder(t *testing.T) {
	observations := []hunt.Observation{
		{Stdout: "connection from 10.0.0.5 to 10.0.0.9", Stderr: ""},
		{Stdout: "retry 10.0.0.5", Stderr: "refused by 192.168.1.1"},
	}

	got := extractIndicators(observations)

	assert.Equal(t, []string{"10.0.0.5", "10.0.0.9", "192.168.1.1"}, got)
}

func TestExtractIndicatorsEmptyWhenNoneFound(t *testing.T) {
	observations := []hunt.Observation{{Stdout: "no addresses here"}}
	assert.Empty(t, extractIndicators(observations))
}

func TestEnrichContextReturnsEmptyWithoutDriversOrIndicators(t *testing.T) {
	router := enrichment.NewRouter([]enrichment.Driver{enrichdrivers.NewStatic("vt", nil)})

	assert.Empty(t, enrichContext(context.Background(), router, nil, []hunt.Observation{{Stdout: "10.0.0.1"}}))
	assert.Empty(t, enrichContext(context.Background(), router, []string{"vt"}, nil))
}

func TestEnrichContextRendersLookupResults(t *testing.T) {
	router := enrichment.NewRouter([]enrichment.Driver{
		enrichdrivers.NewStatic("vt", map[string]*enrichment.Result{
			"10.0.0.5": {Indicator: "10.0.0.5", Source: "vt", Score: 0.75, Categories: []string{"malware", "c2"}},
		}),
	})
	observations := []hunt.Observation{{Stdout: "beacon to 10.0.0.5 observed"}}

	out := enrichContext(context.Background(), router, []string{"vt"}, observations)

	assert.Contains(t, out, "--- enrichment ---")
	assert.Contains(t, out, "10.0.0.5 (vt): score=0.75")
	assert.Contains(t, out, "categories=malware,c2")
}

func TestEnrichContextSkipsUnknownIndicatorsWithoutError(t *testing.T) {
	router := enrichment.NewRouter([]enrichment.Driver{enrichdrivers.NewStatic("vt", nil)})
	observations := []hunt.Observation{{Stdout: "talks to 203.0.113.9"}}

	out := enrichContext(context.Background(), router, []string{"vt"}, observations)

	assert.Empty(t, out)
}
