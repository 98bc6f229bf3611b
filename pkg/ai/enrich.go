package ai

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sablecore/huntbay/pkg/enrichment"
	"github.com/sablecore/huntbay/pkg/hunt"
)

// ipPattern pulls plausible IPv4 indicators out of Observation output so
// they can be handed to an enrichment Driver. It's deliberately loose
// (no octet-range validation) — a false-positive lookup just comes back
// with a low-confidence Result, while missing a real indicator loses
// context entirely.
var ipPattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)

// extractIndicators scans every Observation's stdout/stderr for IPv4
// addresses, deduplicated and order-preserving.
func extractIndicators(observations []hunt.Observation) []string {
	seen := make(map[string]bool)
	var out []string
	for _, obs := range observations {
		for _, s := range []string{obs.Stdout, obs.Stderr} {
			for _, m := range ipPattern.FindAllString(s, -1) {
				if !seen[m] {
					seen[m] = true
					out = append(out, m)
				}
			}
		}
	}
	return out
}

// enrichContext queries router's driverNames for each indicator found in
// observations and renders the results as a section to append to the
// serialized Context, so the Driver sees threat-intel alongside raw
// command output (spec §1's enrichment boundary, consulted "while
// building context beyond the raw Observations").
func enrichContext(ctx context.Context, router *enrichment.Router, driverNames []string, observations []hunt.Observation) string {
	indicators := extractIndicators(observations)
	if len(indicators) == 0 || len(driverNames) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("--- enrichment ---\n")
	any := false
	for _, name := range driverNames {
		for _, indicator := range indicators {
			result, err := router.Lookup(ctx, name, indicator)
			if err != nil {
				continue
			}
			any = true
			sb.WriteString(fmt.Sprintf("%s (%s): score=%.2f", indicator, result.Source, result.Score))
			if len(result.Categories) > 0 {
				sb.WriteString(" categories=" + strings.Join(result.Categories, ","))
			}
			sb.WriteString("\n")
		}
	}
	if !any {
		return ""
	}
	return sb.String() + "\n"
}
