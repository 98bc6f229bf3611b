package ai

import (
	"context"

	"github.com/sablecore/huntbay/pkg/hunt"
)

// Chunk is one unit of a Driver's streaming report output (spec §4.5 step
// 3). State is driver-reported when known; Pipeline applies the
// separator/fence heuristic from spec §4.5 step 3 when a driver leaves it
// empty. Err carries a mid-stream transport failure: a driver that hits one
// after already emitting text must send a final Chunk{Err: err} instead of
// silently closing the channel, so Pipeline can tell a failed stream from a
// clean one apart and preserve the partial report (spec §4.5 step 4).
type Chunk struct {
	Text  string
	State string // "analyzing" | "concluding" | "generating", or empty
	Err   error
}

// ExtractedFinding is a Driver's candidate Finding, before Pipeline dedups
// it against the Intelligence Store by (asset_id, fingerprint). Fields
// mirror ent/schema/finding.go minus the identity/lifecycle columns the
// store itself owns (id, status, sighting_count, first/last_seen).
type ExtractedFinding struct {
	Title       string
	Severity    string // critical | high | medium | low | info
	Confidence  float64
	Tags        []string
	Remediation *Remediation
	STIXBundle  map[string]any
}

// Remediation mirrors ent/schema/finding.go's three-bucket plan.
type Remediation struct {
	Immediate []string
	ShortTerm []string
	LongTerm  []string
}

// Driver is the pluggable AI backend contract (spec §4.5): "a Driver
// interface with three method contracts... Three variants ship: Anthropic,
// OpenAI-compatible, Ollama."
type Driver interface {
	// StreamReport starts a streaming completion over contextText and
	// returns a channel of Chunks, closed when the stream ends. The
	// channel is also closed (after emitting no further chunks) if ctx is
	// cancelled.
	StreamReport(ctx context.Context, contextText string) (<-chan Chunk, error)

	// ExtractFindings parses reportText's trailing structured JSON (or
	// applies a best-effort heuristic) into zero or more candidate
	// Findings.
	ExtractFindings(reportText string, observations []hunt.Observation) ([]ExtractedFinding, error)

	// SummarizeReport produces a short executive summary of a completed
	// report.
	SummarizeReport(ctx context.Context, reportText string) (string, error)

	// Name identifies the driver for AIReport.provider / ai.error.provider.
	Name() string
}
