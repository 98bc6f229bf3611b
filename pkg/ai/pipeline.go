package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sablecore/huntbay/pkg/enrichment"
	"github.com/sablecore/huntbay/pkg/events"
	"github.com/sablecore/huntbay/pkg/hunt"
	"github.com/sablecore/huntbay/pkg/huntmodule"
)

// retryBackoffs mirrors spec §4.5's literal retry policy: "up to 2
// attempts with 500 ms/2 s backoff... if no chunk has been emitted yet."
var retryBackoffs = []time.Duration{500 * time.Millisecond, 2 * time.Second}

// ReportRecorder persists the completed (or partial, on error) AIReport
// row (ent/schema/aireport.go). Satisfied by pkg/intel; kept narrow to
// avoid an import cycle.
type ReportRecorder interface {
	SaveAIReport(ctx context.Context, huntID, sessionID, assetID, provider, modelName, reportText, summary string, inputTokens, outputTokens, durationMs *int, errMsg string) error
}

// FindingStore upserts a candidate Finding, deduplicated by (asset_id,
// fingerprint), and reports whether the row was newly created (spec §4.6).
// Satisfied by pkg/intel; kept narrow to avoid an import cycle.
type FindingStore interface {
	UpsertFinding(ctx context.Context, assetID, sessionID, huntID string, f ExtractedFinding) (findingID, fingerprint string, newSighting bool, err error)
}

// Pipeline runs the AI Pipeline over a completed hunt's Observations (spec
// §4.5), satisfying hunt.AIPipeline.
type Pipeline struct {
	driver      Driver
	findings    FindingStore
	reports     ReportRecorder
	pub         *events.Publisher
	budget      Budget
	enricher    *enrichment.Router
	enrichNames []string
}

// NewPipeline constructs a Pipeline around driver. budget is normally
// DefaultBudget; tests may pass a smaller one to exercise trimming. enricher
// and enrichNames are optional (nil/empty disables enrichment entirely):
// when set, every indicator found in a hunt's Observations is looked up
// against each named driver and folded into the context handed to driver.
func NewPipeline(driver Driver, findings FindingStore, reports ReportRecorder, pub *events.Publisher, budget Budget, enricher *enrichment.Router, enrichNames []string) *Pipeline {
	return &Pipeline{driver: driver, findings: findings, reports: reports, pub: pub, budget: budget, enricher: enricher, enrichNames: enrichNames}
}

// Run implements hunt.AIPipeline: build Context, stream the report,
// extract and dedup Findings, and return the count of newly-created-or-
// updated Findings.
func (p *Pipeline) Run(ctx context.Context, huntID, sessionID, assetID string, module *huntmodule.Module, observations []hunt.Observation) (int, error) {
	contextText := BuildContext(module, observations, p.budget)
	if p.enricher != nil {
		contextText += enrichContext(ctx, p.enricher, p.enrichNames, observations)
	}

	p.pub.PublishAIReasoning(events.TypeAIReasoningStarted, events.AIReasoningPayload{
		SessionID: sessionID, HuntID: huntID, Provider: p.driver.Name(), Summary: Summary(contextText, 256),
	})

	reportText, err := p.stream(ctx, sessionID, huntID, contextText)
	if err != nil {
		if poe, ok := err.(*partialOutputError); ok {
			// Partial report preserved; not retryable once a chunk landed.
			p.pub.PublishAIError(events.AIErrorPayload{
				SessionID: sessionID, HuntID: huntID, Provider: p.driver.Name(), Message: poe.err.Error(),
			})
			p.saveReport(ctx, huntID, sessionID, assetID, poe.partial, "", poe.err.Error())
			return 0, nil
		}
		p.pub.PublishAIError(events.AIErrorPayload{
			SessionID: sessionID, HuntID: huntID, Provider: p.driver.Name(), Message: err.Error(),
		})
		return 0, err
	}

	summary, err := p.driver.SummarizeReport(ctx, reportText)
	if err != nil {
		summary = Summary(reportText, 256)
	}
	p.pub.PublishAIReasoning(events.TypeAIReasoningCompleted, events.AIReasoningPayload{
		SessionID: sessionID, HuntID: huntID, Provider: p.driver.Name(), Summary: summary,
	})
	p.saveReport(ctx, huntID, sessionID, assetID, reportText, summary, "")

	extracted, err := p.driver.ExtractFindings(reportText, observations)
	if err != nil {
		return 0, fmt.Errorf("ai: extracting findings: %w", err)
	}

	count := 0
	for _, f := range extracted {
		findingID, fingerprint, newSighting, err := p.findings.UpsertFinding(ctx, assetID, sessionID, huntID, f)
		if err != nil {
			return count, fmt.Errorf("ai: upserting finding %q: %w", f.Title, err)
		}
		count++
		p.pub.PublishAIFinding(ctx, "", events.AIFindingGeneratedPayload{
			SessionID: sessionID, HuntID: huntID, FindingID: findingID, AssetID: assetID,
			Title: f.Title, Severity: f.Severity, Confidence: f.Confidence,
			Fingerprint: fingerprint, NewSighting: newSighting,
		})
	}

	return count, nil
}

// partialOutputError mirrors the teacher's PartialOutputError
// (pkg/agent/controller/streaming.go): a stream failure after at least one
// chunk has already been emitted, which spec §4.5 says must preserve the
// partial report rather than be retried.
type partialOutputError struct {
	err     error
	partial string
}

func (e *partialOutputError) Error() string { return e.err.Error() }
func (e *partialOutputError) Unwrap() error { return e.err }

// stream drains the driver's chunk channel, classifying each chunk's state
// via the spec §4.5 step 3 heuristic when the driver doesn't report one,
// retrying transport failures up to len(retryBackoffs) times as long as no
// chunk has landed yet.
func (p *Pipeline) stream(ctx context.Context, sessionID, huntID, contextText string) (string, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		reportText, emittedAny, err := p.consumeOnce(ctx, sessionID, huntID, contextText)
		if err == nil {
			return reportText, nil
		}
		if emittedAny {
			return "", &partialOutputError{err: err, partial: reportText}
		}
		lastErr = err
		if attempt >= len(retryBackoffs) {
			return "", fmt.Errorf("ai: stream failed after %d attempts: %w", attempt+1, lastErr)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryBackoffs[attempt]):
		}
	}
}

// consumeOnce runs one attempt at StreamReport to completion, emitting
// ai.reasoning_chunk for each chunk and applying the
// analyzing/concluding/generating state heuristic when the driver leaves
// Chunk.State empty.
func (p *Pipeline) consumeOnce(ctx context.Context, sessionID, huntID, contextText string) (reportText string, emittedAny bool, err error) {
	chunks, err := p.driver.StreamReport(ctx, contextText)
	if err != nil {
		return "", false, err
	}

	var sb strings.Builder
	state := "analyzing"
	sawSeparator := false
	sawFence := false

	for chunk := range chunks {
		if chunk.Err != nil {
			if chunk.Text != "" {
				emittedAny = true
				sb.WriteString(chunk.Text)
			}
			return sb.String(), emittedAny, chunk.Err
		}

		emittedAny = true
		sb.WriteString(chunk.Text)

		if chunk.State != "" {
			state = chunk.State
		} else {
			if !sawFence && strings.Contains(chunk.Text, "```") {
				sawFence = true
			}
			if !sawSeparator && strings.Contains(chunk.Text, "---") {
				sawSeparator = true
			}
			switch {
			case sawFence:
				state = "generating"
			case sawSeparator:
				state = "concluding"
			default:
				state = "analyzing"
			}
		}

		p.pub.PublishAIReasoning(events.TypeAIReasoningChunk, events.AIReasoningPayload{
			SessionID: sessionID, HuntID: huntID, Provider: p.driver.Name(), State: state, Delta: chunk.Text,
		})
	}

	if ctx.Err() != nil {
		return sb.String(), emittedAny, ctx.Err()
	}
	return sb.String(), emittedAny, nil
}

func (p *Pipeline) saveReport(ctx context.Context, huntID, sessionID, assetID, reportText, summary, errMsg string) {
	if err := p.reports.SaveAIReport(ctx, huntID, sessionID, assetID, p.driver.Name(), "", reportText, summary, nil, nil, nil, errMsg); err != nil {
		p.pub.PublishSystemError(events.SystemErrorPayload{Component: "ai.pipeline", Message: err.Error(), Severity: "high"})
	}
}
