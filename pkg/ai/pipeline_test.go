package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablecore/huntbay/pkg/events"
	"github.com/sablecore/huntbay/pkg/hunt"
	"github.com/sablecore/huntbay/pkg/huntmodule"
)

type fakeDriver struct {
	chunks      []Chunk
	streamErr   error
	findings    []ExtractedFinding
	extractErr  error
	summary     string
	summaryErr  error
	name        string
	streamCalls int
}

func (f *fakeDriver) StreamReport(ctx context.Context, contextText string) (<-chan Chunk, error) {
	f.streamCalls++
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan Chunk, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (f *fakeDriver) ExtractFindings(reportText string, observations []hunt.Observation) ([]ExtractedFinding, error) {
	return f.findings, f.extractErr
}

func (f *fakeDriver) SummarizeReport(ctx context.Context, reportText string) (string, error) {
	return f.summary, f.summaryErr
}

func (f *fakeDriver) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

type fakeFindingStore struct {
	upserted []ExtractedFinding
}

func (f *fakeFindingStore) UpsertFinding(ctx context.Context, assetID, sessionID, huntID string, finding ExtractedFinding) (string, string, bool, error) {
	f.upserted = append(f.upserted, finding)
	return "finding-" + finding.Title, "fp-" + finding.Title, true, nil
}

type fakeReportRecorder struct {
	reportText string
	errMsg     string
	saved      bool
}

func (f *fakeReportRecorder) SaveAIReport(ctx context.Context, huntID, sessionID, assetID, provider, modelName, reportText, summary string, inputTokens, outputTokens, durationMs *int, errMsg string) error {
	f.saved = true
	f.reportText = reportText
	f.errMsg = errMsg
	return nil
}

func testModule() *huntmodule.Module {
	return &huntmodule.Module{
		ID:           "mod-1",
		Name:         "Test Module",
		SeverityHint: huntmodule.SeverityInfo,
		Steps:        []huntmodule.Step{{ID: "s0", Description: "run", Command: "echo hi"}},
	}
}

func newTestPipeline(driver Driver, findings FindingStore, reports ReportRecorder) *Pipeline {
	bus := events.NewBus(8)
	pub := events.NewPublisher(bus, nil)
	return NewPipeline(driver, findings, reports, pub, DefaultBudget, nil, nil)
}

func TestPipelineRunHappyPath(t *testing.T) {
	driver := &fakeDriver{
		chunks:  []Chunk{{Text: "analysis...\n"}, {Text: "---\nfindings:\n"}},
		summary: "summary text",
		findings: []ExtractedFinding{
			{Title: "exposed ssh key", Severity: "high", Confidence: 0.9},
		},
	}
	findings := &fakeFindingStore{}
	reports := &fakeReportRecorder{}
	p := newTestPipeline(driver, findings, reports)

	observations := []hunt.Observation{{StepIndex: 0, Command: "echo hi", Stdout: "hi"}}
	count, err := p.Run(context.Background(), "hunt-1", "session-1", "asset-1", testModule(), observations)

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, findings.upserted, 1)
	assert.Equal(t, "exposed ssh key", findings.upserted[0].Title)
	assert.True(t, reports.saved)
	assert.Contains(t, reports.reportText, "analysis...")
	assert.Empty(t, reports.errMsg)
}

func TestPipelineRunFallsBackToTruncatedSummaryOnSummarizeError(t *testing.T) {
	driver := &fakeDriver{
		chunks:     []Chunk{{Text: "some analysis"}},
		summaryErr: errors.New("summarizer unavailable"),
	}
	p := newTestPipeline(driver, &fakeFindingStore{}, &fakeReportRecorder{})

	count, err := p.Run(context.Background(), "hunt-1", "session-1", "asset-1", testModule(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestPipelineRunRetriesOnStreamErrorBeforeAnyChunk(t *testing.T) {
	original := retryBackoffs
	retryBackoffs = []time.Duration{time.Millisecond, time.Millisecond}
	defer func() { retryBackoffs = original }()

	driver := &fakeDriver{streamErr: errors.New("transport reset")}
	p := newTestPipeline(driver, &fakeFindingStore{}, &fakeReportRecorder{})

	_, err := p.Run(context.Background(), "hunt-1", "session-1", "asset-1", testModule(), nil)

	require.Error(t, err)
	assert.Equal(t, len(retryBackoffs)+1, driver.streamCalls)
}

func TestPipelineRunPreservesPartialReportOnMidStreamDriverError(t *testing.T) {
	driver := &fakeDriver{
		chunks: []Chunk{
			{Text: "partial analysis before the transport died"},
			{Err: errors.New("connection reset by peer")},
		},
	}
	reports := &fakeReportRecorder{}
	p := newTestPipeline(driver, &fakeFindingStore{}, reports)

	count, err := p.Run(context.Background(), "hunt-1", "session-1", "asset-1", testModule(), nil)

	require.NoError(t, err, "a mid-stream failure after chunks landed is not retryable, so Run reports no error")
	assert.Equal(t, 0, count)
	assert.True(t, reports.saved)
	assert.Contains(t, reports.reportText, "partial analysis before the transport died")
	assert.Contains(t, reports.errMsg, "connection reset by peer")
	assert.Equal(t, 1, driver.streamCalls, "a chunk already landed, so the stream is not retried")
}

func TestPipelineRunPersistsReportBeforeExtractFindingsError(t *testing.T) {
	// StreamReport itself succeeds and emits chunks, so a downstream
	// ExtractFindings failure should still have persisted the report text.
	driver := &fakeDriver{
		chunks:     []Chunk{{Text: "partial output before failure"}},
		extractErr: errors.New("malformed findings JSON"),
	}
	reports := &fakeReportRecorder{}
	p := newTestPipeline(driver, &fakeFindingStore{}, reports)

	_, err := p.Run(context.Background(), "hunt-1", "session-1", "asset-1", testModule(), nil)

	require.Error(t, err)
	assert.True(t, reports.saved)
	assert.Contains(t, reports.reportText, "partial output before failure")
}
