package drivers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTrailingJSONFindingsParsesFencedBlock(t *testing.T) {
	report := "Executive summary of the hunt.\n\n" +
		"```json\n" +
		`[{"title": "exposed ssh key", "severity": "HIGH", "confidence": 1.5, "tags": ["ssh", "creds"]}]` +
		"\n```\n"

	findings, err := extractTrailingJSONFindings(report)

	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "exposed ssh key", findings[0].Title)
	assert.Equal(t, "high", findings[0].Severity)
	assert.Equal(t, 1.0, findings[0].Confidence, "confidence is clamped to [0,1]")
	assert.Equal(t, []string{"ssh", "creds"}, findings[0].Tags)
}

func TestExtractTrailingJSONFindingsNoFenceReturnsNil(t *testing.T) {
	findings, err := extractTrailingJSONFindings("just prose, no fenced block")
	require.NoError(t, err)
	assert.Nil(t, findings)
}

func TestExtractTrailingJSONFindingsMalformedJSONReturnsNilNotError(t *testing.T) {
	report := "analysis\n```json\n{not valid json]\n```"
	findings, err := extractTrailingJSONFindings(report)
	require.NoError(t, err)
	assert.Nil(t, findings)
}

func TestExtractTrailingJSONFindingsSkipsEntriesWithoutTitle(t *testing.T) {
	report := "```json\n[{\"severity\": \"low\"}, {\"title\": \"valid\", \"severity\": \"low\"}]\n```"
	findings, err := extractTrailingJSONFindings(report)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "valid", findings[0].Title)
}

func TestNormalizeSeverityDefaultsToInfo(t *testing.T) {
	assert.Equal(t, "critical", normalizeSeverity("Critical"))
	assert.Equal(t, "medium", normalizeSeverity("MEDIUM"))
	assert.Equal(t, "info", normalizeSeverity("unknown-value"))
	assert.Equal(t, "info", normalizeSeverity(""))
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, clampConfidence(-0.5))
	assert.Equal(t, 1.0, clampConfidence(1.2))
	assert.Equal(t, 0.42, clampConfidence(0.42))
}

func TestNewAnthropicAppliesDefaults(t *testing.T) {
	d := NewAnthropic("test-key", "", "", 0, 0)
	assert.Equal(t, "anthropic", d.Name())
	assert.Equal(t, defaultAnthropicModel, d.modelName)
	assert.Equal(t, defaultAnthropicMaxTokens, d.maxTokens)
}
