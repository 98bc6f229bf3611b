// Package drivers provides the three AI Driver implementations spec §4.5
// names: Anthropic, OpenAI-compatible, Ollama.
package drivers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sablecore/huntbay/pkg/ai"
	"github.com/sablecore/huntbay/pkg/hunt"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-6"
	defaultAnthropicMaxTokens = 4096
)

// systemPrompt instructs the model to end its report with a fenced JSON
// findings array, which ExtractFindings then parses (spec §4.5 step 5:
// "the driver parses trailing structured JSON").
const systemPrompt = `You are a security analyst reviewing the captured output of a hunt module run against a remote host. Write a concise executive report analyzing what was observed. After the prose report, append a fenced json code block containing an array of findings, each with fields: title, severity (critical|high|medium|low|info), confidence (0-1), tags (array of strings).`

// Anthropic implements ai.Driver against the Anthropic Messages API.
type Anthropic struct {
	client    anthropic.Client
	modelName string
	maxTokens int
}

// NewAnthropic constructs an Anthropic driver. baseURL overrides the
// default endpoint (used for proxies/mocks in tests); empty uses the SDK
// default.
func NewAnthropic(apiKey, modelName, baseURL string, maxTokens int, timeout time.Duration) *Anthropic {
	if modelName == "" {
		modelName = defaultAnthropicModel
	}
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		modelName: modelName,
		maxTokens: maxTokens,
	}
}

// Name implements ai.Driver.
func (a *Anthropic) Name() string { return "anthropic" }

// StreamReport implements ai.Driver.
func (a *Anthropic) StreamReport(ctx context.Context, contextText string) (<-chan ai.Chunk, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.modelName),
		MaxTokens: int64(a.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(contextText)),
		},
	}

	stream := a.client.Messages.NewStreaming(ctx, params)

	out := make(chan ai.Chunk, 16)
	go func() {
		defer close(out)
		for stream.Next() {
			select {
			case <-ctx.Done():
				return
			default:
			}
			event := stream.Current()
			if event.Type != "content_block_delta" {
				continue
			}
			if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				out <- ai.Chunk{Text: event.Delta.Text}
			}
		}
		if err := stream.Err(); err != nil {
			out <- ai.Chunk{Err: fmt.Errorf("ai/anthropic: stream: %w", err)}
		}
	}()

	return out, nil
}

// SummarizeReport implements ai.Driver with a short non-streaming call.
func (a *Anthropic) SummarizeReport(ctx context.Context, reportText string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.modelName),
		MaxTokens: 256,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Summarize the following security report in two sentences:\n\n" + reportText)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai/anthropic: summarize: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// ExtractFindings implements ai.Driver by parsing the trailing fenced json
// block the system prompt instructs the model to append.
func (a *Anthropic) ExtractFindings(reportText string, _ []hunt.Observation) ([]ai.ExtractedFinding, error) {
	return extractTrailingJSONFindings(reportText)
}

// rawFinding is the wire shape the system prompt asks the model to emit.
type rawFinding struct {
	Title      string   `json:"title"`
	Severity   string   `json:"severity"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags"`
}

// extractTrailingJSONFindings locates the last fenced ```json ... ``` block
// in text and decodes it into ExtractedFindings. Shared by all three
// drivers since they're prompted to produce the same trailing-JSON shape.
func extractTrailingJSONFindings(text string) ([]ai.ExtractedFinding, error) {
	const fence = "```"
	lastOpen := strings.LastIndex(text, fence+"json")
	if lastOpen == -1 {
		lastOpen = strings.LastIndex(text, fence)
	}
	if lastOpen == -1 {
		return nil, nil
	}
	rest := text[lastOpen:]
	rest = strings.TrimPrefix(rest, fence+"json")
	rest = strings.TrimPrefix(rest, fence)
	closeIdx := strings.Index(rest, fence)
	if closeIdx == -1 {
		return nil, nil
	}
	body := strings.TrimSpace(rest[:closeIdx])
	if body == "" {
		return nil, nil
	}

	var raw []rawFinding
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, nil // best-effort per spec §4.5 step 5; malformed JSON yields no findings rather than an error
	}

	findings := make([]ai.ExtractedFinding, 0, len(raw))
	for _, r := range raw {
		if r.Title == "" {
			continue
		}
		findings = append(findings, ai.ExtractedFinding{
			Title:      r.Title,
			Severity:   normalizeSeverity(r.Severity),
			Confidence: clampConfidence(r.Confidence),
			Tags:       r.Tags,
		})
	}
	return findings, nil
}

func normalizeSeverity(s string) string {
	switch strings.ToLower(s) {
	case "critical", "high", "medium", "low", "info":
		return strings.ToLower(s)
	default:
		return "info"
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
