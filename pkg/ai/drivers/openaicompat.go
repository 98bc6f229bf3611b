package drivers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/sablecore/huntbay/pkg/ai"
	"github.com/sablecore/huntbay/pkg/hunt"
)

const (
	defaultOpenAIModel     = "gpt-4o-mini"
	defaultOpenAIMaxTokens = 4096
)

// OpenAICompat implements ai.Driver against any OpenAI-compatible chat
// completions endpoint (spec §4.5: "a configurable base URL, for
// self-hosted or third-party OpenAI-compatible gateways").
type OpenAICompat struct {
	client    *openai.Client
	modelName string
	maxTokens int
}

// NewOpenAICompat constructs an OpenAI-compatible driver. baseURL empty
// uses the official OpenAI API; non-empty points at a self-hosted or
// third-party gateway speaking the same wire protocol.
func NewOpenAICompat(apiKey, modelName, baseURL string, maxTokens int, timeout time.Duration) *OpenAICompat {
	if modelName == "" {
		modelName = defaultOpenAIModel
	}
	if maxTokens == 0 {
		maxTokens = defaultOpenAIMaxTokens
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAICompat{
		client:    openai.NewClientWithConfig(cfg),
		modelName: modelName,
		maxTokens: maxTokens,
	}
}

// Name implements ai.Driver.
func (o *OpenAICompat) Name() string { return "openai_compatible" }

// StreamReport implements ai.Driver.
func (o *OpenAICompat) StreamReport(ctx context.Context, contextText string) (<-chan ai.Chunk, error) {
	req := openai.ChatCompletionRequest{
		Model: o.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: contextText},
		},
		MaxTokens: o.maxTokens,
		Stream:    true,
	}

	stream, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ai/openaicompat: start stream: %w", err)
	}

	out := make(chan ai.Chunk, 16)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				out <- ai.Chunk{Err: fmt.Errorf("ai/openaicompat: stream: %w", err)}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta != "" {
				select {
				case out <- ai.Chunk{Text: delta}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// SummarizeReport implements ai.Driver with a short non-streaming call.
func (o *OpenAICompat) SummarizeReport(ctx context.Context, reportText string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Summarize the following security report in two sentences:\n\n" + reportText},
		},
		MaxTokens: 256,
	})
	if err != nil {
		return "", fmt.Errorf("ai/openaicompat: summarize: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// ExtractFindings implements ai.Driver by parsing the trailing fenced json
// block the system prompt instructs the model to append.
func (o *OpenAICompat) ExtractFindings(reportText string, _ []hunt.Observation) ([]ai.ExtractedFinding, error) {
	return extractTrailingJSONFindings(reportText)
}
