package drivers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	ollamaapi "github.com/ollama/ollama/api"

	"github.com/sablecore/huntbay/pkg/ai"
	"github.com/sablecore/huntbay/pkg/hunt"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// Ollama implements ai.Driver against a local or remote Ollama server's
// chat API (spec §4.5: "self-hosted, no API key").
type Ollama struct {
	client    *ollamaapi.Client
	modelName string
}

// NewOllama constructs an Ollama driver. baseURL empty defaults to the
// standard local Ollama port.
func NewOllama(modelName, baseURL string, timeout time.Duration) (*Ollama, error) {
	if modelName == "" {
		return nil, fmt.Errorf("ai/ollama: model name is required")
	}
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	if timeout == 0 {
		timeout = 300 * time.Second
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("ai/ollama: invalid base url %q: %w", baseURL, err)
	}

	return &Ollama{
		client:    ollamaapi.NewClient(u, &http.Client{Timeout: timeout}),
		modelName: modelName,
	}, nil
}

// Name implements ai.Driver.
func (o *Ollama) Name() string { return "ollama" }

// StreamReport implements ai.Driver.
func (o *Ollama) StreamReport(ctx context.Context, contextText string) (<-chan ai.Chunk, error) {
	out := make(chan ai.Chunk, 16)
	stream := true

	req := &ollamaapi.ChatRequest{
		Model: o.modelName,
		Messages: []ollamaapi.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: contextText},
		},
		Stream: &stream,
	}

	go func() {
		defer close(out)
		err := o.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
			if resp.Message.Content != "" {
				select {
				case out <- ai.Chunk{Text: resp.Message.Content}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
		if err != nil {
			out <- ai.Chunk{Err: fmt.Errorf("ai/ollama: stream: %w", err)}
		}
	}()

	return out, nil
}

// SummarizeReport implements ai.Driver with a non-streaming call.
func (o *Ollama) SummarizeReport(ctx context.Context, reportText string) (string, error) {
	stream := false
	var summary string

	req := &ollamaapi.ChatRequest{
		Model: o.modelName,
		Messages: []ollamaapi.Message{
			{Role: "user", Content: "Summarize the following security report in two sentences:\n\n" + reportText},
		},
		Stream: &stream,
	}

	err := o.client.Chat(ctx, req, func(resp ollamaapi.ChatResponse) error {
		summary = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ai/ollama: summarize: %w", err)
	}
	return summary, nil
}

// ExtractFindings implements ai.Driver by parsing the trailing fenced json
// block the system prompt instructs the model to append.
func (o *Ollama) ExtractFindings(reportText string, _ []hunt.Observation) ([]ai.ExtractedFinding, error) {
	return extractTrailingJSONFindings(reportText)
}
