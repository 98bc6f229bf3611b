package config

import "time"

// AIProvider identifies which Driver implementation backs the AI Pipeline.
type AIProvider string

const (
	AIProviderAnthropic     AIProvider = "anthropic"
	AIProviderOpenAICompat  AIProvider = "openai_compatible"
	AIProviderOllama        AIProvider = "ollama"
)

// AIConfig configures the AI Pipeline (C5) and its active Driver.
type AIConfig struct {
	// Provider selects the Driver implementation.
	Provider string `yaml:"provider" validate:"required,oneof=anthropic openai_compatible ollama"`

	// Model is the model name/tag passed to the Driver.
	Model string `yaml:"model" validate:"required"`

	// APIKeyEnv names the environment variable holding the provider API key.
	// Ignored for Ollama, which is typically unauthenticated.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// BaseURL overrides the provider's default endpoint. Required for
	// openai_compatible and ollama; optional for anthropic.
	BaseURL string `yaml:"base_url,omitempty"`

	// MaxContextTokens is the global byte budget (ai.Budget.TotalBytes) for
	// the context assembled from Observations before it is sent to the
	// Driver (spec §4.5 LIFO trim).
	MaxContextTokens int `yaml:"max_context_tokens" validate:"required,min=1000"`

	// MaxOutputTokens bounds the length of the generated report.
	MaxOutputTokens int `yaml:"max_output_tokens" validate:"required,min=256"`

	// RequestTimeout bounds a single streaming call to the Driver.
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"required"`

	// MaxRetries is validated but not read by the AI pipeline, whose retry
	// schedule is fixed: two retries (500 ms, then 2 s) before any chunk
	// has streamed, none after.
	MaxRetries int `yaml:"max_retries" validate:"min=0"`
}

// DefaultAIConfig returns the built-in AI pipeline defaults.
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		Provider:         string(AIProviderAnthropic),
		Model:            "claude-sonnet-4-5",
		APIKeyEnv:        "ANTHROPIC_API_KEY",
		MaxContextTokens: 64 * 1024,
		MaxOutputTokens:  4096,
		RequestTimeout:   3 * time.Minute,
		MaxRetries:       2,
	}
}
