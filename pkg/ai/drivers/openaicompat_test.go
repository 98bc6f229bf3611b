package drivers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOpenAICompatAppliesDefaults(t *testing.T) {
	d := NewOpenAICompat("test-key", "", "", 0, 0)
	assert.Equal(t, "openai_compatible", d.Name())
	assert.Equal(t, defaultOpenAIModel, d.modelName)
	assert.Equal(t, defaultOpenAIMaxTokens, d.maxTokens)
}

func TestNewOpenAICompatHonorsExplicitModelAndTokens(t *testing.T) {
	d := NewOpenAICompat("test-key", "gpt-4o", "https://gateway.internal/v1", 2048, 0)
	assert.Equal(t, "gpt-4o", d.modelName)
	assert.Equal(t, 2048, d.maxTokens)
}
