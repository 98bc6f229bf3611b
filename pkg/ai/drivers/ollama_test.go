package drivers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOllamaRequiresModelName(t *testing.T) {
	_, err := NewOllama("", "", 0)
	require.Error(t, err)
}

func TestNewOllamaAppliesDefaultBaseURL(t *testing.T) {
	d, err := NewOllama("llama3", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "ollama", d.Name())
	assert.Equal(t, "llama3", d.modelName)
}

func TestNewOllamaRejectsInvalidBaseURL(t *testing.T) {
	_, err := NewOllama("llama3", "://not-a-url", 0)
	require.Error(t, err)
}
