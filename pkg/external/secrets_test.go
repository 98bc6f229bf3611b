package external

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvSecretsStoreResolvesSetVariable(t *testing.T) {
	require.NoError(t, os.Setenv("HUNTBAY_TEST_SECRET_REF", "shh"))
	defer os.Unsetenv("HUNTBAY_TEST_SECRET_REF")

	s := NewEnvSecretsStore()
	v, err := s.Resolve(context.Background(), "HUNTBAY_TEST_SECRET_REF")
	require.NoError(t, err)
	assert.Equal(t, "shh", v)
}

func TestEnvSecretsStoreUnsetVariableErrors(t *testing.T) {
	s := NewEnvSecretsStore()
	_, err := s.Resolve(context.Background(), "HUNTBAY_TEST_SECRET_REF_UNSET")
	assert.Error(t, err)
}

func TestStaticSecretsStoreResolvesKnownRef(t *testing.T) {
	s := NewStaticSecretsStore(map[string]string{"ref-1": "value-1"})
	v, err := s.Resolve(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "value-1", v)
}

func TestStaticSecretsStoreUnknownRefErrors(t *testing.T) {
	s := NewStaticSecretsStore(nil)
	_, err := s.Resolve(context.Background(), "missing")
	assert.Error(t, err)
}
