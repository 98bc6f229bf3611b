package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAllDefaults(t *testing.T) {
	cfg := validConfig()
	os.Setenv(cfg.Auth.JWTSecretEnv, "test-secret")
	defer os.Unsetenv(cfg.Auth.JWTSecretEnv)
	os.Setenv(cfg.AI.APIKeyEnv, "test-key")
	defer os.Unsetenv(cfg.AI.APIKeyEnv)

	err := NewValidator(cfg).ValidateAll()
	require.NoError(t, err)
}

func TestValidateSSH(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SSHConfig)
		wantErr string
	}{
		{
			name:    "connect timeout zero",
			mutate:  func(s *SSHConfig) { s.ConnectTimeout = 0 },
			wantErr: "connect_timeout",
		},
		{
			name:    "unknown host key check",
			mutate:  func(s *SSHConfig) { s.HostKeyCheck = "trust_everyone" },
			wantErr: "host_key_check",
		},
		{
			name: "known_hosts without path",
			mutate: func(s *SSHConfig) {
				s.HostKeyCheck = "known_hosts"
				s.KnownHostsPath = ""
			},
			wantErr: "known_hosts_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg.SSH)
			err := NewValidator(cfg).validateSSH()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAIUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Provider = "homegrown"

	err := NewValidator(cfg).validateAI()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAIProvider)
}

func TestValidateAIRequiresBaseURLForOpenAICompatible(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Provider = string(AIProviderOpenAICompat)
	cfg.AI.APIKeyEnv = ""
	cfg.AI.BaseURL = ""

	err := NewValidator(cfg).validateAI()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestValidateAuthRequiresRefreshLongerThanAccess(t *testing.T) {
	cfg := validConfig()
	os.Setenv(cfg.Auth.JWTSecretEnv, "test-secret")
	defer os.Unsetenv(cfg.Auth.JWTSecretEnv)
	cfg.Auth.RefreshTokenTTL = cfg.Auth.AccessTokenTTL

	err := NewValidator(cfg).validateAuth()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh_token_ttl")
}

func TestValidateNotifyRequiresChannelWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.Notify.Enabled = true
	cfg.Notify.TokenEnv = "SLACK_TOKEN"
	cfg.Notify.ChannelID = ""

	err := NewValidator(cfg).validateNotify()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_id")
}

func TestValidateEnrichmentDriverTypes(t *testing.T) {
	cfg := validConfig()
	cfg.Enrichment.Drivers = []EnrichmentDriverConfig{{Name: "cmdb", Type: "carrier-pigeon"}}

	err := NewValidator(cfg).validateEnrichment()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drivers[0].type")
}
