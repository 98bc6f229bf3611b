package config

import (
	"fmt"
	"net/url"
	"os"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at the
// first error). Order matters: components are validated before the
// cross-cutting concerns that reference them.
func (v *Validator) ValidateAll() error {
	if err := v.validateSSH(); err != nil {
		return fmt.Errorf("ssh validation failed: %w", err)
	}
	if err := v.validateAI(); err != nil {
		return fmt.Errorf("ai validation failed: %w", err)
	}
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := v.validateAuth(); err != nil {
		return fmt.Errorf("auth validation failed: %w", err)
	}
	if err := v.validateEventBus(); err != nil {
		return fmt.Errorf("event_bus validation failed: %w", err)
	}
	if err := v.validateRateLimit(); err != nil {
		return fmt.Errorf("rate_limit validation failed: %w", err)
	}
	if err := v.validateGateway(); err != nil {
		return fmt.Errorf("gateway validation failed: %w", err)
	}
	if err := v.validateEnrichment(); err != nil {
		return fmt.Errorf("enrichment validation failed: %w", err)
	}
	if err := v.validateNotify(); err != nil {
		return fmt.Errorf("notify validation failed: %w", err)
	}
	if err := v.validateExternal(); err != nil {
		return fmt.Errorf("external validation failed: %w", err)
	}
	if err := v.validateRetention(); err != nil {
		return fmt.Errorf("retention validation failed: %w", err)
	}
	if err := v.validateDefaults(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateSSH() error {
	s := v.cfg.SSH
	if s == nil {
		return NewValidationError("ssh", "", ErrMissingRequiredField)
	}
	if s.ConnectTimeout <= 0 {
		return NewValidationError("ssh", "connect_timeout", fmt.Errorf("must be positive, got %v", s.ConnectTimeout))
	}
	if s.KeepaliveInterval <= 0 {
		return NewValidationError("ssh", "keepalive_interval", fmt.Errorf("must be positive, got %v", s.KeepaliveInterval))
	}
	if s.MaxReconnectAttempts < 1 {
		return NewValidationError("ssh", "max_reconnect_attempts", fmt.Errorf("must be at least 1, got %d", s.MaxReconnectAttempts))
	}
	if s.ReconnectBackoffBase <= 0 || s.ReconnectBackoffMax < s.ReconnectBackoffBase {
		return NewValidationError("ssh", "reconnect_backoff_max", fmt.Errorf("must be >= reconnect_backoff_base"))
	}
	switch s.HostKeyCheck {
	case "known_hosts", "fingerprint", "insecure":
	default:
		return NewValidationError("ssh", "host_key_check", fmt.Errorf("%w: %s", ErrInvalidValue, s.HostKeyCheck))
	}
	if s.HostKeyCheck == "known_hosts" && s.KnownHostsPath == "" {
		return NewValidationError("ssh", "known_hosts_path", ErrMissingRequiredField)
	}
	return nil
}

func (v *Validator) validateAI() error {
	a := v.cfg.AI
	if a == nil {
		return NewValidationError("ai", "", ErrMissingRequiredField)
	}
	switch AIProvider(a.Provider) {
	case AIProviderAnthropic, AIProviderOpenAICompat, AIProviderOllama:
	default:
		return NewValidationError("ai", "provider", fmt.Errorf("%w: %s", ErrUnknownAIProvider, a.Provider))
	}
	if a.Model == "" {
		return NewValidationError("ai", "model", ErrMissingRequiredField)
	}
	if a.Provider != string(AIProviderOllama) && a.APIKeyEnv != "" {
		if os.Getenv(a.APIKeyEnv) == "" {
			return NewValidationError("ai", "api_key_env", fmt.Errorf("environment variable %s is not set", a.APIKeyEnv))
		}
	}
	if (a.Provider == string(AIProviderOpenAICompat) || a.Provider == string(AIProviderOllama)) && a.BaseURL == "" {
		return NewValidationError("ai", "base_url", fmt.Errorf("base_url required for provider %s", a.Provider))
	}
	if a.BaseURL != "" {
		if _, err := url.Parse(a.BaseURL); err != nil {
			return NewValidationError("ai", "base_url", err)
		}
	}
	if a.MaxContextTokens < 1000 {
		return NewValidationError("ai", "max_context_tokens", fmt.Errorf("must be at least 1000"))
	}
	if a.MaxOutputTokens < 256 {
		return NewValidationError("ai", "max_output_tokens", fmt.Errorf("must be at least 256"))
	}
	if a.RequestTimeout <= 0 {
		return NewValidationError("ai", "request_timeout", fmt.Errorf("must be positive"))
	}
	if a.MaxRetries < 0 {
		return NewValidationError("ai", "max_retries", fmt.Errorf("must be non-negative"))
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return NewValidationError("queue", "", ErrMissingRequiredField)
	}
	if q.AIWorkerCount < 1 || q.AIWorkerCount > 50 {
		return NewValidationError("queue", "ai_worker_count", fmt.Errorf("must be between 1 and 50, got %d", q.AIWorkerCount))
	}
	if q.AIQueueCapacity < 1 {
		return NewValidationError("queue", "ai_queue_capacity", fmt.Errorf("must be at least 1"))
	}
	if q.JobTimeout <= 0 {
		return NewValidationError("queue", "job_timeout", fmt.Errorf("must be positive"))
	}
	if q.GracefulShutdownTimeout <= 0 {
		return NewValidationError("queue", "graceful_shutdown_timeout", fmt.Errorf("must be positive"))
	}
	return nil
}

func (v *Validator) validateAuth() error {
	a := v.cfg.Auth
	if a == nil {
		return NewValidationError("auth", "", ErrMissingRequiredField)
	}
	if a.JWTSecretEnv == "" {
		return NewValidationError("auth", "jwt_secret_env", ErrMissingRequiredField)
	}
	if os.Getenv(a.JWTSecretEnv) == "" {
		return NewValidationError("auth", "jwt_secret_env", fmt.Errorf("environment variable %s is not set", a.JWTSecretEnv))
	}
	if a.AccessTokenTTL <= 0 {
		return NewValidationError("auth", "access_token_ttl", fmt.Errorf("must be positive"))
	}
	if a.RefreshTokenTTL <= a.AccessTokenTTL {
		return NewValidationError("auth", "refresh_token_ttl", fmt.Errorf("must exceed access_token_ttl"))
	}
	if a.Issuer == "" {
		return NewValidationError("auth", "issuer", ErrMissingRequiredField)
	}
	return nil
}

func (v *Validator) validateEventBus() error {
	e := v.cfg.EventBus
	if e == nil {
		return NewValidationError("event_bus", "", ErrMissingRequiredField)
	}
	if e.SubscriberQueueSize < 1 {
		return NewValidationError("event_bus", "subscriber_queue_size", fmt.Errorf("must be at least 1"))
	}
	return nil
}

func (v *Validator) validateRateLimit() error {
	r := v.cfg.RateLimit
	if r == nil {
		return NewValidationError("rate_limit", "", ErrMissingRequiredField)
	}
	if r.MaxSessionsPerAnalyst < 1 {
		return NewValidationError("rate_limit", "max_sessions_per_analyst", fmt.Errorf("must be at least 1"))
	}
	if r.MaxSessionsPerAsset < 1 {
		return NewValidationError("rate_limit", "max_sessions_per_asset", fmt.Errorf("must be at least 1"))
	}
	if r.LockTTL <= 0 {
		return NewValidationError("rate_limit", "lock_ttl", fmt.Errorf("must be positive"))
	}
	return nil
}

func (v *Validator) validateGateway() error {
	g := v.cfg.Gateway
	if g == nil {
		return NewValidationError("gateway", "", ErrMissingRequiredField)
	}
	if g.Addr == "" {
		return NewValidationError("gateway", "addr", ErrMissingRequiredField)
	}
	if g.ReadTimeout <= 0 || g.WriteTimeout <= 0 {
		return NewValidationError("gateway", "read_timeout", fmt.Errorf("read_timeout and write_timeout must be positive"))
	}
	if g.ShutdownTimeout <= 0 {
		return NewValidationError("gateway", "shutdown_timeout", fmt.Errorf("must be positive"))
	}
	if g.WebSocketWriteTimeout <= 0 {
		return NewValidationError("gateway", "websocket_write_timeout", fmt.Errorf("must be positive"))
	}
	if g.TerminalInputBytesPerSec <= 0 {
		return NewValidationError("gateway", "terminal_input_bytes_per_sec", fmt.Errorf("must be positive"))
	}
	if g.TerminalInputBurstBytes <= 0 {
		return NewValidationError("gateway", "terminal_input_burst_bytes", fmt.Errorf("must be positive"))
	}
	return nil
}

func (v *Validator) validateEnrichment() error {
	e := v.cfg.Enrichment
	if e == nil {
		return nil
	}
	for i, d := range e.Drivers {
		if d.Name == "" {
			return NewValidationError("enrichment", fmt.Sprintf("drivers[%d].name", i), ErrMissingRequiredField)
		}
		switch d.Type {
		case "http", "static":
		default:
			return NewValidationError("enrichment", fmt.Sprintf("drivers[%d].type", i), fmt.Errorf("%w: %s", ErrInvalidValue, d.Type))
		}
		if d.Type == "http" && d.BaseURL == "" {
			return NewValidationError("enrichment", fmt.Sprintf("drivers[%d].base_url", i), fmt.Errorf("required for http driver"))
		}
	}
	return nil
}

func (v *Validator) validateNotify() error {
	n := v.cfg.Notify
	if n == nil || !n.Enabled {
		return nil
	}
	if n.ChannelID == "" {
		return NewValidationError("notify", "channel_id", fmt.Errorf("required when notify is enabled"))
	}
	if n.TokenEnv == "" {
		return NewValidationError("notify", "token_env", fmt.Errorf("required when notify is enabled"))
	}
	if os.Getenv(n.TokenEnv) == "" {
		return NewValidationError("notify", "token_env", fmt.Errorf("environment variable %s is not set", n.TokenEnv))
	}
	return nil
}

func (v *Validator) validateExternal() error {
	e := v.cfg.External
	if e == nil {
		return NewValidationError("external", "", ErrMissingRequiredField)
	}
	switch e.Backend {
	case string(ExternalBackendLocal), string(ExternalBackendGRPC):
	default:
		return NewValidationError("external", "backend", fmt.Errorf("%w: %s", ErrInvalidValue, e.Backend))
	}
	if e.Backend == string(ExternalBackendGRPC) && e.GRPCTarget == "" {
		return NewValidationError("external", "grpc_target", fmt.Errorf("required when backend is grpc"))
	}
	return nil
}

func (v *Validator) validateRetention() error {
	r := v.cfg.Retention
	if r == nil {
		return NewValidationError("retention", "", ErrMissingRequiredField)
	}
	if r.SessionRetentionDays < 1 {
		return NewValidationError("retention", "session_retention_days", fmt.Errorf("must be at least 1"))
	}
	if r.TimelineRetentionDays < 1 {
		return NewValidationError("retention", "timeline_retention_days", fmt.Errorf("must be at least 1"))
	}
	if r.CleanupInterval <= 0 {
		return NewValidationError("retention", "cleanup_interval", fmt.Errorf("must be positive"))
	}
	return nil
}

func (v *Validator) validateDefaults() error {
	d := v.cfg.Defaults
	if d == nil {
		return NewValidationError("defaults", "", ErrMissingRequiredField)
	}
	if d.StepTimeoutSeconds < 1 {
		return NewValidationError("defaults", "step_timeout_seconds", fmt.Errorf("must be at least 1"))
	}
	if d.HuntConcurrencyPerSession < 1 {
		return NewValidationError("defaults", "hunt_concurrency_per_session", fmt.Errorf("must be at least 1"))
	}
	if d.OutputMasking != nil && d.OutputMasking.Enabled && d.OutputMasking.PatternGroup == "" {
		return NewValidationError("defaults", "output_masking.pattern_group", fmt.Errorf("required when output masking is enabled"))
	}
	return nil
}
