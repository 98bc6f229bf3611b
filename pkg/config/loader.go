package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// HuntbayYAMLConfig represents the complete huntbay.yaml file structure. Every
// section is optional in YAML; anything left unset is filled from the
// matching DefaultXConfig before validation runs.
type HuntbayYAMLConfig struct {
	Defaults   *Defaults          `yaml:"defaults"`
	SSH        *SSHConfig         `yaml:"ssh"`
	AI         *AIConfig          `yaml:"ai"`
	Queue      *QueueConfig       `yaml:"queue"`
	Retention  *RetentionConfig   `yaml:"retention"`
	Auth       *AuthConfig        `yaml:"auth"`
	EventBus   *EventBusConfig    `yaml:"event_bus"`
	RateLimit  *RateLimitConfig   `yaml:"rate_limit"`
	Gateway    *GatewayConfig     `yaml:"gateway"`
	Enrichment *EnrichmentConfig  `yaml:"enrichment"`
	Notify     *NotifyConfig      `yaml:"notify"`
	External   *ExternalConfig    `yaml:"external"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load huntbay.yaml from configDir, expanding environment variables
//  2. Merge user-defined sections on top of built-in defaults
//  3. Validate the fully-resolved configuration
//  4. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"ai_provider", stats.AIProvider,
		"hunt_concurrency", stats.HuntConcurrency,
		"enrichment_drivers", stats.EnrichmentDrivers)

	return cfg, nil
}

// load is the internal loader (not exported).
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadHuntbayYAML()
	if err != nil {
		return nil, NewLoadError("huntbay.yaml", err)
	}

	defaults, err := mergeInto(DefaultDefaults(), yamlCfg.Defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to merge defaults: %w", err)
	}
	ssh, err := mergeInto(DefaultSSHConfig(), yamlCfg.SSH)
	if err != nil {
		return nil, fmt.Errorf("failed to merge ssh config: %w", err)
	}
	ai, err := mergeInto(DefaultAIConfig(), yamlCfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to merge ai config: %w", err)
	}
	queue, err := mergeInto(DefaultQueueConfig(), yamlCfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("failed to merge queue config: %w", err)
	}
	retention, err := mergeInto(DefaultRetentionConfig(), yamlCfg.Retention)
	if err != nil {
		return nil, fmt.Errorf("failed to merge retention config: %w", err)
	}
	auth, err := mergeInto(DefaultAuthConfig(), yamlCfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to merge auth config: %w", err)
	}
	eventBus, err := mergeInto(DefaultEventBusConfig(), yamlCfg.EventBus)
	if err != nil {
		return nil, fmt.Errorf("failed to merge event_bus config: %w", err)
	}
	rateLimit, err := mergeInto(DefaultRateLimitConfig(), yamlCfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to merge rate_limit config: %w", err)
	}
	gateway, err := mergeInto(DefaultGatewayConfig(), yamlCfg.Gateway)
	if err != nil {
		return nil, fmt.Errorf("failed to merge gateway config: %w", err)
	}
	enrichment, err := mergeInto(DefaultEnrichmentConfig(), yamlCfg.Enrichment)
	if err != nil {
		return nil, fmt.Errorf("failed to merge enrichment config: %w", err)
	}
	notify, err := mergeInto(DefaultNotifyConfig(), yamlCfg.Notify)
	if err != nil {
		return nil, fmt.Errorf("failed to merge notify config: %w", err)
	}
	external, err := mergeInto(DefaultExternalConfig(), yamlCfg.External)
	if err != nil {
		return nil, fmt.Errorf("failed to merge external config: %w", err)
	}

	return &Config{
		configDir:  configDir,
		Defaults:   defaults,
		SSH:        ssh,
		AI:         ai,
		Queue:      queue,
		Retention:  retention,
		Auth:       auth,
		EventBus:   eventBus,
		RateLimit:  rateLimit,
		Gateway:    gateway,
		Enrichment: enrichment,
		Notify:     notify,
		External:   external,
	}, nil
}

// mergeInto merges a user-provided section on top of its built-in default,
// with non-zero user fields taking precedence. A nil user section leaves
// the default untouched.
func mergeInto[T any](base *T, override *T) (*T, error) {
	if override == nil {
		return base, nil
	}
	if err := mergo.Merge(base, override, mergo.WithOverride); err != nil {
		return nil, err
	}
	return base, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand $VAR / ${VAR} references before parsing so secrets never live
	// in the YAML file itself.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadHuntbayYAML() (*HuntbayYAMLConfig, error) {
	var cfg HuntbayYAMLConfig
	if err := l.loadYAML("huntbay.yaml", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
