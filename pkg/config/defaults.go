package config

// Defaults contains system-wide default configurations applied when a
// more specific component doesn't override them.
type Defaults struct {
	// StepTimeoutSeconds is used for a HuntModule Step that doesn't specify
	// its own timeout (spec: Step.timeout-seconds default 30).
	StepTimeoutSeconds int `yaml:"step_timeout_seconds,omitempty" validate:"omitempty,min=1"`

	// HuntConcurrencyPerSession caps simultaneous hunts on one session
	// (spec §4.4: per-session concurrency cap, default 1).
	HuntConcurrencyPerSession int `yaml:"hunt_concurrency_per_session,omitempty" validate:"omitempty,min=1"`

	// OutputMasking controls redaction of captured command output before
	// persistence and before it is handed to an AI Driver.
	OutputMasking *OutputMaskingDefaults `yaml:"output_masking,omitempty"`
}

// OutputMaskingDefaults holds secret-redaction settings applied to every
// captured Observation and AI context.
type OutputMaskingDefaults struct {
	Enabled      bool   `yaml:"enabled"`
	PatternGroup string `yaml:"pattern_group"`
}

// DefaultDefaults returns the built-in system-wide defaults.
func DefaultDefaults() *Defaults {
	return &Defaults{
		StepTimeoutSeconds:        30,
		HuntConcurrencyPerSession: 1,
		OutputMasking: &OutputMaskingDefaults{
			Enabled:      true,
			PatternGroup: "credentials",
		},
	}
}
