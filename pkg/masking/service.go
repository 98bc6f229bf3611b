// Package masking redacts secrets from captured hunt Observation output and
// AI Pipeline context before persistence or transmission to an AI Driver,
// adapted from the teacher's MCP-tool-result/alert masking service to this
// spec's Observation/context masking need.
package masking

import (
	"log/slog"

	"github.com/sablecore/huntbay/pkg/config"
)

// Service applies regex- and structure-based masking to command output.
// Created once at startup (singleton); thread-safe and stateless aside
// from compiled patterns.
type Service struct {
	enabled  bool
	patterns []*CompiledPattern
	maskers  []Masker
}

// NewService builds a Service from pkg/config's OutputMasking defaults.
// All patterns are compiled eagerly; invalid ones are logged and skipped.
func NewService(cfg *config.OutputMaskingDefaults) *Service {
	if cfg == nil {
		cfg = &config.OutputMaskingDefaults{}
	}

	compiled := compileBuiltinPatterns()
	groupName := cfg.PatternGroup
	if groupName == "" {
		groupName = "credentials"
	}

	s := &Service{
		enabled:  cfg.Enabled,
		patterns: resolveGroup(compiled, groupName),
		maskers:  []Masker{&PrivateKeyMasker{}},
	}

	slog.Info("masking service initialized",
		"enabled", s.enabled, "pattern_group", groupName, "patterns", len(s.patterns))

	return s
}

// MaskObservation redacts stdout/stderr captured from a hunt Step before
// the Observation is persisted or handed to BuildContext (spec §4.4 step
// 3c's capture path, §4.5 step 1's context build). Every Masker is
// defensive by contract (returns the original text rather than erroring),
// so this never blocks the hunt.
func (s *Service) MaskObservation(stdout, stderr string) (maskedStdout, maskedStderr string) {
	if !s.enabled {
		return stdout, stderr
	}
	return s.apply(stdout), s.apply(stderr)
}

// MaskText redacts an arbitrary string, used for the serialized AI context
// text before it's streamed to a Driver.
func (s *Service) MaskText(text string) string {
	if !s.enabled || text == "" {
		return text
	}
	return s.apply(text)
}

func (s *Service) apply(text string) string {
	if text == "" {
		return text
	}

	masked := text
	for _, m := range s.maskers {
		if m.AppliesTo(masked) {
			masked = m.Mask(masked)
		}
	}
	for _, p := range s.patterns {
		masked = p.Regex.ReplaceAllString(masked, p.Replacement)
	}
	return masked
}
