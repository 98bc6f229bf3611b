// Package ai implements the AI Pipeline (C5, spec §4.5): building a
// deterministic Context from a completed hunt's Observations, streaming a
// Driver's report, and extracting structured Findings from it.
package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sablecore/huntbay/pkg/hunt"
	"github.com/sablecore/huntbay/pkg/huntmodule"
)

// Budget sizes the Context serialization (spec §4.5 step 1: "8 KiB default
// per-step budget... 64 KiB default global context budget").
type Budget struct {
	PerStepBytes int
	TotalBytes   int
}

// DefaultBudget mirrors the spec's literal defaults.
var DefaultBudget = Budget{PerStepBytes: 8 * 1024, TotalBytes: 64 * 1024}

// stepContext is one Step's contribution to the serialized Context.
type stepContext struct {
	index       int
	description string
	command     string
	stdout      string
	stderr      string
	exit        string
}

// BuildContext deterministically serializes module metadata and each
// step's {description, command, truncated stdout/stderr, exit} into the
// text handed to a Driver's StreamReport (spec §4.5 step 1). Per-step
// output is clipped to budget.PerStepBytes, then — if the whole
// serialization still exceeds budget.TotalBytes — the largest remaining
// steps are trimmed first (LIFO: most recently added, i.e. highest
// index, trimmed before earlier ones at equal size) until it fits.
func BuildContext(module *huntmodule.Module, observations []hunt.Observation, budget Budget) string {
	steps := make([]stepContext, 0, len(observations))
	for _, obs := range observations {
		steps = append(steps, stepContext{
			index:       obs.StepIndex,
			description: stepDescription(module, obs.StepIndex),
			command:     obs.Command,
			stdout:      clip(obs.Stdout, budget.PerStepBytes),
			stderr:      clip(obs.Stderr, budget.PerStepBytes),
			exit:        exitLabel(obs),
		})
	}

	trimForBudget(&steps, budget.TotalBytes, moduleHeaderLen(module))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("module: %s (%s)\n", module.ID, module.Name))
	if module.Description != "" {
		sb.WriteString(fmt.Sprintf("description: %s\n", module.Description))
	}
	sb.WriteString(fmt.Sprintf("severity_hint: %s\n\n", module.SeverityHint))

	for _, s := range steps {
		sb.WriteString(fmt.Sprintf("--- step %d: %s ---\n", s.index, s.description))
		sb.WriteString(fmt.Sprintf("$ %s\n", s.command))
		sb.WriteString(fmt.Sprintf("exit: %s\n", s.exit))
		if s.stdout != "" {
			sb.WriteString("stdout:\n" + s.stdout + "\n")
		}
		if s.stderr != "" {
			sb.WriteString("stderr:\n" + s.stderr + "\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func stepDescription(module *huntmodule.Module, index int) string {
	if index >= 0 && index < len(module.Steps) {
		return module.Steps[index].Description
	}
	return ""
}

func exitLabel(obs hunt.Observation) string {
	switch {
	case obs.Skipped != "":
		return "skipped:" + obs.Skipped
	case obs.Timeout:
		return "timeout"
	case obs.ExitCode != nil:
		return fmt.Sprintf("%d", *obs.ExitCode)
	default:
		return "unknown"
	}
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n...(truncated)"
}

func moduleHeaderLen(module *huntmodule.Module) int {
	return len(module.ID) + len(module.Name) + len(module.Description) + 64
}

// trimForBudget drops the largest steps first — by wall size, breaking
// ties toward the highest index (LIFO: the most recently produced step is
// trimmed before an earlier, equally-sized one) — until the serialized
// total fits within totalBytes.
func trimForBudget(steps *[]stepContext, totalBytes, headerLen int) {
	total := func() int {
		n := headerLen
		for _, s := range *steps {
			n += len(s.stdout) + len(s.stderr) + len(s.command) + len(s.description) + 64
		}
		return n
	}

	for total() > totalBytes && len(*steps) > 0 {
		sorted := append([]stepContext{}, (*steps)...)
		sort.Slice(sorted, func(i, j int) bool {
			sizeI := len(sorted[i].stdout) + len(sorted[i].stderr)
			sizeJ := len(sorted[j].stdout) + len(sorted[j].stderr)
			if sizeI != sizeJ {
				return sizeI > sizeJ
			}
			return sorted[i].index > sorted[j].index
		})
		victim := sorted[0].index
		kept := (*steps)[:0]
		for _, s := range *steps {
			if s.index != victim {
				kept = append(kept, s)
			}
		}
		*steps = kept
	}
}

// Summary returns the first n characters of text, for
// ai.reasoning_started's context summary (spec §4.5 step 2: "first 256
// chars").
func Summary(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n]
}
