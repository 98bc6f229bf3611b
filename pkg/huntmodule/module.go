// Package huntmodule parses, stores, and caches HuntModules: the static,
// versioned specs for an ordered sequence of shell Steps that the Hunt
// Scheduler (pkg/hunt) executes against a Session (spec §3, §4.4, §6).
package huntmodule

import "fmt"

// Step is one shell command in a HuntModule's ordered sequence (spec §3).
type Step struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Command       string `json:"command"`
	TimeoutSec    int    `json:"timeout_seconds"`
	RequiresSudo  bool   `json:"requires_sudo"`
}

// DefaultStepTimeoutSec is used when a step's markdown section omits
// timeout_seconds (spec §3).
const DefaultStepTimeoutSec = 30

// SeverityHint mirrors the ent/schema/huntmodule.go severity_hint enum.
type SeverityHint string

// Severity hint values, ordered most to least severe.
const (
	SeverityCritical SeverityHint = "critical"
	SeverityHigh     SeverityHint = "high"
	SeverityMedium   SeverityHint = "medium"
	SeverityLow      SeverityHint = "low"
	SeverityInfo     SeverityHint = "info"
)

var validSeverities = map[SeverityHint]bool{
	SeverityCritical: true, SeverityHigh: true, SeverityMedium: true,
	SeverityLow: true, SeverityInfo: true,
}

// OSType mirrors the Asset OS tag set a module's os_types subset draws from.
type OSType string

// OS tag values (spec §3).
const (
	OSLinux   OSType = "linux"
	OSWindows OSType = "windows"
	OSMacOS   OSType = "macos"
	OSUnknown OSType = "unknown"
)

var validOSTypes = map[OSType]bool{
	OSLinux: true, OSWindows: true, OSMacOS: true, OSUnknown: true,
}

// Module is the parsed, in-memory representation of a HuntModule: its
// front-matter metadata plus ordered Steps, with the raw markdown source
// retained so the Gateway's CRUD surface can round-trip the original
// document unchanged (ent/schema/huntmodule.go's raw_source field).
type Module struct {
	ID           string
	Name         string
	Description  string
	OSTypes      []OSType
	Tags         []string
	SeverityHint SeverityHint
	Steps        []Step
	RawSource    string
}

// SupportsOS reports whether os is in the module's os_types set, used by
// the Hunt Scheduler's fast-fail IncompatibleOS check (spec §4.4 step 1).
func (m *Module) SupportsOS(os OSType) bool {
	for _, t := range m.OSTypes {
		if t == os {
			return true
		}
	}
	return false
}

// Validate checks the invariants spec §4.4's "hunt module validation"
// non-goal-adjacent note requires before a Module is accepted into the
// store: no duplicate step ids, at least one step, a recognized severity
// hint, and a non-empty os_types subset of the known OS tag set.
func (m *Module) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("huntmodule: id is required")
	}
	if m.Name == "" {
		return fmt.Errorf("huntmodule: name is required")
	}
	if len(m.Steps) == 0 {
		return fmt.Errorf("huntmodule %s: must declare at least one step", m.ID)
	}
	if len(m.OSTypes) == 0 {
		return fmt.Errorf("huntmodule %s: os_types must not be empty", m.ID)
	}
	for _, t := range m.OSTypes {
		if !validOSTypes[t] {
			return fmt.Errorf("huntmodule %s: unknown os_type %q", m.ID, t)
		}
	}
	if m.SeverityHint == "" {
		m.SeverityHint = SeverityInfo
	}
	if !validSeverities[m.SeverityHint] {
		return fmt.Errorf("huntmodule %s: unknown severity_hint %q", m.ID, m.SeverityHint)
	}
	seen := make(map[string]bool, len(m.Steps))
	for i, s := range m.Steps {
		if s.ID == "" {
			return fmt.Errorf("huntmodule %s: step %d missing id", m.ID, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("huntmodule %s: duplicate step id %q", m.ID, s.ID)
		}
		seen[s.ID] = true
		if s.Command == "" {
			return fmt.Errorf("huntmodule %s: step %q missing command", m.ID, s.ID)
		}
	}
	return nil
}
