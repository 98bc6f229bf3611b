package events

// SessionStatePayload is the payload for session.created, session.state_changed,
// session.locked, session.unlocked and session.terminated.
type SessionStatePayload struct {
	SessionID string `json:"session_id"`
	AssetID   string `json:"asset_id"`
	State     string `json:"state"`
	Reason    string `json:"reason,omitempty"`
	LockedBy  string `json:"locked_by,omitempty"`
}

// SessionModeChangedPayload is the payload for session.mode_changed.
type SessionModeChangedPayload struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"` // "ai" | "interactive"
}

// SSHStatusPayload is the payload for ssh.connecting, ssh.connected,
// ssh.disconnected and ssh.error.
type SSHStatusPayload struct {
	SessionID string `json:"session_id"`
	AssetID   string `json:"asset_id"`
	Message   string `json:"message,omitempty"`
}

// SSHCommandPayload is the payload for ssh.command_started, ssh.command_output
// and ssh.command_completed, emitted for both interactive and hunt-driven
// command execution.
type SSHCommandPayload struct {
	SessionID  string `json:"session_id"`
	HuntID     string `json:"hunt_id,omitempty"`
	Command    string `json:"command,omitempty"`
	Chunk      string `json:"chunk,omitempty"` // base64, present on command_output
	ExitCode   *int   `json:"exit_code,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// TerminalDataPayload is the payload for terminal.started, terminal.data,
// terminal.resize and terminal.closed.
type TerminalDataPayload struct {
	SessionID string `json:"session_id"`
	Data      string `json:"data,omitempty"` // base64
	Cols      int    `json:"cols,omitempty"`
	Rows      int    `json:"rows,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// HuntLifecyclePayload is the payload for hunt.started, hunt.completed,
// hunt.failed and hunt.cancelled.
type HuntLifecyclePayload struct {
	SessionID     string `json:"session_id"`
	HuntID        string `json:"hunt_id"`
	ModuleID      string `json:"module_id"`
	RunAI         bool   `json:"run_ai"`
	FindingsCount int    `json:"findings_count,omitempty"`
	Error         string `json:"error,omitempty"`
}

// HuntStepPayload is the payload for hunt.step_started and hunt.step_completed.
type HuntStepPayload struct {
	SessionID string `json:"session_id"`
	HuntID    string `json:"hunt_id"`
	StepIndex int    `json:"step_index"`
	Command   string `json:"command"`
	ExitCode  *int   `json:"exit_code,omitempty"`
}

// HuntObservationPayload is the payload for hunt.observation: the captured
// stdout/stderr of one completed step, before any AI interpretation.
type HuntObservationPayload struct {
	SessionID string `json:"session_id"`
	HuntID    string `json:"hunt_id"`
	StepIndex int    `json:"step_index"`
	Stdout    string `json:"stdout,omitempty"`
	Stderr    string `json:"stderr,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// AIReasoningPayload is the payload for ai.reasoning_started, ai.reasoning_chunk
// and ai.reasoning_completed.
type AIReasoningPayload struct {
	SessionID string `json:"session_id"`
	HuntID    string `json:"hunt_id"`
	Provider  string `json:"provider,omitempty"`
	State     string `json:"state,omitempty"` // analyzing | concluding | generating, chunk events only
	Delta     string `json:"delta,omitempty"` // incremental report text, streaming only
	Summary   string `json:"summary,omitempty"`
}

// AIErrorPayload is the payload for ai.error.
type AIErrorPayload struct {
	SessionID string `json:"session_id"`
	HuntID    string `json:"hunt_id"`
	Provider  string `json:"provider,omitempty"`
	Message   string `json:"message"`
}

// AIFindingGeneratedPayload is the payload for ai.finding_generated.
type AIFindingGeneratedPayload struct {
	SessionID   string  `json:"session_id"`
	HuntID      string  `json:"hunt_id,omitempty"`
	FindingID   string  `json:"finding_id"`
	AssetID     string  `json:"asset_id"`
	Title       string  `json:"title"`
	Severity    string  `json:"severity"`
	Confidence  float64 `json:"confidence"`
	Fingerprint string  `json:"fingerprint"`
	NewSighting bool    `json:"new_sighting"`
}

// TimelineEventRecordedPayload is the payload for timeline.event_recorded,
// mirroring a row appended to the asset timeline (C6).
type TimelineEventRecordedPayload struct {
	EventID   string `json:"event_id"`
	AssetID   string `json:"asset_id"`
	EventType string `json:"event_type"`
	AnalystID string `json:"analyst_id,omitempty"`
}

// SystemErrorPayload is the payload for system.error: a fatal or
// component-level error not tied to any single session (spec §5:
// "published as system.error{severity: \"fatal\"}" for an uncaught panic).
type SystemErrorPayload struct {
	Component string `json:"component"`
	Message   string `json:"message"`
	Severity  string `json:"severity"` // info | low | medium | high | critical | fatal
}

// SystemBackpressurePayload is the payload for system.backpressure, published
// to the global room when a subscriber of Room had queued events dropped; a
// room emits at most one per backpressureInterval.
type SystemBackpressurePayload struct {
	Room    string `json:"room"`
	Dropped int    `json:"dropped"`
}
