// Package events implements the typed, in-process pub/sub Event Bus (C1):
// a closed set of event kinds fanned out to room-scoped subscribers with
// bounded per-subscriber queues and drop-oldest backpressure.
package events

import "time"

// Type is a closed-set event kind. Every event published on the bus carries
// exactly one Type; there is no open/free-form event namespace.
type Type string

const (
	// Session lifecycle (spec §4.1, §4.3).
	TypeSessionCreated     Type = "session.created"
	TypeSessionStateChange Type = "session.state_changed"
	TypeSessionModeChanged Type = "session.mode_changed"
	TypeSessionLocked      Type = "session.locked"
	TypeSessionUnlocked    Type = "session.unlocked"
	TypeSessionTerminated  Type = "session.terminated"

	// SSH Connector (spec §4.2).
	TypeSSHConnecting       Type = "ssh.connecting"
	TypeSSHConnected        Type = "ssh.connected"
	TypeSSHDisconnected     Type = "ssh.disconnected"
	TypeSSHError            Type = "ssh.error"
	TypeSSHCommandStarted   Type = "ssh.command_started"
	TypeSSHCommandOutput    Type = "ssh.command_output"
	TypeSSHCommandCompleted Type = "ssh.command_completed"

	// Interactive terminal (spec §4.2).
	TypeTerminalStarted Type = "terminal.started"
	TypeTerminalData    Type = "terminal.data"
	TypeTerminalResize  Type = "terminal.resize"
	TypeTerminalClosed  Type = "terminal.closed"

	// Hunt Scheduler (spec §4.4).
	TypeHuntStarted        Type = "hunt.started"
	TypeHuntStepStarted    Type = "hunt.step_started"
	TypeHuntObservation    Type = "hunt.observation"
	TypeHuntStepCompleted  Type = "hunt.step_completed"
	TypeHuntCompleted      Type = "hunt.completed"
	TypeHuntFailed         Type = "hunt.failed"
	TypeHuntCancelled      Type = "hunt.cancelled"

	// AI Pipeline (spec §4.5).
	TypeAIReasoningStarted   Type = "ai.reasoning_started"
	TypeAIReasoningChunk     Type = "ai.reasoning_chunk"
	TypeAIReasoningCompleted Type = "ai.reasoning_completed"
	TypeAIFindingGenerated   Type = "ai.finding_generated"
	TypeAIError              Type = "ai.error"

	// Intelligence Store (spec §4.6).
	TypeTimelineEventRecorded Type = "timeline.event_recorded"

	// System / bus-internal.
	TypeSystemError        Type = "system.error"
	TypeSystemBackpressure Type = "system.backpressure"
)

// Event is the envelope published through the bus. Payload is one of the
// kind-specific structs in payloads.go, matched on Type by the consumer.
type Event struct {
	Type      Type      `json:"event_type"`
	Monotonic int64     `json:"-"`
	Wall      time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}

// GlobalRoom is the room every subscriber interested in cross-session system
// events (backpressure, fatal errors) should join.
const GlobalRoom = "global"

// SessionRoom returns the room name scoping events to one Session.
func SessionRoom(sessionID string) string {
	return "session:" + sessionID
}

// AssetRoom returns the room name scoping events to one Asset (used by the
// asset-level timeline view, which outlives any single session).
func AssetRoom(assetID string) string {
	return "asset:" + assetID
}

// ClientMessage is the JSON structure for client -> server WebSocket frames
// (spec §4.7): join_session, leave_session, terminal_input, terminal_resize,
// toggle_mode.
type ClientMessage struct {
	Action    string `json:"action"`
	SessionID string `json:"session_id,omitempty"`
	Data      string `json:"data,omitempty"`   // base64 payload for terminal_input
	Cols      int    `json:"cols,omitempty"`    // terminal_resize
	Rows      int    `json:"rows,omitempty"`    // terminal_resize
	Mode      string `json:"mode,omitempty"`    // toggle_mode: "ai" | "interactive"
}
