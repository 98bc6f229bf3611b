// Package sessionrt implements the Session Runtime (C3): a single-writer
// actor per live Session enforcing the state machine in spec §4.3 and
// gating whether the underlying SSH channel carries interactive PTY bytes
// or hunt-module command execution.
package sessionrt

import "time"

// State is one of the closed set of Session states from spec §4.3, mirroring
// ent/schema/session.go's "state" enum.
type State string

const (
	StateInitializing State = "initializing"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateRunning      State = "running"
	StatePaused       State = "paused"
	StateLocked       State = "locked"
	StateDisconnected State = "disconnected"
	StateFailed       State = "failed"
	StateTerminated   State = "terminated"
)

// Terminal reports whether s is one of the end states (disconnected,
// failed, terminated): close is rejected from them and the owner records
// its termination time on entering one. Disconnected still accepts
// ssh.connected (reconnect) and retry_exhausted.
func (s State) Terminal() bool {
	switch s {
	case StateDisconnected, StateFailed, StateTerminated:
		return true
	}
	return false
}

// Mode selects what the SSH channel is used for, mirroring the "mode" enum
// on ent/schema/session.go.
type Mode string

const (
	ModeAI          Mode = "ai"
	ModeInteractive Mode = "interactive"
)

// Descriptor is the immutable identity of a Session, fixed at creation.
type Descriptor struct {
	SessionID string
	AssetID   string
	AnalystID string
}

// Snapshot is a read-only, point-in-time view of a Session's runtime state,
// safe to hand to callers outside the owner goroutine (spec §4.3: "the
// owner goroutine, not any external reader, is authoritative").
type Snapshot struct {
	Descriptor
	Mode         Mode
	State        State
	LockedBy     string
	CreatedAt    time.Time
	TerminatedAt time.Time
}
