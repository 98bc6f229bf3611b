package sessionrt

import "fmt"

// Trigger is the closed set of events that can move a Session between
// states, named after the spec §4.3 transition table.
type Trigger string

const (
	TriggerOpen            Trigger = "open"
	TriggerSSHConnected    Trigger = "ssh.connected"
	TriggerSSHError        Trigger = "ssh.error"
	TriggerEnterMode       Trigger = "enter_mode"
	TriggerLock            Trigger = "lock"
	TriggerUnlock          Trigger = "unlock"
	TriggerPause           Trigger = "pause"
	TriggerResume          Trigger = "resume"
	TriggerSSHDisconnected Trigger = "ssh.disconnected"
	TriggerClose           Trigger = "close"
	TriggerRetryExhausted  Trigger = "retry_exhausted"
)

// ErrInvalidTransition is returned when a trigger does not apply to the
// current state.
var ErrInvalidTransition = fmt.Errorf("sessionrt: invalid transition")

// ErrLocked is returned when a writer other than the locker attempts an
// operation while the session is in StateLocked.
var ErrLocked = fmt.Errorf("sessionrt: session is locked by another analyst")

// transitions encodes spec §4.3's table literally. Each entry maps a
// (state, trigger) pair to the resulting state; close, whose target is
// Terminated from every non-terminal state, is resolved in Next rather
// than listed here.
var transitions = map[State]map[Trigger]State{
	StateInitializing: {
		TriggerOpen: StateConnecting,
	},
	StateConnecting: {
		TriggerSSHConnected: StateConnected,
		TriggerSSHError:     StateFailed,
	},
	StateConnected: {
		TriggerEnterMode: StateRunning,
	},
	StateRunning: {
		TriggerLock:            StateLocked,
		TriggerPause:           StatePaused,
		TriggerSSHDisconnected: StateDisconnected,
	},
	StateLocked: {
		TriggerUnlock: StateRunning,
	},
	StatePaused: {
		TriggerResume: StateRunning,
	},
	StateDisconnected: {
		TriggerSSHConnected:   StateConnecting,
		TriggerRetryExhausted: StateFailed,
	},
}

// Next resolves the state that (state, trigger) leads to. "close" is valid
// from any non-terminal state and is handled outside the table since its
// target (Terminated) is the same regardless of origin.
func Next(state State, trigger Trigger) (State, error) {
	if trigger == TriggerClose {
		if state.Terminal() {
			return state, fmt.Errorf("%w: %s is already terminal", ErrInvalidTransition, state)
		}
		return StateTerminated, nil
	}

	byTrigger, ok := transitions[state]
	if !ok {
		return state, fmt.Errorf("%w: %s has no outgoing transitions", ErrInvalidTransition, state)
	}
	next, ok := byTrigger[trigger]
	if !ok {
		return state, fmt.Errorf("%w: %s does not accept %s", ErrInvalidTransition, state, trigger)
	}
	return next, nil
}
