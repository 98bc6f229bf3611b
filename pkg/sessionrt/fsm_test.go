package sessionrt

import (
	"errors"
	"testing"
)

func TestHappyPathLifecycle(t *testing.T) {
	state := StateInitializing
	steps := []struct {
		trigger Trigger
		want    State
	}{
		{TriggerOpen, StateConnecting},
		{TriggerSSHConnected, StateConnected},
		{TriggerEnterMode, StateRunning},
		{TriggerLock, StateLocked},
		{TriggerUnlock, StateRunning},
		{TriggerPause, StatePaused},
		{TriggerResume, StateRunning},
		{TriggerClose, StateTerminated},
	}
	for _, step := range steps {
		next, err := Next(state, step.trigger)
		if err != nil {
			t.Fatalf("Next(%s, %s): unexpected error: %v", state, step.trigger, err)
		}
		if next != step.want {
			t.Fatalf("Next(%s, %s) = %s, want %s", state, step.trigger, next, step.want)
		}
		state = next
	}
}

func TestConnectFailureGoesToFailed(t *testing.T) {
	next, err := Next(StateConnecting, TriggerSSHError)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != StateFailed {
		t.Fatalf("got %s, want failed", next)
	}
}

func TestDisconnectRetryExhaustionFails(t *testing.T) {
	next, err := Next(StateDisconnected, TriggerRetryExhausted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != StateFailed {
		t.Fatalf("got %s, want failed", next)
	}
}

func TestDisconnectReconnectReturnsToConnecting(t *testing.T) {
	next, err := Next(StateDisconnected, TriggerSSHConnected)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != StateConnecting {
		t.Fatalf("got %s, want connecting", next)
	}
}

func TestCloseFromAnyNonTerminalState(t *testing.T) {
	for _, s := range []State{StateInitializing, StateConnecting, StateConnected, StateRunning, StatePaused, StateLocked} {
		next, err := Next(s, TriggerClose)
		if err != nil {
			t.Fatalf("Next(%s, close): unexpected error: %v", s, err)
		}
		if next != StateTerminated {
			t.Fatalf("Next(%s, close) = %s, want terminated", s, next)
		}
	}
}

func TestCloseFromTerminalStateIsRejected(t *testing.T) {
	for _, s := range []State{StateDisconnected, StateFailed, StateTerminated} {
		if _, err := Next(s, TriggerClose); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Next(%s, close): expected ErrInvalidTransition, got %v", s, err)
		}
	}
}

func TestUnknownTriggerRejected(t *testing.T) {
	if _, err := Next(StateRunning, TriggerOpen); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestUnlockOnlyValidFromLocked(t *testing.T) {
	if _, err := Next(StateRunning, TriggerUnlock); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
