package sshconn

import (
	"context"
	"math/rand/v2"
	"time"
)

// reconnectDelays are the base backoff steps before each reconnect attempt,
// per spec §4.2: "one reconnect attempt with jittered backoff (250ms, 1s,
// 4s) before FAILED". Each step is jittered to a uniform value in
// [step/2, step), mirroring the jittered-window idiom used for MCP session
// recreation.
var reconnectDelays = []time.Duration{
	250 * time.Millisecond,
	1 * time.Second,
	4 * time.Second,
}

// Reconnect retries Connect against target/auth, waiting a jittered backoff
// before each attempt, up to len(reconnectDelays) attempts (or cfg's
// MaxReconnectAttempts, whichever is smaller). It returns the error from the
// final attempt if every attempt fails.
func (c *Connector) Reconnect(ctx context.Context, target Target, auth AuthMethod) error {
	attempts := len(reconnectDelays)
	if c.cfg.MaxReconnectAttempts > 0 && c.cfg.MaxReconnectAttempts < attempts {
		attempts = c.cfg.MaxReconnectAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		delay := jittered(reconnectDelays[i%len(reconnectDelays)])
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		c.notifier.SSHStatus("connecting", "reconnect attempt")
		if err := c.Connect(ctx, target, auth); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

// jittered returns a uniform value in [base/2, base), matching the
// uniform-jitter window tarsy's MCP client applies to its own reconnect
// backoff.
func jittered(base time.Duration) time.Duration {
	half := base / 2
	return half + time.Duration(rand.Int64N(int64(half)))
}
