// Package sshconn owns the SSH client for one Session (C2): connect,
// interactive PTY, one-shot command execution, and reconnect-with-backoff.
package sshconn

import "errors"

// Sentinel errors returned by Connect, classified per spec §4.2 so the
// Session Runtime's state machine can react without string matching.
var (
	ErrAuthFailed      = errors.New("sshconn: authentication failed")
	ErrUnreachable     = errors.New("sshconn: host unreachable")
	ErrHostKeyMismatch = errors.New("sshconn: host key mismatch")
	ErrTimeout         = errors.New("sshconn: connect timeout")
	ErrClosed          = errors.New("sshconn: connection closed")
	ErrLocked          = errors.New("sshconn: channel locked by another operation")
)
