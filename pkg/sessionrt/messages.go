package sessionrt

import (
	"context"
	"io"
	"time"

	"github.com/sablecore/huntbay/pkg/sshconn"
)

// command is one FIFO inbox message processed by a Session's owner
// goroutine. External callers never touch Session state directly — spec
// §4.3's single-writer invariant is enforced by funnelling every request
// through this channel.
type command struct {
	kind  commandKind
	reply chan error

	requestedBy string // analyst ID issuing lock/unlock/close, for authorization

	mode Mode

	termData []byte
	cols     int
	rows     int

	sudo sshconn.SudoPolicy

	commandID string
	execCmd   string
	stdin     io.Reader
	timeout   time.Duration
	execResult chan execOutcome

	snapshot chan Snapshot
}

// execOutcome carries an Exec result or error back to the caller of
// ExecuteStep, since command.reply only ever carries an error.
type execOutcome struct {
	result sshconn.ExecResult
	err    error
}

type commandKind int

const (
	cmdEnterMode commandKind = iota
	cmdLock
	cmdUnlock
	cmdPause
	cmdResume
	cmdClose
	cmdTerminalInput
	cmdTerminalResize
	cmdExecStep
	cmdSnapshot
)

// respond sends a single error (possibly nil) back to the caller. Safe to
// call at most once per command; c.reply is nil for fire-and-forget
// commands (terminal input/resize), which skip this entirely.
func (c *command) respond(err error) {
	if c.reply != nil {
		c.reply <- err
	}
}

// sendCommand enqueues c on inbox and, if it expects a reply, waits for it —
// both legs bounded by ctx so a stuck owner goroutine cannot hang a caller
// forever.
func sendCommand(ctx context.Context, inbox chan<- *command, c *command) error {
	select {
	case inbox <- c:
	case <-ctx.Done():
		return ctx.Err()
	}
	if c.reply == nil {
		return nil
	}
	select {
	case err := <-c.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
