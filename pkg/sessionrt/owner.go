package sessionrt

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sablecore/huntbay/pkg/events"
	"github.com/sablecore/huntbay/pkg/sshconn"
)

// SSHClient is the subset of *sshconn.Connector the owner goroutine drives.
// Declared as an interface so tests can substitute a fake without a live
// sshd, mirroring how pkg/mcp's client.go is exercised behind a narrow
// interface in its own test suite.
type SSHClient interface {
	Connect(ctx context.Context, target sshconn.Target, auth sshconn.AuthMethod) error
	Reconnect(ctx context.Context, target sshconn.Target, auth sshconn.AuthMethod) error
	OpenPTY(cols, rows int) (*sshconn.PTYHandle, error)
	Exec(ctx context.Context, commandID, cmd string, stdin io.Reader, timeout time.Duration, sudo sshconn.SudoPolicy) (sshconn.ExecResult, error)
	Close(reason string) error
	Connected() bool
}

// Owner is the single-writer actor for one Session: every state-affecting
// operation is funnelled through inbox and processed one at a time, per
// spec §4.3's single-writer invariant. Modelled on
// pkg/agent/orchestrator.SubAgentRunner's goroutine-plus-mutex-plus-done
// shape, collapsed to a single owned resource instead of a pool of them.
type Owner struct {
	desc   Descriptor
	target sshconn.Target
	auth   sshconn.AuthMethod

	ssh  SSHClient
	pub  *events.Publisher
	gate *writerGate

	inbox chan *command
	done  chan struct{}

	mu           sync.RWMutex
	state        State
	lockedBy     string
	created      time.Time
	terminatedAt time.Time
	final        Snapshot // populated once, right before done closes

	pty *sshconn.PTYHandle

	maxReconnectAttempts int
}

// NewOwner constructs an Owner in StateInitializing. Run must be called to
// start the actor goroutine.
func NewOwner(desc Descriptor, target sshconn.Target, auth sshconn.AuthMethod, ssh SSHClient, pub *events.Publisher, initialMode Mode, maxReconnectAttempts int) *Owner {
	return &Owner{
		desc:                 desc,
		target:               target,
		auth:                 auth,
		ssh:                  ssh,
		pub:                  pub,
		gate:                 newWriterGate(initialMode),
		inbox:                make(chan *command, 32),
		done:                 make(chan struct{}),
		state:                StateInitializing,
		created:              time.Now(),
		maxReconnectAttempts: maxReconnectAttempts,
	}
}

// Run drives the connect sequence and then the inbox loop until Close is
// processed or ctx is cancelled. Must be called exactly once, in its own
// goroutine.
func (o *Owner) Run(ctx context.Context) {
	defer func() {
		o.mu.Lock()
		o.final = o.snapshotNoLock()
		o.mu.Unlock()
		close(o.done)
	}()

	if !o.transition(TriggerOpen, "") {
		return
	}

	if err := o.ssh.Connect(ctx, o.target, o.auth); err != nil {
		slog.Warn("session connect failed", "session_id", o.desc.SessionID, "error", err)
		o.transition(TriggerSSHError, err.Error())
		return
	}
	o.transition(TriggerSSHConnected, "")

	o.loop(ctx)
}

func (o *Owner) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			o.shutdown("context cancelled")
			return
		case cmd := <-o.inbox:
			if terminal := o.handle(ctx, cmd); terminal {
				return
			}
		}
	}
}

// handle processes one inbox command and reports whether the Session has
// reached a terminal state (the caller should stop the loop).
func (o *Owner) handle(ctx context.Context, cmd *command) bool {
	switch cmd.kind {
	case cmdSnapshot:
		cmd.snapshot <- o.snapshotLocked()
		return false

	case cmdEnterMode:
		return o.handleEnterMode(cmd)

	case cmdLock:
		return o.handleLock(cmd)

	case cmdUnlock:
		return o.handleUnlock(cmd)

	case cmdPause:
		return o.handleSimpleTransition(cmd, TriggerPause)

	case cmdResume:
		return o.handleSimpleTransition(cmd, TriggerResume)

	case cmdClose:
		return o.handleClose(cmd, "analyst requested close")

	case cmdTerminalInput:
		o.handleTerminalInput(cmd)
		return false

	case cmdTerminalResize:
		o.handleTerminalResize(cmd)
		return false

	case cmdExecStep:
		o.handleExecStep(ctx, cmd)
		return false
	}
	cmd.respond(fmt.Errorf("sessionrt: unknown command kind %d", cmd.kind))
	return false
}

func (o *Owner) handleEnterMode(cmd *command) bool {
	if err := o.authorizeWriter(cmd.requestedBy); err != nil {
		cmd.respond(err)
		return false
	}

	o.mu.RLock()
	state := o.state
	o.mu.RUnlock()

	firstEntry := state == StateConnected
	if firstEntry {
		if !o.transition(TriggerEnterMode, "") {
			cmd.respond(ErrInvalidTransition)
			return false
		}
	}

	applied := o.gate.request(cmd.mode)
	if firstEntry {
		// The gate's initial mode already equals cmd.mode, so request()
		// reports no change — but this is still the session's first
		// activation and needs its PTY (or lack of one) set up.
		o.applyModeSideEffects(o.gate.mode())
	} else if applied {
		o.applyModeSideEffects(o.gate.mode())
		o.pub.PublishSessionModeChanged(events.SessionModeChangedPayload{
			SessionID: o.desc.SessionID,
			Mode:      string(o.gate.mode()),
		})
	}
	cmd.respond(nil)
	return false
}

// applyModeSideEffects opens or closes the interactive PTY as the gate
// moves, so an AI-mode hunt never shares a live shell with the analyst's
// terminal (spec §4.2: "PTY and Exec share the SSH client but distinct
// channels").
func (o *Owner) applyModeSideEffects(mode Mode) {
	switch mode {
	case ModeInteractive:
		if o.pty == nil {
			pty, err := o.ssh.OpenPTY(defaultPTYCols, defaultPTYRows)
			if err != nil {
				slog.Warn("open pty failed", "session_id", o.desc.SessionID, "error", err)
				return
			}
			o.pty = pty
		}
	case ModeAI:
		if o.pty != nil {
			_ = o.pty.Close("switched to ai mode")
			o.pty = nil
		}
	}
}

const (
	defaultPTYCols = 80
	defaultPTYRows = 24
)

func (o *Owner) handleLock(cmd *command) bool {
	if !o.transition(TriggerLock, "") {
		cmd.respond(ErrInvalidTransition)
		return false
	}
	o.mu.Lock()
	o.lockedBy = cmd.requestedBy
	o.mu.Unlock()
	o.pub.PublishSessionState(events.TypeSessionLocked, events.SessionStatePayload{
		SessionID: o.desc.SessionID,
		AssetID:   o.desc.AssetID,
		State:     string(StateLocked),
		LockedBy:  cmd.requestedBy,
	})
	cmd.respond(nil)
	return false
}

func (o *Owner) handleUnlock(cmd *command) bool {
	o.mu.RLock()
	lockedBy := o.lockedBy
	o.mu.RUnlock()

	if cmd.requestedBy != lockedBy {
		cmd.respond(ErrLocked)
		return false
	}
	if !o.transition(TriggerUnlock, "") {
		cmd.respond(ErrInvalidTransition)
		return false
	}
	o.mu.Lock()
	o.lockedBy = ""
	o.mu.Unlock()
	o.pub.PublishSessionState(events.TypeSessionUnlocked, events.SessionStatePayload{
		SessionID: o.desc.SessionID,
		AssetID:   o.desc.AssetID,
		State:     string(StateRunning),
	})
	cmd.respond(nil)
	return false
}

func (o *Owner) handleSimpleTransition(cmd *command, trigger Trigger) bool {
	if err := o.authorizeWriter(cmd.requestedBy); err != nil {
		cmd.respond(err)
		return false
	}
	if !o.transition(trigger, "") {
		cmd.respond(ErrInvalidTransition)
		return false
	}
	cmd.respond(nil)
	return false
}

func (o *Owner) handleClose(cmd *command, reason string) bool {
	o.shutdown(reason)
	cmd.respond(nil)
	return true
}

// handleExecStep runs one hunt command to completion. It holds the inbox
// (and therefore blocks every other request, including interactive input)
// for the duration, per spec §4.2's default PTY/Exec interlock — a hunt
// step and interactive typing never interleave on the same channel.
func (o *Owner) handleExecStep(ctx context.Context, cmd *command) {
	if o.gate.mode() != ModeAI {
		cmd.execResult <- execOutcome{err: fmt.Errorf("sessionrt: session is not in ai mode")}
		return
	}
	o.gate.enterStep()
	defer func() {
		applied, mode := o.gate.leaveStep()
		if applied {
			o.applyModeSideEffects(mode)
			o.pub.PublishSessionModeChanged(events.SessionModeChangedPayload{
				SessionID: o.desc.SessionID,
				Mode:      string(mode),
			})
		}
	}()

	result, err := o.ssh.Exec(ctx, cmd.commandID, cmd.execCmd, cmd.stdin, cmd.timeout, cmd.sudo)
	cmd.execResult <- execOutcome{result: result, err: err}
}

func (o *Owner) handleTerminalInput(cmd *command) {
	if err := o.authorizeWriter(cmd.requestedBy); err != nil {
		return
	}
	if o.gate.mode() != ModeInteractive || o.pty == nil {
		return
	}
	_, _ = o.pty.Write(cmd.termData)
}

func (o *Owner) handleTerminalResize(cmd *command) {
	if o.pty == nil {
		return
	}
	_ = o.pty.Resize(cmd.cols, cmd.rows)
}

// authorizeWriter enforces spec §4.3's lock semantics: while the session is
// locked, only the locker may issue writer commands.
func (o *Owner) authorizeWriter(requestedBy string) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.state == StateLocked && requestedBy != o.lockedBy {
		return ErrLocked
	}
	return nil
}

// transition applies trigger to the current state, publishes
// session.state_changed on success, and reports whether it succeeded.
func (o *Owner) transition(trigger Trigger, reason string) bool {
	o.mu.Lock()
	next, err := Next(o.state, trigger)
	if err != nil {
		o.mu.Unlock()
		return false
	}
	o.state = next
	if next.Terminal() {
		o.terminatedAt = time.Now()
	}
	o.mu.Unlock()

	typ := events.TypeSessionStateChange
	if next == StateTerminated {
		typ = events.TypeSessionTerminated
	}
	o.pub.PublishSessionState(typ, events.SessionStatePayload{
		SessionID: o.desc.SessionID,
		AssetID:   o.desc.AssetID,
		State:     string(next),
		Reason:    reason,
	})
	return true
}

func (o *Owner) shutdown(reason string) {
	if o.pty != nil {
		_ = o.pty.Close(reason)
	}
	_ = o.ssh.Close(reason)
	o.transition(TriggerClose, reason)
}

// snapshotLocked is called from within the owner goroutine while handling
// cmdSnapshot, where reading o.gate directly is safe (only this goroutine
// ever touches it); it still takes mu to serialize against concurrent
// Snapshot() reads of the mu-protected fields after Run exits.
func (o *Owner) snapshotLocked() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshotNoLock()
}

// snapshotNoLock assumes the caller already holds mu (or is the sole
// goroutine that can still be mutating these fields).
func (o *Owner) snapshotNoLock() Snapshot {
	return Snapshot{
		Descriptor:   o.desc,
		Mode:         o.gate.mode(),
		State:        o.state,
		LockedBy:     o.lockedBy,
		CreatedAt:    o.created,
		TerminatedAt: o.terminatedAt,
	}
}

// Done is closed once the owner goroutine has exited.
func (o *Owner) Done() <-chan struct{} {
	return o.done
}

// --- Public request API, each a thin wrapper over sendCommand ---

func (o *Owner) EnterMode(ctx context.Context, analystID string, mode Mode) error {
	return sendCommand(ctx, o.inbox, &command{kind: cmdEnterMode, reply: make(chan error, 1), requestedBy: analystID, mode: mode})
}

func (o *Owner) Lock(ctx context.Context, analystID string) error {
	return sendCommand(ctx, o.inbox, &command{kind: cmdLock, reply: make(chan error, 1), requestedBy: analystID})
}

func (o *Owner) Unlock(ctx context.Context, analystID string) error {
	return sendCommand(ctx, o.inbox, &command{kind: cmdUnlock, reply: make(chan error, 1), requestedBy: analystID})
}

func (o *Owner) Pause(ctx context.Context, analystID string) error {
	return sendCommand(ctx, o.inbox, &command{kind: cmdPause, reply: make(chan error, 1), requestedBy: analystID})
}

func (o *Owner) Resume(ctx context.Context, analystID string) error {
	return sendCommand(ctx, o.inbox, &command{kind: cmdResume, reply: make(chan error, 1), requestedBy: analystID})
}

func (o *Owner) Close(ctx context.Context, analystID string) error {
	return sendCommand(ctx, o.inbox, &command{kind: cmdClose, reply: make(chan error, 1), requestedBy: analystID})
}

// TerminalInput forwards raw keystrokes; fire-and-forget, no reply expected.
func (o *Owner) TerminalInput(ctx context.Context, analystID string, data []byte) error {
	return sendCommand(ctx, o.inbox, &command{kind: cmdTerminalInput, requestedBy: analystID, termData: data})
}

func (o *Owner) TerminalResize(ctx context.Context, cols, rows int) error {
	return sendCommand(ctx, o.inbox, &command{kind: cmdTerminalResize, cols: cols, rows: rows})
}

// ExecuteStep runs one hunt-module command to completion through the
// owner's single-writer inbox, interlocking it against interactive input
// and concurrent hunt steps alike. The session must already be in ai mode
// (see EnterMode).
func (o *Owner) ExecuteStep(ctx context.Context, commandID, cmdText string, stdin io.Reader, timeout time.Duration, sudo sshconn.SudoPolicy) (sshconn.ExecResult, error) {
	resultCh := make(chan execOutcome, 1)
	cmd := &command{
		kind:       cmdExecStep,
		commandID:  commandID,
		execCmd:    cmdText,
		stdin:      stdin,
		timeout:    timeout,
		sudo:       sudo,
		execResult: resultCh,
	}
	select {
	case o.inbox <- cmd:
	case <-ctx.Done():
		return sshconn.ExecResult{}, ctx.Err()
	}
	select {
	case outcome := <-resultCh:
		return outcome.result, outcome.err
	case <-ctx.Done():
		return sshconn.ExecResult{}, ctx.Err()
	}
}

// Snapshot returns a point-in-time view of the Session's state. Safe to
// call from any goroutine, including after the owner goroutine has exited
// (in which case it returns the final state recorded just before exit,
// rather than hanging forever waiting for a dead inbox to be drained).
func (o *Owner) Snapshot(ctx context.Context) (Snapshot, error) {
	select {
	case <-o.done:
		return o.finalSnapshot(), nil
	default:
	}

	ch := make(chan Snapshot, 1)
	select {
	case o.inbox <- &command{kind: cmdSnapshot, snapshot: ch}:
	case <-o.done:
		return o.finalSnapshot(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-ch:
		return s, nil
	case <-o.done:
		return o.finalSnapshot(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (o *Owner) finalSnapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.final
}
