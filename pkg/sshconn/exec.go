package sshconn

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/ssh"
)

// maxChunkBytes bounds each ssh.command_output event per spec §4.2
// ("stdout/stderr streamed in chunks no larger than 16 KiB").
const maxChunkBytes = 16 * 1024

// SudoPolicy controls whether and how a command is escalated.
type SudoPolicy struct {
	Enabled  bool
	Password string // piped to sudo -S when set; empty means passwordless sudo
}

// ExecResult is the outcome of a completed one-shot command.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Exec runs cmd to completion on a fresh SSH channel, independent of any
// open PTYHandle, and streams output as it arrives via ssh.command_output.
// commandID threads the same identifier through command_started,
// command_output and command_completed so subscribers can correlate chunks.
func (c *Connector) Exec(ctx context.Context, commandID, cmd string, stdin io.Reader, timeout time.Duration, sudo SudoPolicy) (ExecResult, error) {
	if c.client == nil {
		return ExecResult{}, ErrClosed
	}

	session, err := c.client.NewSession()
	if err != nil {
		return ExecResult{}, fmt.Errorf("sshconn: new session: %w", err)
	}
	defer session.Close()

	fullCmd := cmd
	if sudo.Enabled {
		fullCmd = "sudo -S -p '' " + cmd
	}

	stdinPipe, err := session.StdinPipe()
	if err != nil {
		return ExecResult{}, fmt.Errorf("sshconn: stdin pipe: %w", err)
	}
	stdoutPipe, err := session.StdoutPipe()
	if err != nil {
		return ExecResult{}, fmt.Errorf("sshconn: stdout pipe: %w", err)
	}
	stderrPipe, err := session.StderrPipe()
	if err != nil {
		return ExecResult{}, fmt.Errorf("sshconn: stderr pipe: %w", err)
	}

	c.notifier.SSHCommand("started", commandID, "", nil, 0)

	start := time.Now()
	if err := session.Start(fullCmd); err != nil {
		return ExecResult{}, fmt.Errorf("sshconn: start command: %w", err)
	}

	if sudo.Enabled && sudo.Password != "" {
		fmt.Fprintf(stdinPipe, "%s\n", sudo.Password)
	}
	if stdin != nil {
		go func() {
			io.Copy(stdinPipe, stdin)
			stdinPipe.Close()
		}()
	} else {
		stdinPipe.Close()
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	streamCh := make(chan error, 2)
	go streamChunked(commandID, stdoutPipe, &stdoutBuf, c.notifier, streamCh)
	go streamChunked(commandID, stderrPipe, &stderrBuf, c.notifier, streamCh)

	waitCh := make(chan error, 1)
	go func() { waitCh <- session.Wait() }()

	var waitErr error
	select {
	case <-ctx.Done():
		session.Close()
		waitErr = <-waitCh
	case waitErr = <-waitCh:
	case <-time.After(timeout):
		session.Close()
		waitErr = <-waitCh
	}
	<-streamCh
	<-streamCh

	duration := time.Since(start)
	exitCode := 0
	if waitErr != nil {
		if exitErr, ok := waitErr.(*ssh.ExitError); ok {
			exitCode = exitErr.ExitStatus()
		} else {
			exitCode = -1
		}
	}

	ec := exitCode
	c.notifier.SSHCommand("completed", commandID, "", &ec, duration.Milliseconds())

	return ExecResult{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode,
		Duration: duration,
	}, nil
}

// streamChunked copies r into buf while also emitting each chunk (base64,
// capped at maxChunkBytes) as an ssh.command_output event.
func streamChunked(commandID string, r io.Reader, buf *bytes.Buffer, notifier Notifier, done chan<- error) {
	chunk := make([]byte, maxChunkBytes)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			encoded := base64.StdEncoding.EncodeToString(chunk[:n])
			notifier.SSHCommand("output", commandID, encoded, nil, 0)
		}
		if err != nil {
			done <- nil
			return
		}
	}
}
