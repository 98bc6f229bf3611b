package sshconn

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/ssh"
)

// PTYHandle is an interactive shell opened over the Connector's client. The
// caller (pkg/sessionrt's writer gate) owns the decision of when bytes are
// allowed to reach Write; PTYHandle itself only multiplexes the underlying
// ssh.Session's stdin/stdout/stderr and emits terminal.data for everything
// that comes back, mirroring the input/output goroutine-pair idiom used for
// the browser terminal in ashureev-shsh-labs' WebSocketHandler.
type PTYHandle struct {
	session *ssh.Session
	stdin   io.WriteCloser
	notifier Notifier

	closeOnce sync.Once
	done      chan struct{}
}

// OpenPTY requests a pty on the client and starts an interactive shell. The
// returned handle streams stdout/stderr back as terminal.data until Close is
// called or the remote shell exits on its own.
func (c *Connector) OpenPTY(cols, rows int) (*PTYHandle, error) {
	if c.client == nil {
		return nil, ErrClosed
	}

	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("sshconn: new session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("xterm-256color", rows, cols, modes); err != nil {
		session.Close()
		return nil, fmt.Errorf("sshconn: request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("sshconn: stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("sshconn: stdout pipe: %w", err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("sshconn: stderr pipe: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("sshconn: shell: %w", err)
	}

	h := &PTYHandle{
		session:  session,
		stdin:    stdin,
		notifier: c.notifier,
		done:     make(chan struct{}),
	}

	h.notifier.TerminalData("started", nil, cols, rows, "")
	go h.pump(stdout)
	go h.pump(stderr)
	go h.awaitExit()

	return h, nil
}

// pump copies one of the session's output streams into terminal.data events
// until it hits EOF (remote closed) or the handle is closed.
func (h *PTYHandle) pump(r io.Reader) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			h.notifier.TerminalData("data", chunk, 0, 0, "")
		}
		if err != nil {
			return
		}
	}
}

func (h *PTYHandle) awaitExit() {
	_ = h.session.Wait()
	h.closeOnce.Do(func() {
		h.notifier.TerminalData("closed", nil, 0, 0, "remote shell exited")
	})
	close(h.done)
}

// Write sends raw keystrokes to the remote shell's stdin.
func (h *PTYHandle) Write(p []byte) (int, error) {
	return h.stdin.Write(p)
}

// Resize notifies the remote pty of a terminal size change.
func (h *PTYHandle) Resize(cols, rows int) error {
	if err := h.session.WindowChange(rows, cols); err != nil {
		return fmt.Errorf("sshconn: window change: %w", err)
	}
	h.notifier.TerminalData("resize", nil, cols, rows, "")
	return nil
}

// Done is closed once the remote shell has exited, whether by Close or on
// its own (e.g. the analyst typed "exit").
func (h *PTYHandle) Done() <-chan struct{} {
	return h.done
}

// Close terminates the interactive shell, emitting terminal.closed with
// reason once. Safe to call multiple times.
func (h *PTYHandle) Close(reason string) error {
	var err error
	h.closeOnce.Do(func() {
		err = h.session.Close()
		h.notifier.TerminalData("closed", nil, 0, 0, reason)
	})
	return err
}
