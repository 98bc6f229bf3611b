package sshconn

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/sablecore/huntbay/pkg/config"
)

// Target identifies the remote host to dial. Mirrors the fields the
// orchestrator persists on an Asset (ent/schema/asset.go), but sshconn has
// no dependency on ent — callers translate.
type Target struct {
	Host string
	Port int
}

// AuthMethod is a closed set mirroring ent/schema/credential.go's auth_type
// enum: exactly one of Password or PrivateKeyPEM is set.
type AuthMethod struct {
	Username      string
	Password      string
	PrivateKeyPEM []byte
	Passphrase    string
}

// Notifier is the narrow event-emission surface sshconn depends on. Callers
// normally pass an adapter over *events.Publisher; kept as an interface here
// to avoid a pkg/sshconn -> pkg/events -> ... import cycle risk and to keep
// this package testable without a live Bus.
type Notifier interface {
	SSHStatus(kind string, message string)
	SSHCommand(kind string, commandID, chunk string, exitCode *int, durationMs int64)
	TerminalData(kind string, data []byte, cols, rows int, reason string)
}

// noopNotifier discards every event; used when the caller doesn't care.
type noopNotifier struct{}

func (noopNotifier) SSHStatus(string, string)                          {}
func (noopNotifier) SSHCommand(string, string, string, *int, int64)    {}
func (noopNotifier) TerminalData(string, []byte, int, int, string)     {}

// Connector owns one ssh.Client for one Session and serializes every
// state-affecting operation against it, per spec §4.2's single-owner rule.
// The caller (pkg/sessionrt's actor) is itself single-threaded, so Connector
// does not need its own locking for the happy path — only Close needs to be
// safe to call concurrently with an in-flight operation's context
// cancellation.
type Connector struct {
	cfg      config.SSHConfig
	notifier Notifier

	client *ssh.Client
	target Target
}

// NewConnector constructs a Connector bound to the given SSH settings. A nil
// notifier falls back to a no-op (useful in tests).
func NewConnector(cfg config.SSHConfig, notifier Notifier) *Connector {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Connector{cfg: cfg, notifier: notifier}
}

// Connect dials target and authenticates with auth, applying the configured
// host-key policy. On success the Connector owns a live *ssh.Client until
// Close is called.
func (c *Connector) Connect(ctx context.Context, target Target, auth AuthMethod) error {
	hostKeyCallback, err := c.hostKeyCallback()
	if err != nil {
		return fmt.Errorf("sshconn: host key callback: %w", err)
	}

	methods, err := authMethods(auth)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	clientCfg := &ssh.ClientConfig{
		User:            auth.Username,
		Auth:            methods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.cfg.ConnectTimeout,
	}

	c.notifier.SSHStatus("connecting", fmt.Sprintf("dialing %s:%d", target.Host, target.Port))

	addr := net.JoinHostPort(target.Host, fmt.Sprintf("%d", target.Port))
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	client, err := dialContext(dialCtx, addr, clientCfg)
	if err != nil {
		c.notifier.SSHStatus("error", err.Error())
		return classifyDialError(err)
	}

	c.client = client
	c.target = target

	if c.cfg.KeepaliveInterval > 0 {
		go c.keepalive(ctx)
	}

	c.notifier.SSHStatus("connected", fmt.Sprintf("%s:%d", target.Host, target.Port))
	return nil
}

// keepalive sends periodic no-op requests so a dead TCP connection is
// detected within KeepaliveTimeout instead of hanging a blocked Read/Write
// until the OS-level TCP timeout fires (which can be many minutes).
func (c *Connector) keepalive(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			client := c.client
			if client == nil {
				return
			}
			respCh := make(chan error, 1)
			go func() {
				_, _, err := client.SendRequest("keepalive@huntbay", true, nil)
				respCh <- err
			}()
			select {
			case err := <-respCh:
				if err != nil {
					c.notifier.SSHStatus("disconnected", "keepalive failed: "+err.Error())
					return
				}
			case <-time.After(c.cfg.KeepaliveTimeout):
				c.notifier.SSHStatus("disconnected", "keepalive timeout")
				return
			}
		}
	}
}

// Close shuts down the client, per spec §4.2 emitting ssh.disconnected.
func (c *Connector) Close(reason string) error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	c.notifier.SSHStatus("disconnected", reason)
	return err
}

// Connected reports whether a live client is held.
func (c *Connector) Connected() bool {
	return c.client != nil
}

func (c *Connector) hostKeyCallback() (ssh.HostKeyCallback, error) {
	switch c.cfg.HostKeyCheck {
	case "insecure":
		return ssh.InsecureIgnoreHostKey(), nil
	case "known_hosts":
		return knownhosts.New(c.cfg.KnownHostsPath)
	case "fingerprint":
		// Trust-on-first-use: the first key seen for a host is pinned into
		// the known_hosts file at KnownHostsPath and accepted; subsequent
		// connections are verified against it. This is the spec's default
		// policy (§4.2: "defaults to trust-on-first-use with a per-asset
		// pinned fingerprint").
		return tofuCallback(c.cfg.KnownHostsPath), nil
	default:
		return nil, fmt.Errorf("unknown host_key_check policy %q", c.cfg.HostKeyCheck)
	}
}

func authMethods(auth AuthMethod) ([]ssh.AuthMethod, error) {
	if len(auth.PrivateKeyPEM) > 0 {
		var signer ssh.Signer
		var err error
		if auth.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(auth.PrivateKeyPEM, []byte(auth.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(auth.PrivateKeyPEM)
		}
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	if auth.Password != "" {
		return []ssh.AuthMethod{ssh.Password(auth.Password)}, nil
	}
	return nil, fmt.Errorf("no usable credential: need password or private key")
}

// dialContext wraps ssh.Dial with context cancellation: the ssh package's
// Dial only takes a timeout, not a context, so a net.Dialer is used
// underneath and upgraded to an SSH client connection by hand.
func dialContext(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func classifyDialError(err error) error {
	var netErr net.Error
	if ok := isNetTimeout(err, &netErr); ok && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if _, ok := err.(*net.OpError); ok {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	// ssh handshake failures (bad password/key, host key rejection) surface
	// as *ssh.noAuthorizedError / generic errors without a typed wrapper in
	// the stdlib package; classify by message since crypto/ssh does not
	// export auth-failure sentinels.
	if containsAny(err.Error(), "unable to authenticate", "no supported methods remain") {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if containsAny(err.Error(), "host key mismatch", "knownhosts: key mismatch") {
		return fmt.Errorf("%w: %v", ErrHostKeyMismatch, err)
	}
	return err
}

func isNetTimeout(err error, out *net.Error) bool {
	if ne, ok := err.(net.Error); ok {
		*out = ne
		return true
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if len(s) >= len(sub) && indexOf(s, sub) >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
