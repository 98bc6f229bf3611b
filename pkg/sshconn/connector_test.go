package sshconn

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/sablecore/huntbay/pkg/config"
)

func TestAuthMethodsRequiresCredential(t *testing.T) {
	_, err := authMethods(AuthMethod{Username: "root"})
	if err == nil {
		t.Fatal("expected error when neither password nor key is set")
	}
}

func TestAuthMethodsRejectsBadKey(t *testing.T) {
	_, err := authMethods(AuthMethod{Username: "root", PrivateKeyPEM: []byte("not a key")})
	if err == nil {
		t.Fatal("expected error for malformed private key")
	}
}

func TestAuthMethodsAcceptsPassword(t *testing.T) {
	methods, err := authMethods(AuthMethod{Username: "root", Password: "hunter2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(methods) != 1 {
		t.Fatalf("expected exactly one auth method, got %d", len(methods))
	}
}

func TestClassifyDialErrorUnreachable(t *testing.T) {
	err := classifyDialError(&net.OpError{Op: "dial", Err: errors.New("connection refused")})
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestClassifyDialErrorAuthFailed(t *testing.T) {
	err := classifyDialError(errors.New("ssh: handshake failed: ssh: unable to authenticate"))
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestClassifyDialErrorHostKeyMismatch(t *testing.T) {
	err := classifyDialError(errors.New("knownhosts: key mismatch for host example.com"))
	if !errors.Is(err, ErrHostKeyMismatch) {
		t.Fatalf("expected ErrHostKeyMismatch, got %v", err)
	}
}

func TestConnectorConnectedReflectsState(t *testing.T) {
	c := NewConnector(*config.DefaultSSHConfig(), nil)
	if c.Connected() {
		t.Fatal("fresh connector should report disconnected")
	}
	if err := c.Close("noop"); err != nil {
		t.Fatalf("closing an already-disconnected connector should be a no-op: %v", err)
	}
}

// zeroDelaySSHConfig returns SSH settings tuned for fast-failing unit tests
// against unreachable addresses: short timeouts, host-key checks disabled.
func zeroDelaySSHConfig() config.SSHConfig {
	cfg := *config.DefaultSSHConfig()
	cfg.ConnectTimeout = 200 * time.Millisecond
	cfg.HostKeyCheck = "insecure"
	return cfg
}
