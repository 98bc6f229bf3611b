package config

import "time"

// SSHConfig controls how the SSH Connector (C2) dials and maintains
// connections to Assets.
type SSHConfig struct {
	// ConnectTimeout bounds the initial TCP+handshake phase.
	ConnectTimeout time.Duration `yaml:"connect_timeout" validate:"required"`

	// KeepaliveInterval is how often a keepalive request is sent on an idle
	// connection to detect a dead peer before the OS does.
	KeepaliveInterval time.Duration `yaml:"keepalive_interval" validate:"required"`

	// KeepaliveTimeout is how long to wait for a keepalive reply before the
	// connection is considered dead.
	KeepaliveTimeout time.Duration `yaml:"keepalive_timeout" validate:"required"`

	// MaxReconnectAttempts bounds the reconnect backoff loop before a Session
	// transitions to FAILED (spec §4.3).
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts" validate:"required,min=1"`

	// ReconnectBackoffBase is validated (positive, not above
	// ReconnectBackoffMax) but not read by pkg/sshconn, whose reconnect
	// delays are fixed at 250ms, 1s and 4s.
	ReconnectBackoffBase time.Duration `yaml:"reconnect_backoff_base" validate:"required"`

	// ReconnectBackoffMax is validated against ReconnectBackoffBase but not
	// read by pkg/sshconn.
	ReconnectBackoffMax time.Duration `yaml:"reconnect_backoff_max" validate:"required"`

	// HostKeyCheck selects how presented host keys are verified:
	// "known_hosts" (default), "fingerprint" (pinned per-Asset), or
	// "insecure" (accept anything — lab use only).
	HostKeyCheck string `yaml:"host_key_check" validate:"required,oneof=known_hosts fingerprint insecure"`

	// KnownHostsPath is the known_hosts file consulted when HostKeyCheck is
	// "known_hosts".
	KnownHostsPath string `yaml:"known_hosts_path,omitempty"`
}

// DefaultSSHConfig returns the built-in SSH connector defaults.
func DefaultSSHConfig() *SSHConfig {
	return &SSHConfig{
		ConnectTimeout:       15 * time.Second,
		KeepaliveInterval:    30 * time.Second,
		KeepaliveTimeout:     10 * time.Second,
		MaxReconnectAttempts: 5,
		ReconnectBackoffBase: 2 * time.Second,
		ReconnectBackoffMax:  1 * time.Minute,
		HostKeyCheck:         "known_hosts",
		KnownHostsPath:       "~/.ssh/known_hosts",
	}
}
