package config

import "time"

// GatewayConfig controls the REST+WebSocket Gateway (C7) HTTP server.
type GatewayConfig struct {
	// Addr is the listen address, e.g. ":8443".
	Addr string `yaml:"addr" validate:"required"`

	// ReadTimeout/WriteTimeout bound the underlying http.Server.
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"required"`

	// ShutdownTimeout bounds graceful drain on SIGTERM.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"required"`

	// CORSAllowedOrigins lists origins permitted for the browser-facing API.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins,omitempty"`

	// WebSocketWriteTimeout bounds a single write to a subscriber socket
	// before it is treated as stalled and dropped.
	WebSocketWriteTimeout time.Duration `yaml:"websocket_write_timeout" validate:"required"`

	// TerminalInputBytesPerSec/TerminalInputBurstBytes bound one
	// connection's terminal_input throughput (spec §4.7): a sustained
	// per-second byte rate with a burst allowance on top, enforced per
	// WebSocket connection rather than globally.
	TerminalInputBytesPerSec int `yaml:"terminal_input_bytes_per_sec" validate:"required"`
	TerminalInputBurstBytes  int `yaml:"terminal_input_burst_bytes" validate:"required"`
}

// DefaultGatewayConfig returns the built-in gateway defaults.
func DefaultGatewayConfig() *GatewayConfig {
	return &GatewayConfig{
		Addr:                     ":8443",
		ReadTimeout:              30 * time.Second,
		WriteTimeout:             30 * time.Second,
		ShutdownTimeout:          20 * time.Second,
		CORSAllowedOrigins:       []string{},
		WebSocketWriteTimeout:    5 * time.Second,
		TerminalInputBytesPerSec: 64 * 1024,
		TerminalInputBurstBytes:  256 * 1024,
	}
}
