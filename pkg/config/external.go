package config

import "time"

// ExternalBackend selects which implementation pkg/external uses to satisfy
// secrets resolution and identity verification. Asset lookup always uses
// the local Postgres tables, whichever backend is selected.
type ExternalBackend string

const (
	// ExternalBackendLocal resolves assets against the local Postgres
	// database and treats secret_ref/passphrase_ref as opaque environment
	// variable names (spec §1 Non-goals: "a real secrets manager integration
	// is out of scope").
	ExternalBackendLocal ExternalBackend = "local"

	// ExternalBackendGRPC delegates to an external secrets-manager /
	// identity-provider process over gRPC; assets are still read from the
	// local database.
	ExternalBackendGRPC ExternalBackend = "grpc"
)

// ExternalConfig controls how huntbay resolves sudo/SSH secrets and analyst
// identities that live outside its own database (spec §1 "External
// collaborators").
type ExternalConfig struct {
	// Backend selects the implementation.
	Backend string `yaml:"backend" validate:"required,oneof=local grpc"`

	// GRPCTarget is the dial target for the external backend (e.g.
	// "secrets.internal:9443"). Required when Backend is "grpc".
	GRPCTarget string `yaml:"grpc_target,omitempty"`

	// GRPCTimeout bounds a single call to the external backend.
	GRPCTimeout time.Duration `yaml:"grpc_timeout,omitempty"`

	// GRPCInsecure disables transport security on the gRPC dial, for local
	// development against a plaintext stub.
	GRPCInsecure bool `yaml:"grpc_insecure,omitempty"`
}

// DefaultExternalConfig returns the built-in external-backend defaults (the
// local Postgres-backed implementation, no external process required).
func DefaultExternalConfig() *ExternalConfig {
	return &ExternalConfig{
		Backend:     string(ExternalBackendLocal),
		GRPCTimeout: 5 * time.Second,
	}
}
