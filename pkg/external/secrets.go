package external

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// SecretsStore resolves an opaque Credential.secret_ref (or the derived
// sudo secret ref, see sudoSecretRef) to the actual secret value. Never
// logged, never persisted (spec §1 Non-goals).
type SecretsStore interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvSecretsStore treats every ref as the name of an environment variable
// on the huntbay process, the stand-in secrets backend for deployments
// that don't run a separate secrets-manager process (config.ExternalBackendLocal).
type EnvSecretsStore struct{}

// NewEnvSecretsStore constructs an EnvSecretsStore.
func NewEnvSecretsStore() *EnvSecretsStore {
	return &EnvSecretsStore{}
}

// Resolve reads ref as an environment variable name.
func (EnvSecretsStore) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("external: secret ref %q is not set", ref)
	}
	return v, nil
}

// StaticSecretsStore serves secrets from an in-memory map, for tests and
// local development fixtures.
type StaticSecretsStore struct {
	secrets map[string]string
}

// NewStaticSecretsStore constructs a StaticSecretsStore from a fixed ref->value map.
func NewStaticSecretsStore(secrets map[string]string) *StaticSecretsStore {
	if secrets == nil {
		secrets = map[string]string{}
	}
	return &StaticSecretsStore{secrets: secrets}
}

// Resolve looks ref up in the fixed map.
func (s *StaticSecretsStore) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := s.secrets[ref]
	if !ok {
		return "", fmt.Errorf("external: secret ref %q not found", ref)
	}
	return v, nil
}

// GRPCSecretsStore resolves secrets against an external secrets-manager
// process. It has no generated protobuf service client to call into
// (there's no secrets-manager proto in this deployment), so it speaks a
// minimal structpb.Struct request/response over grpc.ClientConn.Invoke
// instead of a typed stub — the same shape a reflection-based gRPC client
// would use.
type GRPCSecretsStore struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewGRPCSecretsStore dials target. insecure disables transport security,
// for local development against a plaintext stub.
func NewGRPCSecretsStore(target string, insecureDial bool, timeout time.Duration) (*GRPCSecretsStore, error) {
	var opts []grpc.DialOption
	if insecureDial {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("external: dial secrets store %s: %w", target, err)
	}
	return &GRPCSecretsStore{conn: conn, timeout: timeout}, nil
}

// Close releases the underlying gRPC connection.
func (g *GRPCSecretsStore) Close() error {
	return g.conn.Close()
}

// Resolve invokes the external backend's ResolveSecret RPC.
func (g *GRPCSecretsStore) Resolve(ctx context.Context, ref string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{"ref": ref})
	if err != nil {
		return "", fmt.Errorf("external: build secrets request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, "/huntbay.external.SecretsService/ResolveSecret", req, resp); err != nil {
		return "", fmt.Errorf("external: resolve secret %q: %w", ref, err)
	}

	value, ok := resp.AsMap()["value"].(string)
	if !ok {
		return "", fmt.Errorf("external: secret %q: malformed response", ref)
	}
	return value, nil
}
