package external

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Identity is an authenticated analyst, as resolved by an IdentityVerifier.
type Identity struct {
	AnalystID string
	Username  string
	Roles     []string
}

// IdentityVerifier checks an analyst's login credentials and returns their
// identity. Consumed by pkg/auth's login handler; huntbay itself never
// stores passwords (spec §1 "External collaborators": an identity provider
// is a collaborator, not a subsystem huntbay owns).
type IdentityVerifier interface {
	Verify(ctx context.Context, username, password string) (Identity, error)
}

// PasswordChanger updates an analyst's password at the identity provider.
// Implemented by the same backends as IdentityVerifier; kept as a separate
// interface so a read-only verifier (e.g. one backed by a directory service
// that doesn't support writes) can still satisfy IdentityVerifier alone.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
}

// StaticIdentityVerifier checks against a fixed, bcrypt-hashed username ->
// password map, for local development and tests where no external identity
// provider is configured.
type StaticIdentityVerifier struct {
	users map[string]staticUser
}

type staticUser struct {
	analystID    string
	passwordHash string
	roles        []string
}

// NewStaticIdentityVerifier constructs a StaticIdentityVerifier with no
// registered users; call AddUser to register one.
func NewStaticIdentityVerifier() *StaticIdentityVerifier {
	return &StaticIdentityVerifier{users: map[string]staticUser{}}
}

// AddUser registers a username with a bcrypt hash of its password.
func (v *StaticIdentityVerifier) AddUser(username, analystID, passwordHash string, roles []string) {
	v.users[username] = staticUser{analystID: analystID, passwordHash: passwordHash, roles: roles}
}

// Verify checks the supplied password against the registered bcrypt hash.
func (v *StaticIdentityVerifier) Verify(_ context.Context, username, password string) (Identity, error) {
	u, ok := v.users[username]
	if !ok {
		// Still runs a bcrypt comparison against a fixed dummy hash so a
		// missing-user response takes roughly the same time as a wrong-password one.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return Identity{}, fmt.Errorf("external: invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)); err != nil {
		return Identity{}, fmt.Errorf("external: invalid credentials")
	}
	return Identity{AnalystID: u.analystID, Username: username, Roles: u.roles}, nil
}

// ChangePassword replaces the registered bcrypt hash after verifying oldPassword.
func (v *StaticIdentityVerifier) ChangePassword(_ context.Context, username, oldPassword, newPassword string) error {
	u, ok := v.users[username]
	if !ok {
		return fmt.Errorf("external: invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("external: invalid credentials")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("external: hash new password: %w", err)
	}
	u.passwordHash = string(hash)
	v.users[username] = u
	return nil
}

// dummyHash is a valid bcrypt hash of an unused placeholder, spent only to
// keep verification time constant across the user-not-found branch.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5Xi8X/3JTbDuhXh7UpSM2lL9RRv0q"

// GRPCIdentityVerifier delegates credential verification to an external
// identity provider over gRPC, the same structpb-request shape as
// GRPCSecretsStore since there's no generated identity-provider proto in
// this deployment either.
type GRPCIdentityVerifier struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewGRPCIdentityVerifier dials target.
func NewGRPCIdentityVerifier(target string, insecureDial bool, timeout time.Duration) (*GRPCIdentityVerifier, error) {
	var opts []grpc.DialOption
	if insecureDial {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("external: dial identity provider %s: %w", target, err)
	}
	return &GRPCIdentityVerifier{conn: conn, timeout: timeout}, nil
}

// Close releases the underlying gRPC connection.
func (g *GRPCIdentityVerifier) Close() error {
	return g.conn.Close()
}

// Verify invokes the external backend's VerifyCredentials RPC.
func (g *GRPCIdentityVerifier) Verify(ctx context.Context, username, password string) (Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{"username": username, "password": password})
	if err != nil {
		return Identity{}, fmt.Errorf("external: build identity request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, "/huntbay.external.IdentityService/VerifyCredentials", req, resp); err != nil {
		return Identity{}, fmt.Errorf("external: verify credentials: %w", err)
	}

	m := resp.AsMap()
	analystID, _ := m["analyst_id"].(string)
	if analystID == "" {
		return Identity{}, fmt.Errorf("external: invalid credentials")
	}
	var roles []string
	if raw, ok := m["roles"].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	}
	return Identity{AnalystID: analystID, Username: username, Roles: roles}, nil
}

// ChangePassword invokes the external backend's ChangePassword RPC.
func (g *GRPCIdentityVerifier) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{
		"username":     username,
		"old_password": oldPassword,
		"new_password": newPassword,
	})
	if err != nil {
		return fmt.Errorf("external: build change-password request: %w", err)
	}

	resp := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, "/huntbay.external.IdentityService/ChangePassword", req, resp); err != nil {
		return fmt.Errorf("external: change password: %w", err)
	}
	return nil
}
