package auth

import (
	"context"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/pkg/config"
	"github.com/sablecore/huntbay/pkg/external"
)

func newTestClient(t *testing.T) *ent.Client {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(pgContainer)
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	drv, err := sql.Open(dialect.Postgres, connStr)
	require.NoError(t, err)

	client := ent.NewClient(ent.Driver(drv))
	require.NoError(t, client.Schema.Create(ctx))
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func testService(t *testing.T) (*Service, *external.StaticIdentityVerifier) {
	client := newTestClient(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.DefaultCost)
	require.NoError(t, err)

	verifier := external.NewStaticIdentityVerifier()
	verifier.AddUser("alice", "analyst-1", string(hash), []string{"analyst"})

	issuer := NewIssuer(&config.AuthConfig{
		Issuer:          "huntbay-test",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}, "test-signing-secret")

	return NewService(issuer, NewRefreshStore(client), verifier), verifier
}

func TestServiceLoginReturnsTokenPair(t *testing.T) {
	s, _ := testService(t)
	pair, err := s.Login(context.Background(), "alice", "correcthorse")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestServiceLoginRejectsWrongPassword(t *testing.T) {
	s, _ := testService(t)
	_, err := s.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestServiceRefreshRotatesToken(t *testing.T) {
	s, _ := testService(t)
	ctx := context.Background()

	pair, err := s.Login(ctx, "alice", "correcthorse")
	require.NoError(t, err)

	rotated, err := s.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, rotated.AccessToken)
}

func TestServiceRefreshReuseIsRejectedAndRevokesChain(t *testing.T) {
	s, _ := testService(t)
	ctx := context.Background()

	pair, err := s.Login(ctx, "alice", "correcthorse")
	require.NoError(t, err)

	rotated, err := s.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	// Reusing the already-redeemed token must fail.
	_, err = s.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// And the whole chain, including the token minted from the reused one,
	// is revoked as a side effect.
	_, err = s.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestServiceChangePasswordRevokesExistingSessions(t *testing.T) {
	s, _ := testService(t)
	ctx := context.Background()

	pair, err := s.Login(ctx, "alice", "correcthorse")
	require.NoError(t, err)

	require.NoError(t, s.ChangePassword(ctx, "alice", "correcthorse", "newpassword123"))

	_, err = s.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "alice", "newpassword123")
	require.NoError(t, err)
}
