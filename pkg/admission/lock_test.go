package admission

import (
	"context"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/session"
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

func TestClaimRejectsDuplicateNonTerminalPair(t *testing.T) {
	client := newTestClient(t)
	ctrl := New(client, nil)
	ctx := context.Background()

	id1, err := ctrl.Claim(ctx, "asset-1", "analyst-1", session.ModeAi)
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	_, err = ctrl.Claim(ctx, "asset-1", "analyst-1", session.ModeAi)
	require.ErrorIs(t, err, ErrAlreadyActive)
}

func TestClaimAllowsDifferentAnalystOnSameAsset(t *testing.T) {
	client := newTestClient(t)
	ctrl := New(client, nil)
	ctx := context.Background()

	_, err := ctrl.Claim(ctx, "asset-1", "analyst-1", session.ModeAi)
	require.NoError(t, err)

	_, err = ctrl.Claim(ctx, "asset-1", "analyst-2", session.ModeAi)
	require.NoError(t, err)
}

func TestReleaseFreesThePairForReclaim(t *testing.T) {
	client := newTestClient(t)
	ctrl := New(client, nil)
	ctx := context.Background()

	id1, err := ctrl.Claim(ctx, "asset-1", "analyst-1", session.ModeInteractive)
	require.NoError(t, err)

	require.NoError(t, ctrl.Release(ctx, id1))

	id2, err := ctrl.Claim(ctx, "asset-1", "analyst-1", session.ModeInteractive)
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)
}

func TestSyncLockedSetsLockedByAndClearsOnUnlock(t *testing.T) {
	client := newTestClient(t)
	ctrl := New(client, nil)
	ctx := context.Background()

	id, err := ctrl.Claim(ctx, "asset-1", "analyst-1", session.ModeAi)
	require.NoError(t, err)

	require.NoError(t, ctrl.Sync(ctx, id, session.StateLocked, "analyst-1"))
	row, err := client.Session.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, row.LockedBy)
	require.Equal(t, "analyst-1", *row.LockedBy)

	require.NoError(t, ctrl.Sync(ctx, id, session.StateRunning, ""))
	row, err = client.Session.Get(ctx, id)
	require.NoError(t, err)
	require.Nil(t, row.LockedBy)
}

func TestReconcileTerminatesStaleNonTerminalSessions(t *testing.T) {
	client := newTestClient(t)
	ctrl := New(client, nil)
	ctx := context.Background()

	id, err := ctrl.Claim(ctx, "asset-1", "analyst-1", session.ModeAi)
	require.NoError(t, err)
	require.NoError(t, ctrl.Sync(ctx, id, session.StateRunning, ""))

	n, err := ctrl.Reconcile(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	row, err := client.Session.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, session.StateTerminated, row.State)
}
