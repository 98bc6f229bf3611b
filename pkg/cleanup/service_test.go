package cleanup

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
	"github.com/sablecore/huntbay/pkg/config"
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

func seedAsset(t *testing.T, client *ent.Client, id string) string {
	ctx := context.Background()
	a, err := client.Asset.Create().
		SetID(id).
		SetHostname(id).
		SetIPAddress("10.0.0.1").
		SetSSHUsername("root").
		Save(ctx)
	require.NoError(t, err)
	return a.ID
}

func seedSession(t *testing.T, client *ent.Client, id, assetID string, state session.State, terminatedAt *time.Time) {
	ctx := context.Background()
	q := client.Session.Create().
		SetID(id).
		SetAssetID(assetID).
		SetAnalystID("analyst-1").
		SetMode(session.ModeAi).
		SetState(state)
	if terminatedAt != nil {
		q = q.SetTerminatedAt(*terminatedAt)
	}
	_, err := q.Save(ctx)
	require.NoError(t, err)
}

func testConfig() *config.RetentionConfig {
	return &config.RetentionConfig{
		SessionRetentionDays:  90,
		TimelineRetentionDays: 365,
		CleanupInterval:       time.Hour,
	}
}

func TestServicePurgesOldTerminalSessions(t *testing.T) {
	client := newTestClient(t)
	assetID := seedAsset(t, client, "asset-1")

	old := time.Now().AddDate(0, 0, -100)
	seedSession(t, client, "session-old", assetID, session.StateTerminated, &old)

	svc := NewService(testConfig(), client)
	svc.runAll(context.Background())

	_, err := client.Session.Get(context.Background(), "session-old")
	require.True(t, ent.IsNotFound(err))
}

func TestServicePreservesRecentTerminalSessions(t *testing.T) {
	client := newTestClient(t)
	assetID := seedAsset(t, client, "asset-1")

	recent := time.Now().AddDate(0, 0, -1)
	seedSession(t, client, "session-recent", assetID, session.StateFailed, &recent)

	svc := NewService(testConfig(), client)
	svc.runAll(context.Background())

	_, err := client.Session.Get(context.Background(), "session-recent")
	require.NoError(t, err)
}

func TestServicePreservesNonTerminalSessionsRegardlessOfAge(t *testing.T) {
	client := newTestClient(t)
	assetID := seedAsset(t, client, "asset-1")

	seedSession(t, client, "session-running", assetID, session.StateRunning, nil)

	svc := NewService(testConfig(), client)
	svc.runAll(context.Background())

	_, err := client.Session.Get(context.Background(), "session-running")
	require.NoError(t, err)
}

func TestServicePurgesOldTimelineEvents(t *testing.T) {
	client := newTestClient(t)
	assetID := seedAsset(t, client, "asset-1")
	ctx := context.Background()

	oldEvt, err := client.TimelineEvent.Create().
		SetID("event-old").
		SetAssetID(assetID).
		SetEventType("hunt.completed").
		SetPayload(map[string]interface{}{}).
		Save(ctx)
	require.NoError(t, err)
	require.NoError(t, client.TimelineEvent.UpdateOne(oldEvt).
		SetOccurredAt(time.Now().AddDate(-2, 0, 0)).Exec(ctx))

	_, err = client.TimelineEvent.Create().
		SetID("event-recent").
		SetAssetID(assetID).
		SetEventType("hunt.completed").
		SetPayload(map[string]interface{}{}).
		Save(ctx)
	require.NoError(t, err)

	svc := NewService(testConfig(), client)
	svc.runAll(ctx)

	_, err = client.TimelineEvent.Get(ctx, "event-old")
	require.True(t, ent.IsNotFound(err))

	_, err = client.TimelineEvent.Get(ctx, "event-recent")
	require.NoError(t, err)
}

func TestServicePurgesExpiredRefreshTokens(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	_, err := client.RefreshToken.Create().
		SetID("token-expired").
		SetAnalystID("analyst-1").
		SetExpiresAt(time.Now().Add(-time.Hour)).
		Save(ctx)
	require.NoError(t, err)

	_, err = client.RefreshToken.Create().
		SetID("token-live").
		SetAnalystID("analyst-1").
		SetExpiresAt(time.Now().Add(time.Hour)).
		Save(ctx)
	require.NoError(t, err)

	svc := NewService(testConfig(), client)
	svc.runAll(ctx)

	_, err = client.RefreshToken.Get(ctx, "token-expired")
	require.True(t, ent.IsNotFound(err))

	_, err = client.RefreshToken.Get(ctx, "token-live")
	require.NoError(t, err)
}

func TestServiceStartAndStopRunsCleanupLoop(t *testing.T) {
	client := newTestClient(t)
	assetID := seedAsset(t, client, "asset-1")

	old := time.Now().AddDate(0, 0, -100)
	seedSession(t, client, "session-old", assetID, session.StateDisconnected, &old)

	svc := NewService(testConfig(), client)
	svc.Start(context.Background())
	require.Eventually(t, func() bool {
		_, err := client.Session.Get(context.Background(), "session-old")
		return ent.IsNotFound(err)
	}, 5*time.Second, 50*time.Millisecond)
	svc.Stop()
}
