package intel

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
	"github.com/sablecore/huntbay/ent/hunt"
	"github.com/sablecore/huntbay/ent/session"
	"github.com/sablecore/huntbay/pkg/ai"
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

// seedAssetAndSession creates the parent rows a Hunt/Finding/TimelineEvent
// row's required edges need.
func seedAssetAndSession(t *testing.T, client *ent.Client) (assetID, sessionID string) {
	ctx := context.Background()

	a, err := client.Asset.Create().
		SetID("asset-1").
		SetHostname("host1").
		SetIPAddress("10.0.0.1").
		SetSSHUsername("root").
		Save(ctx)
	require.NoError(t, err)

	sess, err := client.Session.Create().
		SetID("session-1").
		SetAssetID(a.ID).
		SetAnalystID("analyst-1").
		SetMode(session.ModeAi).
		Save(ctx)
	require.NoError(t, err)

	return a.ID, sess.ID
}

func seedHunt(t *testing.T, client *ent.Client, sessionID string) string {
	ctx := context.Background()
	h, err := client.Hunt.Create().
		SetID("hunt-1").
		SetSessionID(sessionID).
		SetModuleID("module-1").
		SetRunAI(true).
		SetStatus(hunt.StatusRunning).
		Save(ctx)
	require.NoError(t, err)
	return h.ID
}

func TestTimelineStoreAppendAndList(t *testing.T) {
	client := newTestClient(t)
	assetID, _ := seedAssetAndSession(t, client)
	store := NewTimelineStore(client)
	ctx := context.Background()

	require.NoError(t, store.AppendTimeline(ctx, assetID, "hunt.started", "analyst-1", map[string]string{"hunt_id": "hunt-1"}))
	require.NoError(t, store.AppendTimeline(ctx, assetID, "hunt.completed", "", map[string]string{"hunt_id": "hunt-1"}))

	events, err := store.ListTimeline(ctx, assetID, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "hunt.started", events[0].EventType)
}

func TestHuntStoreCreateAndUpdateStatus(t *testing.T) {
	client := newTestClient(t)
	_, sessionID := seedAssetAndSession(t, client)
	store := NewHuntStore(client)
	ctx := context.Background()

	require.NoError(t, store.CreateHunt(ctx, "hunt-1", sessionID, "module-1", true))

	row, err := client.Hunt.Get(ctx, "hunt-1")
	require.NoError(t, err)
	require.Equal(t, hunt.StatusRunning, row.Status)
	require.NotNil(t, row.StartedAt)

	require.NoError(t, store.UpdateHuntStatus(ctx, "hunt-1", "completed", 3))
	row, err = client.Hunt.Get(ctx, "hunt-1")
	require.NoError(t, err)
	require.Equal(t, hunt.StatusCompleted, row.Status)
	require.Equal(t, 3, row.FindingsCount)
	require.NotNil(t, row.EndedAt)
}

func TestReportStoreSaveAIReportDenormalizesOntoHunt(t *testing.T) {
	client := newTestClient(t)
	assetID, sessionID := seedAssetAndSession(t, client)
	seedHunt(t, client, sessionID)
	store := NewReportStore(client)
	ctx := context.Background()

	in, out, dur := 100, 50, 1200
	require.NoError(t, store.SaveAIReport(ctx, "hunt-1", sessionID, assetID, "anthropic", "claude-sonnet-4-6", "full report text", "short summary", &in, &out, &dur, ""))

	h, err := client.Hunt.Get(ctx, "hunt-1")
	require.NoError(t, err)
	require.NotNil(t, h.AiReportText)
	require.Equal(t, "full report text", *h.AiReportText)
}

func TestFindingStoreUpsertCreatesThenMergesOnRepeatSighting(t *testing.T) {
	client := newTestClient(t)
	assetID, sessionID := seedAssetAndSession(t, client)
	seedHunt(t, client, sessionID)
	store := NewFindingStore(client)
	ctx := context.Background()

	f1 := ai.ExtractedFinding{
		Title: "Weak SSH Cipher", Severity: "medium", Confidence: 0.6, Tags: []string{"ssh"},
		Remediation: &ai.Remediation{Immediate: []string{"disable weak ciphers"}},
	}
	id1, fp1, newSighting1, err := store.UpsertFinding(ctx, assetID, sessionID, "hunt-1", f1)
	require.NoError(t, err)
	require.True(t, newSighting1)
	require.NotEmpty(t, id1)

	f2 := ai.ExtractedFinding{
		Title: "weak  ssh cipher", Severity: "high", Confidence: 0.9, Tags: []string{"cve-2023-1234"},
		Remediation: &ai.Remediation{Immediate: []string{"rotate host keys"}, ShortTerm: []string{"pin cipher suite in sshd_config"}},
	}
	id2, fp2, newSighting2, err := store.UpsertFinding(ctx, assetID, sessionID, "hunt-1", f2)
	require.NoError(t, err)
	require.False(t, newSighting2)
	require.Equal(t, id1, id2)
	require.Equal(t, fp1, fp2)

	row, err := client.Finding.Get(ctx, id1)
	require.NoError(t, err)
	require.Equal(t, 2, row.SightingCount)
	require.EqualValues(t, "high", row.Severity)
	require.InDelta(t, 0.9, row.Confidence, 0.0001)
	require.ElementsMatch(t, []string{"ssh", "cve-2023-1234"}, row.Tags)
	require.NotNil(t, row.Remediation)
	require.Equal(t, []string{"rotate host keys"}, row.Remediation.Immediate, "remediation is overwritten with the latest sighting's advice, not accumulated")
	require.Equal(t, []string{"pin cipher suite in sshd_config"}, row.Remediation.ShortTerm)
}

func TestFindingStoreUpsertDistinguishesByTags(t *testing.T) {
	client := newTestClient(t)
	assetID, sessionID := seedAssetAndSession(t, client)
	store := NewFindingStore(client)
	ctx := context.Background()

	f1 := ai.ExtractedFinding{Title: "Outdated Package", Severity: "low", Confidence: 0.5, Tags: []string{"openssl"}}
	f2 := ai.ExtractedFinding{Title: "Outdated Package", Severity: "low", Confidence: 0.5, Tags: []string{"curl"}}

	id1, _, _, err := store.UpsertFinding(ctx, assetID, sessionID, "", f1)
	require.NoError(t, err)
	id2, _, _, err := store.UpsertFinding(ctx, assetID, sessionID, "", f2)
	require.NoError(t, err)

	require.NotEqual(t, id1, id2)
}

func TestFindingStoreGetDeleteAndUpdateStatus(t *testing.T) {
	client := newTestClient(t)
	assetID, sessionID := seedAssetAndSession(t, client)
	store := NewFindingStore(client)
	ctx := context.Background()

	f := ai.ExtractedFinding{Title: "Exposed Redis", Severity: "critical", Confidence: 0.95, Tags: []string{"redis"}}
	id, _, _, err := store.UpsertFinding(ctx, assetID, sessionID, "", f)
	require.NoError(t, err)

	got, err := store.GetFinding(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Exposed Redis", got.Title)
	require.EqualValues(t, "open", got.Status)

	require.NoError(t, store.UpdateStatus(ctx, id, "acknowledged"))
	got, err = store.GetFinding(ctx, id)
	require.NoError(t, err)
	require.EqualValues(t, "acknowledged", got.Status)

	require.NoError(t, store.DeleteFinding(ctx, id))
	_, err = store.GetFinding(ctx, id)
	require.True(t, ent.IsNotFound(err))
}

func TestFindingStoreListFindingsFiltersBySession(t *testing.T) {
	client := newTestClient(t)
	assetID, sessionID := seedAssetAndSession(t, client)

	otherSession, err := client.Session.Create().
		SetID("session-2").
		SetAssetID(assetID).
		SetAnalystID("analyst-1").
		SetMode(session.ModeAi).
		Save(context.Background())
	require.NoError(t, err)

	store := NewFindingStore(client)
	ctx := context.Background()

	_, _, _, err = store.UpsertFinding(ctx, assetID, sessionID, "", ai.ExtractedFinding{Title: "A", Severity: "low", Confidence: 0.1})
	require.NoError(t, err)
	_, _, _, err = store.UpsertFinding(ctx, assetID, otherSession.ID, "", ai.ExtractedFinding{Title: "B", Severity: "low", Confidence: 0.1})
	require.NoError(t, err)

	all, err := store.ListFindings(ctx, assetID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	scoped, err := store.ListFindings(ctx, assetID, sessionID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, "A", scoped[0].Title)
}

func TestTimelineStoreClearRemovesAllEvents(t *testing.T) {
	client := newTestClient(t)
	assetID, _ := seedAssetAndSession(t, client)
	store := NewTimelineStore(client)
	ctx := context.Background()

	require.NoError(t, store.AppendTimeline(ctx, assetID, "hunt.started", "analyst-1", map[string]string{"hunt_id": "hunt-1"}))
	require.NoError(t, store.AppendTimeline(ctx, assetID, "hunt.completed", "", map[string]string{"hunt_id": "hunt-1"}))

	require.NoError(t, store.ClearTimeline(ctx, assetID))

	events, err := store.ListTimeline(ctx, assetID, 0)
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestReportStoreListBySessionAndAssetAndDelete(t *testing.T) {
	client := newTestClient(t)
	assetID, sessionID := seedAssetAndSession(t, client)
	seedHunt(t, client, sessionID)
	store := NewReportStore(client)
	ctx := context.Background()

	require.NoError(t, store.SaveAIReport(ctx, "hunt-1", sessionID, assetID, "anthropic", "claude-sonnet-4-6", "report one", "", nil, nil, nil, ""))
	require.NoError(t, store.SaveAIReport(ctx, "hunt-1", sessionID, assetID, "anthropic", "claude-sonnet-4-6", "report two", "", nil, nil, nil, ""))

	bySession, err := store.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, bySession, 2)

	byAsset, err := store.ListByAsset(ctx, assetID)
	require.NoError(t, err)
	require.Len(t, byAsset, 2)

	require.NoError(t, store.Delete(ctx, bySession[0].ID))
	byAsset, err = store.ListByAsset(ctx, assetID)
	require.NoError(t, err)
	require.Len(t, byAsset, 1)
}
