// Package admission persists the one-live-session-per-(asset,analyst)
// invariant across process restarts (spec §4.3, C8). pkg/sessionrt.Manager
// enforces the same rule in-process for the lifetime of this instance;
// Controller backs it with a row in Postgres so a crash or redeploy can't
// let two Owners believe they each hold exclusive write access to the same
// asset for the same analyst.
package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/session"
	"github.com/sablecore/huntbay/pkg/config"
)

// ErrAlreadyActive is returned by Claim when a non-terminal Session row
// already exists for the requested (asset, analyst) pair.
var ErrAlreadyActive = errors.New("admission: a non-terminal session already exists for this asset and analyst")

// ErrRateLimited is returned by Claim when granting it would put either the
// analyst or the asset over its configured concurrent-session cap.
var ErrRateLimited = errors.New("admission: concurrent session limit reached")

// nonTerminalStates lists every session.State value that counts as "still
// live" for admission purposes — every state except terminated.
var nonTerminalStates = []session.State{
	session.StateInitializing,
	session.StateConnecting,
	session.StateConnected,
	session.StateRunning,
	session.StatePaused,
	session.StateLocked,
	session.StateDisconnected,
	session.StateFailed,
}

// Controller claims and releases the durable admission row backing a
// Session. It holds no in-memory state of its own — pkg/sessionrt.Manager
// is the fast path; Controller is only consulted at Session creation and
// termination.
type Controller struct {
	client *ent.Client
	limits *config.RateLimitConfig
}

// New constructs a Controller over client. limits is optional; a nil
// limits disables the per-analyst/per-asset concurrent-session caps and
// only enforces the one-live-session-per-pair invariant.
func New(client *ent.Client, limits *config.RateLimitConfig) *Controller {
	return &Controller{client: client, limits: limits}
}

// Claim atomically checks for an existing non-terminal session on
// (assetID, analystID) and, if none exists, inserts a new Session row in
// the initializing state — all within one transaction guarded by
// FOR UPDATE SKIP LOCKED so concurrent claims on the same pair serialize
// instead of racing. Returns the new session's ID, or ErrAlreadyActive.
func (c *Controller) Claim(ctx context.Context, assetID, analystID string, mode session.Mode) (string, error) {
	tx, err := c.client.Tx(ctx)
	if err != nil {
		return "", fmt.Errorf("admission: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := tx.Session.Query().
		Where(
			session.AssetIDEQ(assetID),
			session.AnalystIDEQ(analystID),
			session.StateIn(nonTerminalStates...),
		).
		ForUpdate(sql.WithLockAction(sql.SkipLocked)).
		First(ctx)
	if err != nil && !ent.IsNotFound(err) {
		return "", fmt.Errorf("admission: query existing session: %w", err)
	}
	if existing != nil {
		return "", ErrAlreadyActive
	}

	if c.limits != nil {
		analystCount, err := tx.Session.Query().
			Where(session.AnalystIDEQ(analystID), session.StateIn(nonTerminalStates...)).
			Count(ctx)
		if err != nil {
			return "", fmt.Errorf("admission: count analyst sessions: %w", err)
		}
		if analystCount >= c.limits.MaxSessionsPerAnalyst {
			return "", ErrRateLimited
		}

		assetCount, err := tx.Session.Query().
			Where(session.AssetIDEQ(assetID), session.StateIn(nonTerminalStates...)).
			Count(ctx)
		if err != nil {
			return "", fmt.Errorf("admission: count asset sessions: %w", err)
		}
		if assetCount >= c.limits.MaxSessionsPerAsset {
			return "", ErrRateLimited
		}
	}

	created, err := tx.Session.Create().
		SetID(uuid.NewString()).
		SetAssetID(assetID).
		SetAnalystID(analystID).
		SetMode(mode).
		SetState(session.StateInitializing).
		Save(ctx)
	if err != nil {
		return "", fmt.Errorf("admission: create session row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("admission: commit claim: %w", err)
	}

	return created.ID, nil
}

// Sync persists state as the durable record of sessionID's current state,
// called by the Gateway on every session.state_changed / session.locked /
// session.unlocked event so the row always reflects the owning Owner's
// last known transition. lockedBy is only written when state is "locked";
// any other state clears it.
func (c *Controller) Sync(ctx context.Context, sessionID string, state session.State, lockedBy string) error {
	update := c.client.Session.UpdateOneID(sessionID).SetState(state)
	if state == session.StateLocked && lockedBy != "" {
		update = update.SetLockedBy(lockedBy)
	} else {
		update = update.ClearLockedBy()
	}
	if state == session.StateTerminated {
		update = update.SetTerminatedAt(time.Now())
	}
	if _, err := update.Save(ctx); err != nil {
		return fmt.Errorf("admission: sync session %s: %w", sessionID, err)
	}
	return nil
}

// Release marks sessionID terminated, freeing its (asset, analyst) pair
// for a future Claim. Safe to call more than once; a session already
// terminated is left unchanged.
func (c *Controller) Release(ctx context.Context, sessionID string) error {
	row, err := c.client.Session.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("admission: release session %s: %w", sessionID, err)
	}
	if row.State == session.StateTerminated {
		return nil
	}
	return c.Sync(ctx, sessionID, session.StateTerminated, "")
}

// Reconcile scans for Session rows left non-terminal by a process that
// crashed without reaching Release, and marks them terminated so their
// (asset, analyst) pairs aren't permanently stuck. Call once at startup
// before the Gateway begins accepting new sessions.
func (c *Controller) Reconcile(ctx context.Context) (int, error) {
	n, err := c.client.Session.Update().
		Where(session.StateIn(nonTerminalStates...)).
		SetState(session.StateTerminated).
		SetTerminatedAt(time.Now()).
		Save(ctx)
	if err != nil {
		return 0, fmt.Errorf("admission: reconcile stale sessions: %w", err)
	}
	return n, nil
}
