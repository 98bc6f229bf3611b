package intel

import (
	"context"
	"fmt"
	"time"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/hunt"
)

// HuntStore persists Hunt row lifecycle, satisfying hunt.HuntRecorder.
type HuntStore struct {
	client *ent.Client
}

// NewHuntStore constructs a HuntStore over client.
func NewHuntStore(client *ent.Client) *HuntStore {
	return &HuntStore{client: client}
}

// CreateHunt implements hunt.HuntRecorder. The row starts in "running"
// since the Scheduler only calls this once it's about to execute the
// first step (spec §4.4 step 2).
func (s *HuntStore) CreateHunt(ctx context.Context, huntID, sessionID, moduleID string, runAI bool) error {
	err := s.client.Hunt.Create().
		SetID(huntID).
		SetSessionID(sessionID).
		SetModuleID(moduleID).
		SetRunAI(runAI).
		SetStatus(hunt.StatusRunning).
		SetStartedAt(time.Now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("intel: creating hunt %s: %w", huntID, err)
	}
	return nil
}

// terminalStatuses are the Hunt.status values after which ended_at is set.
var terminalStatuses = map[string]bool{
	"completed": true,
	"failed":    true,
	"cancelled": true,
}

// UpdateHuntStatus implements hunt.HuntRecorder.
func (s *HuntStore) UpdateHuntStatus(ctx context.Context, huntID, status string, findingsCount int) error {
	update := s.client.Hunt.UpdateOneID(huntID).
		SetStatus(hunt.Status(status)).
		SetFindingsCount(findingsCount)
	if terminalStatuses[status] {
		update = update.SetEndedAt(time.Now())
	}
	if err := update.Exec(ctx); err != nil {
		return fmt.Errorf("intel: updating hunt %s status to %s: %w", huntID, status, err)
	}
	return nil
}
