package intel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sablecore/huntbay/ent"
	"github.com/sablecore/huntbay/ent/timelineevent"
)

// TimelineStore persists the append-only per-asset TimelineEvent log (spec
// §3), satisfying events.TimelineRecorder. The Publisher records only
// ai.finding_generated events (PublishAIFinding) here; other Event Bus
// messages are broadcast without a timeline row.
type TimelineStore struct {
	client *ent.Client
}

// NewTimelineStore constructs a TimelineStore over client.
func NewTimelineStore(client *ent.Client) *TimelineStore {
	return &TimelineStore{client: client}
}

// AppendTimeline implements events.TimelineRecorder. payload is whatever
// typed struct the Publisher attached to the event; it's round-tripped
// through JSON since TimelineEvent.payload is a generic JSON column.
func (s *TimelineStore) AppendTimeline(ctx context.Context, assetID, eventType, analystID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("intel: marshaling timeline payload: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("intel: unmarshaling timeline payload: %w", err)
	}

	create := s.client.TimelineEvent.Create().
		SetID(uuid.NewString()).
		SetAssetID(assetID).
		SetEventType(eventType).
		SetPayload(m)
	if analystID != "" {
		create = create.SetAnalystID(analystID)
	}

	if err := create.Exec(ctx); err != nil {
		return fmt.Errorf("intel: appending timeline event: %w", err)
	}
	return nil
}

// ListTimeline returns assetID's timeline ordered oldest-first (spec §3's
// read-side companion to AppendTimeline), grounded on tarsy's
// TimelineService.GetSessionTimeline ordering convention.
func (s *TimelineStore) ListTimeline(ctx context.Context, assetID string, limit int) ([]*ent.TimelineEvent, error) {
	q := s.client.TimelineEvent.Query().
		Where(timelineevent.AssetIDEQ(assetID)).
		Order(ent.Asc(timelineevent.FieldOccurredAt))
	if limit > 0 {
		q = q.Limit(limit)
	}
	events, err := q.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("intel: listing timeline for asset %s: %w", assetID, err)
	}
	return events, nil
}

// ClearTimeline deletes every TimelineEvent row for assetID (spec §6's
// intelligence clear_timeline operation). Unlike Finding deletion, there is
// no durability contract over a timeline once an operator asks to clear it.
func (s *TimelineStore) ClearTimeline(ctx context.Context, assetID string) error {
	if _, err := s.client.TimelineEvent.Delete().
		Where(timelineevent.AssetIDEQ(assetID)).
		Exec(ctx); err != nil {
		return fmt.Errorf("intel: clearing timeline for asset %s: %w", assetID, err)
	}
	return nil
}
