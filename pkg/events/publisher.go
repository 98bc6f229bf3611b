package events

import (
	"context"
	"log/slog"
)

// TimelineRecorder persists a durable timeline row for events the spec
// requires to survive past their in-memory broadcast (spec §4.6). Satisfied
// by intel.TimelineStore; kept as a narrow interface here to avoid an import cycle
// between pkg/events and pkg/intel.
type TimelineRecorder interface {
	AppendTimeline(ctx context.Context, assetID, eventType, analystID string, payload any) error
}

// Publisher is the single point every component (C2-C6) goes through to
// emit events onto the Bus. It fans a Session event out to both the
// session:<id> room and the owning asset:<id> room, and — for event kinds
// the spec marks durable — persists a TimelineEvent row first.
//
// Persist-then-broadcast mirrors the teacher's persistAndNotify ordering
// (commit before NOTIFY) without needing a transaction: the bus has no
// durability of its own, so a dropped event is only ever a notification
// loss, never a data loss, as long as the timeline write lands first.
type Publisher struct {
	bus      *Bus
	timeline TimelineRecorder
}

// NewPublisher constructs a Publisher. timeline may be nil in tests that
// don't care about durable timeline rows.
func NewPublisher(bus *Bus, timeline TimelineRecorder) *Publisher {
	return &Publisher{bus: bus, timeline: timeline}
}

func (p *Publisher) publish(sessionID, assetID string, typ Type, payload any) {
	evt := Event{Type: typ, Wall: nowFunc(), SessionID: sessionID, Payload: payload}
	if sessionID != "" {
		p.bus.Publish(SessionRoom(sessionID), evt)
	}
	if assetID != "" {
		p.bus.Publish(AssetRoom(assetID), evt)
	}
}

func (p *Publisher) recordTimeline(ctx context.Context, assetID string, typ Type, analystID string, payload any) {
	if p.timeline == nil || assetID == "" {
		return
	}
	if err := p.timeline.AppendTimeline(ctx, assetID, string(typ), analystID, payload); err != nil {
		slog.Warn("failed to record timeline event", "event_type", typ, "asset_id", assetID, "error", err)
	}
}

// PublishSessionState emits session.created/state_changed/locked/unlocked/
// terminated; the caller passes the kind as typ so all of them share one
// entrypoint instead of one method per sub-kind.
func (p *Publisher) PublishSessionState(typ Type, payload SessionStatePayload) {
	p.publish(payload.SessionID, payload.AssetID, typ, payload)
}

// PublishSessionModeChanged emits session.mode_changed.
func (p *Publisher) PublishSessionModeChanged(payload SessionModeChangedPayload) {
	p.publish(payload.SessionID, "", TypeSessionModeChanged, payload)
}

// PublishSSHStatus emits ssh.connecting/connected/disconnected/error.
func (p *Publisher) PublishSSHStatus(typ Type, payload SSHStatusPayload) {
	p.publish(payload.SessionID, payload.AssetID, typ, payload)
}

// PublishSSHCommand emits ssh.command_started/output/completed.
func (p *Publisher) PublishSSHCommand(typ Type, payload SSHCommandPayload) {
	p.publish(payload.SessionID, "", typ, payload)
}

// PublishTerminal emits terminal.started/data/resize/closed.
func (p *Publisher) PublishTerminal(typ Type, payload TerminalDataPayload) {
	p.publish(payload.SessionID, "", typ, payload)
}

// PublishHuntLifecycle emits hunt.started/completed/failed/cancelled.
func (p *Publisher) PublishHuntLifecycle(typ Type, payload HuntLifecyclePayload) {
	p.publish(payload.SessionID, "", typ, payload)
}

// PublishHuntStep emits hunt.step_started/step_completed.
func (p *Publisher) PublishHuntStep(typ Type, payload HuntStepPayload) {
	p.publish(payload.SessionID, "", typ, payload)
}

// PublishHuntObservation emits hunt.observation.
func (p *Publisher) PublishHuntObservation(payload HuntObservationPayload) {
	p.publish(payload.SessionID, "", TypeHuntObservation, payload)
}

// PublishAIReasoning emits ai.reasoning_started/chunk/completed.
func (p *Publisher) PublishAIReasoning(typ Type, payload AIReasoningPayload) {
	p.publish(payload.SessionID, "", typ, payload)
}

// PublishAIError emits ai.error.
func (p *Publisher) PublishAIError(payload AIErrorPayload) {
	p.publish(payload.SessionID, "", TypeAIError, payload)
}

// PublishAIFinding emits ai.finding_generated and records a durable timeline
// row, since a finding must outlive the WebSocket connection that first
// observed it.
func (p *Publisher) PublishAIFinding(ctx context.Context, analystID string, payload AIFindingGeneratedPayload) {
	p.recordTimeline(ctx, payload.AssetID, TypeAIFindingGenerated, analystID, payload)
	p.publish(payload.SessionID, payload.AssetID, TypeAIFindingGenerated, payload)
}

// PublishTimelineEvent emits timeline.event_recorded after the caller has
// already durably appended the row (used by C6 itself, which owns the
// write and only needs the broadcast half from this method).
func (p *Publisher) PublishTimelineEvent(payload TimelineEventRecordedPayload) {
	p.publish("", payload.AssetID, TypeTimelineEventRecorded, payload)
}

// PublishSystemError emits system.error to the global room.
func (p *Publisher) PublishSystemError(payload SystemErrorPayload) {
	p.bus.PublishGlobal(Event{Type: TypeSystemError, Wall: nowFunc(), Payload: payload})
}
