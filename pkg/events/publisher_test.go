package events

import (
	"context"
	"testing"
	"time"
)

type fakeTimelineRecorder struct {
	calls []string
}

func (f *fakeTimelineRecorder) AppendTimeline(_ context.Context, assetID, eventType, _ string, _ any) error {
	f.calls = append(f.calls, assetID+":"+eventType)
	return nil
}

func TestPublisherFansOutToSessionAndAssetRooms(t *testing.T) {
	bus := NewBus(8)
	pub := NewPublisher(bus, nil)

	sessionSub := bus.Subscribe(SessionRoom("s1"))
	assetSub := bus.Subscribe(AssetRoom("asset-1"))
	defer sessionSub.Unsubscribe()
	defer assetSub.Unsubscribe()

	pub.PublishSessionState(TypeSessionCreated, SessionStatePayload{
		SessionID: "s1",
		AssetID:   "asset-1",
		State:     "initializing",
	})

	select {
	case evt := <-sessionSub.Events():
		if evt.Type != TypeSessionCreated {
			t.Fatalf("session room got %s", evt.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("session room did not receive event")
	}

	select {
	case evt := <-assetSub.Events():
		if evt.Type != TypeSessionCreated {
			t.Fatalf("asset room got %s", evt.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("asset room did not receive event")
	}
}

func TestPublisherRecordsTimelineForFindings(t *testing.T) {
	bus := NewBus(8)
	rec := &fakeTimelineRecorder{}
	pub := NewPublisher(bus, rec)

	pub.PublishAIFinding(context.Background(), "analyst-1", AIFindingGeneratedPayload{
		SessionID: "s1",
		HuntID:    "h1",
		AssetID:   "asset-1",
		FindingID: "f1",
		Title:     "unauthorized ssh key",
		Severity:  "high",
	})

	if len(rec.calls) != 1 {
		t.Fatalf("expected one timeline write, got %d", len(rec.calls))
	}
	want := "asset-1:" + string(TypeAIFindingGenerated)
	if rec.calls[0] != want {
		t.Fatalf("got %s, want %s", rec.calls[0], want)
	}
}

func TestPublisherSystemErrorGoesToGlobalRoom(t *testing.T) {
	bus := NewBus(8)
	pub := NewPublisher(bus, nil)

	sub := bus.Subscribe(GlobalRoom)
	defer sub.Unsubscribe()

	pub.PublishSystemError(SystemErrorPayload{Component: "ssh", Message: "boom"})

	select {
	case evt := <-sub.Events():
		if evt.Type != TypeSystemError {
			t.Fatalf("got %s", evt.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("global room did not receive system error")
	}
}
