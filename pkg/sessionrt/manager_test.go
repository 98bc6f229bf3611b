package sessionrt

import (
	"context"
	"testing"
	"time"

	"github.com/sablecore/huntbay/pkg/events"
	"github.com/sablecore/huntbay/pkg/sshconn"
)

func newTestManager(t *testing.T, factory ClientFactory) *Manager {
	t.Helper()
	pub := events.NewPublisher(events.NewBus(events.DefaultQueueSize), nil)
	return NewManager(pub, factory, 3)
}

func TestManagerCreateAndGet(t *testing.T) {
	m := newTestManager(t, func(sessionID, assetID string) SSHClient { return &fakeSSH{} })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	desc := Descriptor{SessionID: "s1", AssetID: "a1", AnalystID: "analyst1"}
	owner, err := m.Create(ctx, desc, sshconn.Target{Host: "h", Port: 22}, sshconn.AuthMethod{Username: "root", Password: "x"}, ModeAI)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := m.Get("s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != owner {
		t.Fatal("Get returned a different Owner than Create produced")
	}
}

func TestManagerRejectsDuplicateActiveSession(t *testing.T) {
	m := newTestManager(t, func(sessionID, assetID string) SSHClient { return &fakeSSH{} })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	desc1 := Descriptor{SessionID: "s1", AssetID: "a1", AnalystID: "analyst1"}
	if _, err := m.Create(ctx, desc1, sshconn.Target{Host: "h", Port: 22}, sshconn.AuthMethod{Username: "root", Password: "x"}, ModeAI); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	desc2 := Descriptor{SessionID: "s2", AssetID: "a1", AnalystID: "analyst1"}
	if _, err := m.Create(ctx, desc2, sshconn.Target{Host: "h", Port: 22}, sshconn.AuthMethod{Username: "root", Password: "x"}, ModeAI); err != ErrAlreadyActive {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
}

func TestManagerAllowsRecreateAfterTermination(t *testing.T) {
	m := newTestManager(t, func(sessionID, assetID string) SSHClient { return &fakeSSH{} })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	desc1 := Descriptor{SessionID: "s1", AssetID: "a1", AnalystID: "analyst1"}
	owner1, err := m.Create(ctx, desc1, sshconn.Target{Host: "h", Port: 22}, sshconn.AuthMethod{Username: "root", Password: "x"}, ModeAI)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	waitForState(t, owner1, StateConnected)
	if err := owner1.Close(ctx, "analyst1"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-owner1.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("owner1 did not terminate")
	}

	desc2 := Descriptor{SessionID: "s2", AssetID: "a1", AnalystID: "analyst1"}
	if _, err := m.Create(ctx, desc2, sshconn.Target{Host: "h", Port: 22}, sshconn.AuthMethod{Username: "root", Password: "x"}, ModeAI); err != nil {
		t.Fatalf("expected Create to succeed after prior session terminated, got %v", err)
	}
}

func TestManagerGetMissingSessionFails(t *testing.T) {
	m := newTestManager(t, func(sessionID, assetID string) SSHClient { return &fakeSSH{} })
	if _, err := m.Get("nonexistent"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
