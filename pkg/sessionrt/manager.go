package sessionrt

import (
	"context"
	"fmt"
	"sync"

	"github.com/sablecore/huntbay/pkg/events"
	"github.com/sablecore/huntbay/pkg/sshconn"
)

// ErrSessionNotFound is returned when a requested session ID has no live
// Owner in the Manager.
var ErrSessionNotFound = fmt.Errorf("sessionrt: session not found")

// ErrAlreadyActive is returned by Create when the (asset, analyst) pair
// already has a non-terminal session, enforcing spec §4.3 / C8's one-live-
// session-per-(analyst,asset) admission rule. The Manager only guards the
// in-process instance it owns; pkg/admission additionally persists the
// same invariant across process restarts.
var ErrAlreadyActive = fmt.Errorf("sessionrt: session already active for this analyst and asset")

// ClientFactory constructs a fresh SSHClient per Session, so each Owner
// gets its own *sshconn.Connector bound to its own events.Publisher scope.
type ClientFactory func(sessionID, assetID string) SSHClient

// Manager owns every live Owner in this process. There is exactly one
// Manager per running instance — the spec's no-clustering Non-goal means a
// Session's Owner only ever exists in the process that accepted it.
type Manager struct {
	mu       sync.RWMutex
	owners   map[string]*Owner
	byWriter map[string]string // "assetID|analystID" -> sessionID, for admission dedup

	pub           *events.Publisher
	newClient     ClientFactory
	maxReconnects int
}

// NewManager constructs an empty Manager. newClient is called once per
// Create to build that Session's SSHClient (normally wrapping
// sshconn.NewConnector with an eventAdapter bound to the new session ID).
func NewManager(pub *events.Publisher, newClient ClientFactory, maxReconnects int) *Manager {
	return &Manager{
		owners:        make(map[string]*Owner),
		byWriter:      make(map[string]string),
		pub:           pub,
		newClient:     newClient,
		maxReconnects: maxReconnects,
	}
}

// Create starts a new Owner for desc and returns it. Fails with
// ErrAlreadyActive if the (AssetID, AnalystID) pair already has a live,
// non-terminal session in this Manager.
func (m *Manager) Create(ctx context.Context, desc Descriptor, target sshconn.Target, auth sshconn.AuthMethod, initialMode Mode) (*Owner, error) {
	key := writerKey(desc.AssetID, desc.AnalystID)

	m.mu.Lock()
	if existingID, ok := m.byWriter[key]; ok {
		if owner, ok := m.owners[existingID]; ok {
			if snap, err := owner.Snapshot(ctx); err == nil && !snap.State.Terminal() {
				m.mu.Unlock()
				return nil, ErrAlreadyActive
			}
		}
	}

	client := m.newClient(desc.SessionID, desc.AssetID)
	owner := NewOwner(desc, target, auth, client, m.pub, initialMode, m.maxReconnects)
	m.owners[desc.SessionID] = owner
	m.byWriter[key] = desc.SessionID
	m.mu.Unlock()

	go owner.Run(ctx)
	go m.reapOnExit(desc.SessionID, key, owner)

	return owner, nil
}

// reapOnExit removes owner's bookkeeping once its goroutine has exited, so
// a future Create for the same (asset, analyst) pair isn't blocked by a
// terminated Session forever sitting in byWriter.
func (m *Manager) reapOnExit(sessionID, writerKey string, owner *Owner) {
	<-owner.Done()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byWriter[writerKey] == sessionID {
		delete(m.byWriter, writerKey)
	}
}

// Get returns the Owner for sessionID, or ErrSessionNotFound.
func (m *Manager) Get(sessionID string) (*Owner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owner, ok := m.owners[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return owner, nil
}

// List returns every Owner this Manager has ever created, including
// terminated ones still being drained by callers. Callers that want only
// live sessions should filter on Snapshot().State.Terminal().
func (m *Manager) List() []*Owner {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owners := make([]*Owner, 0, len(m.owners))
	for _, o := range m.owners {
		owners = append(owners, o)
	}
	return owners
}

// Remove drops sessionID's bookkeeping entirely. Call only after the
// Owner's Done channel has closed and its terminal Snapshot has been
// durably recorded (C6 intelligence store), to avoid losing the last
// known state.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.owners, sessionID)
}

func writerKey(assetID, analystID string) string {
	return assetID + "|" + analystID
}
