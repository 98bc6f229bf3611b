package events

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ConnectionManager upgrades and tracks WebSocket connections (spec §4.7),
// translating each client's join_session/leave_session/terminal_* messages
// into Bus room subscriptions. One ConnectionManager is shared by the whole
// Gateway process; every Connection runs one forwarding goroutine per
// joined room that reads that room's Bus subscription and writes it to the
// socket, so a slow client never blocks Publish (see Bus.deliver's drop-oldest contract).
type ConnectionManager struct {
	bus *Bus

	mu          sync.RWMutex
	connections map[string]*Connection

	writeTimeout time.Duration
	dispatcher   TerminalDispatcher

	// terminalInputRate/terminalInputBurst bound each connection's
	// terminal_input throughput (spec §4.7, default 64 KiB/s sustained,
	// 256 KiB burst). Zero means unlimited, which is what tests that never
	// call NewConnectionManagerWithLimits want.
	terminalInputRate  int
	terminalInputBurst int
}

// TerminalDispatcher routes the WebSocket actions that bypass the Bus
// entirely (spec §4.2, §4.7): terminal_input/terminal_resize/toggle_mode
// write straight through the single-writer Owner (C3) instead of fanning
// out through a room, so ConnectionManager hands them off here rather than
// handling them itself. Satisfied by pkg/api's session dispatch, which
// looks the target Owner up by session id.
type TerminalDispatcher interface {
	TerminalInput(ctx context.Context, sessionID, analystID string, data []byte) error
	TerminalResize(ctx context.Context, sessionID string, cols, rows int) error
	EnterMode(ctx context.Context, sessionID, analystID, mode string) error
}

// SetDispatcher wires d as the handler for terminal_input/terminal_resize/
// toggle_mode messages. Nil (the default) makes those actions silent no-ops,
// which is what tests that only exercise room join/leave/broadcast want.
func (m *ConnectionManager) SetDispatcher(d TerminalDispatcher) {
	m.dispatcher = d
}

// Connection represents a single WebSocket client and the set of rooms it
// has joined. subs is only ever touched from the connection's own read
// loop goroutine, matching the teacher's Connection.subscriptions contract.
type Connection struct {
	ID        string
	Conn      *websocket.Conn
	AnalystID string

	subs map[string]*Subscription // room -> subscription

	// inputLimiter throttles this connection's terminal_input bytes. Nil
	// when the ConnectionManager was constructed without limits.
	inputLimiter *rate.Limiter

	// writeMu serializes writes to Conn: coder/websocket forbids concurrent
	// writer goroutines on one connection, and a Connection may have several
	// forward goroutines (one per joined room) writing to it.
	writeMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewConnectionManager creates a ConnectionManager bound to bus, with no
// terminal_input rate limit. Use NewConnectionManagerWithLimits in
// production wiring.
func NewConnectionManager(bus *Bus, writeTimeout time.Duration) *ConnectionManager {
	return &ConnectionManager{
		bus:          bus,
		connections:  make(map[string]*Connection),
		writeTimeout: writeTimeout,
	}
}

// NewConnectionManagerWithLimits creates a ConnectionManager that caps every
// connection's terminal_input throughput at terminalInputBytesPerSec
// sustained with a terminalInputBurstBytes burst allowance (spec §4.7).
func NewConnectionManagerWithLimits(bus *Bus, writeTimeout time.Duration, terminalInputBytesPerSec, terminalInputBurstBytes int) *ConnectionManager {
	m := NewConnectionManager(bus, writeTimeout)
	m.terminalInputRate = terminalInputBytesPerSec
	m.terminalInputBurst = terminalInputBurstBytes
	return m
}

// HandleConnection manages the lifecycle of a single WebSocket connection.
// Called by the Gateway's WebSocket handler after upgrade. Blocks until the
// connection closes.
func (m *ConnectionManager) HandleConnection(parentCtx context.Context, conn *websocket.Conn, analystID string) {
	connID := uuid.New().String()
	ctx, cancel := context.WithCancel(parentCtx)

	c := &Connection{
		ID:        connID,
		Conn:      conn,
		AnalystID: analystID,
		subs:      make(map[string]*Subscription),
		ctx:       ctx,
		cancel:    cancel,
	}
	if m.terminalInputRate > 0 {
		c.inputLimiter = rate.NewLimiter(rate.Limit(m.terminalInputRate), m.terminalInputBurst)
	}

	m.register(c)
	defer m.unregister(c)

	m.sendJSON(c, map[string]string{
		"type":          "connection.established",
		"connection_id": connID,
	})

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid websocket message", "connection_id", connID, "error", err)
			continue
		}

		m.handleClientMessage(c, &msg)
	}
}

func (m *ConnectionManager) handleClientMessage(c *Connection, msg *ClientMessage) {
	switch msg.Action {
	case "join_session":
		if msg.SessionID == "" {
			m.sendJSON(c, map[string]string{"type": "error", "message": "session_id is required for join_session"})
			return
		}
		m.join(c, SessionRoom(msg.SessionID))
		m.sendJSON(c, map[string]string{"type": "session.joined", "session_id": msg.SessionID})

	case "leave_session":
		if msg.SessionID == "" {
			m.sendJSON(c, map[string]string{"type": "error", "message": "session_id is required for leave_session"})
			return
		}
		m.leave(c, SessionRoom(msg.SessionID))

	case "join_global":
		m.join(c, GlobalRoom)

	case "ping":
		m.sendJSON(c, map[string]string{"type": "pong"})

	case "terminal_input":
		if m.dispatcher == nil || msg.SessionID == "" {
			return
		}
		data, err := base64.StdEncoding.DecodeString(msg.Data)
		if err != nil {
			m.sendJSON(c, map[string]string{"type": "error", "message": "terminal_input data must be base64"})
			return
		}
		if c.inputLimiter != nil && !c.inputLimiter.AllowN(time.Now(), len(data)) {
			m.sendJSON(c, map[string]string{"type": "error", "message": "terminal_input rate limit exceeded"})
			return
		}
		if err := m.dispatcher.TerminalInput(c.ctx, msg.SessionID, c.AnalystID, data); err != nil {
			m.sendJSON(c, map[string]string{"type": "error", "message": err.Error()})
		}

	case "terminal_resize":
		if m.dispatcher == nil || msg.SessionID == "" {
			return
		}
		if err := m.dispatcher.TerminalResize(c.ctx, msg.SessionID, msg.Cols, msg.Rows); err != nil {
			m.sendJSON(c, map[string]string{"type": "error", "message": err.Error()})
		}

	case "toggle_mode":
		if m.dispatcher == nil || msg.SessionID == "" {
			return
		}
		if err := m.dispatcher.EnterMode(c.ctx, msg.SessionID, c.AnalystID, msg.Mode); err != nil {
			m.sendJSON(c, map[string]string{"type": "error", "message": err.Error()})
		}
	}
}

// join subscribes c to room on the Bus and starts its forwarding goroutine.
// Idempotent: re-joining a room the connection already has is a no-op.
func (m *ConnectionManager) join(c *Connection, room string) {
	if _, already := c.subs[room]; already {
		return
	}
	sub := m.bus.Subscribe(room)
	c.subs[room] = sub

	go m.forward(c, sub)
}

// leave unsubscribes c from room, closing the forwarding goroutine.
func (m *ConnectionManager) leave(c *Connection, room string) {
	sub, ok := c.subs[room]
	if !ok {
		return
	}
	delete(c.subs, room)
	sub.Unsubscribe()
}

// forward drains one room subscription onto the WebSocket connection. Exits
// when the subscription is closed (leave/unregister) or the connection's
// context is cancelled. A connection may run one forward goroutine per
// joined room; sendRaw takes c.writeMu so their writes never interleave.
func (m *ConnectionManager) forward(c *Connection, sub *Subscription) {
	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				slog.Warn("failed to marshal event for websocket delivery", "error", err)
				continue
			}
			if err := m.sendRaw(c, data); err != nil {
				slog.Warn("failed to send websocket event", "connection_id", c.ID, "error", err)
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// ActiveConnections returns the count of active WebSocket connections.
func (m *ConnectionManager) ActiveConnections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

func (m *ConnectionManager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[c.ID] = c
}

func (m *ConnectionManager) unregister(c *Connection) {
	for room, sub := range c.subs {
		sub.Unsubscribe()
		delete(c.subs, room)
	}

	m.mu.Lock()
	delete(m.connections, c.ID)
	m.mu.Unlock()

	c.cancel()
	_ = c.Conn.Close(websocket.StatusNormalClosure, "")
}

func (m *ConnectionManager) sendJSON(c *Connection, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("failed to marshal websocket message", "connection_id", c.ID, "error", err)
		return
	}
	if err := m.sendRaw(c, data); err != nil {
		slog.Warn("failed to send websocket message", "connection_id", c.ID, "error", err)
	}
}

func (m *ConnectionManager) sendRaw(c *Connection, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	writeCtx, cancel := context.WithTimeout(c.ctx, m.writeTimeout)
	defer cancel()
	return c.Conn.Write(writeCtx, websocket.MessageText, data)
}
