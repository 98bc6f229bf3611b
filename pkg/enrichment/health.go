package enrichment

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultHealthInterval mirrors pkg/mcp's MCPHealthInterval constant shape:
// enrichment drivers are external HTTP services, worth probing at the same
// cadence an MCP server connection is.
const DefaultHealthInterval = 30 * time.Second

// DefaultPingTimeout bounds a single driver Ping call.
const DefaultPingTimeout = 5 * time.Second

// Status captures the health check result for a single driver.
type Status struct {
	DriverName string    `json:"driver_name"`
	Healthy    bool      `json:"healthy"`
	LastCheck  time.Time `json:"last_check"`
	Error      string    `json:"error,omitempty"`
}

// HealthMonitor periodically pings every Router driver. Grounded on
// pkg/mcp/health.go's Start/Stop/loop/checkAll shape, stripped of its tool
// cache and SystemWarningsService dependency — an enrichment driver is a
// single Ping call, not a session-scoped tool connection.
type HealthMonitor struct {
	router        *Router
	checkInterval time.Duration
	pingTimeout   time.Duration

	statusesMu sync.RWMutex
	statuses   map[string]*Status

	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
}

// NewHealthMonitor creates a monitor over every driver registered in router.
func NewHealthMonitor(router *Router) *HealthMonitor {
	return &HealthMonitor{
		router:        router,
		checkInterval: DefaultHealthInterval,
		pingTimeout:   DefaultPingTimeout,
		statuses:      make(map[string]*Status),
		logger:        slog.Default().With("component", "enrichment-health"),
	}
}

// Start launches the background probe loop. No-op if already running.
func (m *HealthMonitor) Start(ctx context.Context) {
	if m.cancel != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.loop(ctx)
}

// Stop halts the probe loop and waits for it to exit. Safe to call more
// than once.
func (m *HealthMonitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}

func (m *HealthMonitor) loop(ctx context.Context) {
	defer close(m.done)

	m.checkAll(ctx)

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkAll(ctx)
		}
	}
}

func (m *HealthMonitor) checkAll(ctx context.Context) {
	for _, name := range m.router.Names() {
		m.checkOne(ctx, name)
	}
}

func (m *HealthMonitor) checkOne(ctx context.Context, name string) {
	d, ok := m.router.Driver(name)
	if !ok {
		return
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.pingTimeout)
	defer cancel()

	err := d.Ping(pingCtx)
	status := &Status{DriverName: name, LastCheck: time.Now()}
	if err != nil {
		status.Error = err.Error()
		m.logger.Warn("enrichment driver unhealthy", "driver", name, "error", err)
	} else {
		status.Healthy = true
	}

	m.statusesMu.Lock()
	m.statuses[name] = status
	m.statusesMu.Unlock()
}

// GetStatuses returns a snapshot of every driver's last-known health.
func (m *HealthMonitor) GetStatuses() map[string]*Status {
	m.statusesMu.RLock()
	defer m.statusesMu.RUnlock()
	out := make(map[string]*Status, len(m.statuses))
	for k, v := range m.statuses {
		cp := *v
		out[k] = &cp
	}
	return out
}

// IsHealthy reports whether every monitored driver's last check succeeded.
// Returns false before the first check completes.
func (m *HealthMonitor) IsHealthy() bool {
	m.statusesMu.RLock()
	defer m.statusesMu.RUnlock()
	if len(m.statuses) == 0 {
		return false
	}
	for _, s := range m.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}
