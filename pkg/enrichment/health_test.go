package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthMonitorMarksHealthyDriverHealthy(t *testing.T) {
	r := NewRouter([]Driver{&fakeDriver{name: "vt"}})
	m := NewHealthMonitor(r)
	m.checkInterval = 20 * time.Millisecond

	m.Start(context.Background())
	defer m.Stop()

	require.Eventually(t, func() bool {
		s, ok := m.GetStatuses()["vt"]
		return ok && s.Healthy
	}, time.Second, 10*time.Millisecond)
	assert.True(t, m.IsHealthy())
}

func TestHealthMonitorMarksFailingDriverUnhealthy(t *testing.T) {
	r := NewRouter([]Driver{&fakeDriver{name: "vt", pingErr: errors.New("timeout")}})
	m := NewHealthMonitor(r)
	m.checkInterval = 20 * time.Millisecond

	m.Start(context.Background())
	defer m.Stop()

	require.Eventually(t, func() bool {
		s, ok := m.GetStatuses()["vt"]
		return ok && !s.Healthy && s.Error != ""
	}, time.Second, 10*time.Millisecond)
	assert.False(t, m.IsHealthy())
}

func TestHealthMonitorIsHealthyFalseBeforeFirstCheck(t *testing.T) {
	r := NewRouter([]Driver{&fakeDriver{name: "vt"}})
	m := NewHealthMonitor(r)
	assert.False(t, m.IsHealthy())
}
