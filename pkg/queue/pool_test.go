package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablecore/huntbay/pkg/config"
	"github.com/sablecore/huntbay/pkg/hunt"
	"github.com/sablecore/huntbay/pkg/huntmodule"
)

type fakeExecutor struct {
	concurrent int32
	maxSeen    int32
	delay      time.Duration
	err        error
}

func (f *fakeExecutor) Run(ctx context.Context, huntID, sessionID, assetID string, module *huntmodule.Module, observations []hunt.Observation) (int, error) {
	n := atomic.AddInt32(&f.concurrent, 1)
	defer atomic.AddInt32(&f.concurrent, -1)
	for {
		old := atomic.LoadInt32(&f.maxSeen)
		if n <= old || atomic.CompareAndSwapInt32(&f.maxSeen, old, n) {
			break
		}
	}
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func testConfig() *config.QueueConfig {
	return &config.QueueConfig{
		AIWorkerCount:           2,
		AIQueueCapacity:         8,
		JobTimeout:              time.Second,
		GracefulShutdownTimeout: time.Second,
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	exec := &fakeExecutor{delay: 50 * time.Millisecond}
	pool := NewPool(testConfig(), exec)
	pool.Start(context.Background())
	defer pool.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			findings, err := pool.Run(context.Background(), "hunt", "session", "asset", nil, nil)
			assert.NoError(t, err)
			assert.Equal(t, 1, findings)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&exec.maxSeen), int32(2))
}

func TestPool_RunPropagatesExecutorError(t *testing.T) {
	exec := &fakeExecutor{err: assert.AnError}
	pool := NewPool(testConfig(), exec)
	pool.Start(context.Background())
	defer pool.Stop()

	_, err := pool.Run(context.Background(), "hunt", "session", "asset", nil, nil)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPool_RunRespectsCallerCancellation(t *testing.T) {
	exec := &fakeExecutor{delay: time.Second}
	pool := NewPool(testConfig(), exec)
	pool.Start(context.Background())
	defer pool.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.Run(ctx, "hunt", "session", "asset", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_RunAfterStopReturnsErrPoolStopped(t *testing.T) {
	exec := &fakeExecutor{}
	pool := NewPool(testConfig(), exec)
	pool.Start(context.Background())
	pool.Stop()

	_, err := pool.Run(context.Background(), "hunt", "session", "asset", nil, nil)
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestPool_StopTwiceDoesNotPanic(t *testing.T) {
	pool := NewPool(testConfig(), &fakeExecutor{})
	pool.Start(context.Background())
	pool.Stop()
	assert.NotPanics(t, func() { pool.Stop() })
}

func TestPool_Health(t *testing.T) {
	exec := &fakeExecutor{delay: 100 * time.Millisecond}
	pool := NewPool(testConfig(), exec)
	pool.Start(context.Background())
	defer pool.Stop()

	go func() { _, _ = pool.Run(context.Background(), "hunt", "session", "asset", nil, nil) }()

	require.Eventually(t, func() bool {
		h := pool.Health()
		return h.ActiveWorkers >= 1
	}, time.Second, 5*time.Millisecond)

	h := pool.Health()
	assert.Equal(t, 2, h.TotalWorkers)
	assert.Equal(t, 8, h.QueueCapacity)
}
