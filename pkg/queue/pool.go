package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sablecore/huntbay/pkg/config"
	"github.com/sablecore/huntbay/pkg/hunt"
	"github.com/sablecore/huntbay/pkg/huntmodule"
)

// Pool is a bounded, channel-backed worker pool fronting an Executor. It
// implements hunt.AIPipeline itself: the Scheduler calls Pool.Run exactly
// as it would call the Pipeline directly, but the call now blocks on a
// buffered channel instead of running inline, so at most cfg.AIWorkerCount
// AI Driver calls are ever in flight process-wide.
type Pool struct {
	cfg      *config.QueueConfig
	executor Executor
	jobs     chan *job

	mu      sync.RWMutex
	stats   []WorkerHealth
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewPool constructs a Pool. Workers are not started until Start is called.
func NewPool(cfg *config.QueueConfig, executor Executor) *Pool {
	return &Pool{
		cfg:      cfg,
		executor: executor,
		jobs:     make(chan *job, cfg.AIQueueCapacity),
		stats:    make([]WorkerHealth, cfg.AIWorkerCount),
		stopCh:   make(chan struct{}),
	}
}

// Start spawns cfg.AIWorkerCount worker goroutines draining the job queue.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.cfg.AIWorkerCount; i++ {
		id := fmt.Sprintf("ai-worker-%d", i)
		p.mu.Lock()
		p.stats[i] = WorkerHealth{ID: id, Status: WorkerStatusIdle, LastActivity: time.Now()}
		p.mu.Unlock()

		p.wg.Add(1)
		go p.runWorker(ctx, i, id)
	}
	slog.Info("AI job pool started", "worker_count", p.cfg.AIWorkerCount, "queue_capacity", p.cfg.AIQueueCapacity)
}

// Stop signals workers to drain in-flight jobs and stop, bounded by
// cfg.GracefulShutdownTimeout.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.stopCh)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("AI job pool stopped")
	case <-time.After(p.cfg.GracefulShutdownTimeout):
		slog.Warn("AI job pool shutdown timed out; abandoning in-flight jobs")
	}
}

// Run implements hunt.AIPipeline: it submits a job and blocks until a
// worker produces a result, ctx is cancelled, or the pool has stopped.
func (p *Pool) Run(ctx context.Context, huntID, sessionID, assetID string, module *huntmodule.Module, observations []hunt.Observation) (int, error) {
	p.mu.RLock()
	stopped := p.stopped
	p.mu.RUnlock()
	if stopped {
		return 0, ErrPoolStopped
	}

	j := &job{
		ctx:          ctx,
		huntID:       huntID,
		sessionID:    sessionID,
		assetID:      assetID,
		module:       module,
		observations: observations,
		result:       make(chan jobResult, 1),
	}

	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-p.stopCh:
		return 0, ErrPoolStopped
	}

	select {
	case r := <-j.result:
		return r.findings, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Health reports the pool's current depth and per-worker status.
func (p *Pool) Health() PoolHealth {
	p.mu.RLock()
	defer p.mu.RUnlock()

	active := 0
	stats := make([]WorkerHealth, len(p.stats))
	for i, s := range p.stats {
		stats[i] = s
		if s.Status == WorkerStatusWorking {
			active++
		}
	}

	return PoolHealth{
		TotalWorkers:  len(p.stats),
		ActiveWorkers: active,
		QueueDepth:    len(p.jobs),
		QueueCapacity: cap(p.jobs),
		WorkerStats:   stats,
	}
}

func (p *Pool) runWorker(ctx context.Context, idx int, id string) {
	defer p.wg.Done()
	log := slog.With("worker_id", id)
	log.Info("AI worker started")

	for {
		select {
		case <-p.stopCh:
			log.Info("AI worker shutting down")
			return
		case <-ctx.Done():
			log.Info("AI worker context cancelled")
			return
		case j := <-p.jobs:
			p.process(ctx, idx, id, j)
		}
	}
}

func (p *Pool) process(parentCtx context.Context, idx int, id string, j *job) {
	p.setStatus(idx, WorkerStatusWorking, j.huntID)
	defer p.setStatus(idx, WorkerStatusIdle, "")

	jobCtx := j.ctx
	var cancel context.CancelFunc
	if p.cfg.JobTimeout > 0 {
		jobCtx, cancel = context.WithTimeout(j.ctx, p.cfg.JobTimeout)
		defer cancel()
	}

	findings, err := p.executor.Run(jobCtx, j.huntID, j.sessionID, j.assetID, j.module, j.observations)
	if err != nil {
		slog.Warn("AI pipeline job failed", "worker_id", id, "hunt_id", j.huntID, "error", err)
	}

	select {
	case j.result <- jobResult{findings: findings, err: err}:
	case <-parentCtx.Done():
	}

	p.mu.Lock()
	p.stats[idx].JobsProcessed++
	p.mu.Unlock()
}

func (p *Pool) setStatus(idx int, status WorkerStatus, huntID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats[idx].Status = status
	p.stats[idx].CurrentHuntID = huntID
	p.stats[idx].LastActivity = time.Now()
}
