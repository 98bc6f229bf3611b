// Package queue implements the bounded, in-memory AI-job worker pool that
// fronts the AI Pipeline (C5). Hunt completion enqueues a job here rather
// than invoking the pipeline inline, so a burst of concurrently completing
// Hunts across many Sessions cannot start an unbounded number of AI Driver
// calls at once.
//
// This is a lean, channel-based replacement for tarsy's pkg/queue: tarsy's
// WorkerPool/Worker poll a Postgres table with SELECT ... FOR UPDATE SKIP
// LOCKED because AlertSession rows ARE the work queue there. This repo's
// Hunts are never queued in the database — a Hunt only exists once its
// owning Session has already claimed exclusive execution rights, so the
// only thing left to bound is the subordinate AI Pipeline fan-out.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/sablecore/huntbay/pkg/hunt"
	"github.com/sablecore/huntbay/pkg/huntmodule"
)

// ErrPoolStopped is returned by Run once Stop has been called.
var ErrPoolStopped = errors.New("queue: pool is stopped")

// Executor runs the AI Pipeline over a completed hunt's Observations.
// Satisfied by *pkg/ai.Pipeline.
type Executor interface {
	Run(ctx context.Context, huntID, sessionID, assetID string, module *huntmodule.Module, observations []hunt.Observation) (findingsCount int, err error)
}

// WorkerStatus mirrors tarsy's idle/working worker health states.
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// WorkerHealth reports one worker goroutine's current state.
type WorkerHealth struct {
	ID             string       `json:"id"`
	Status         WorkerStatus `json:"status"`
	CurrentHuntID  string       `json:"current_hunt_id,omitempty"`
	JobsProcessed  int          `json:"jobs_processed"`
	LastActivity   time.Time    `json:"last_activity"`
}

// PoolHealth reports the whole pool's state, trimmed of tarsy's
// PoolHealth DB-reachability fields — this pool has no database of its own.
type PoolHealth struct {
	TotalWorkers  int            `json:"total_workers"`
	ActiveWorkers int            `json:"active_workers"`
	QueueDepth    int            `json:"queue_depth"`
	QueueCapacity int            `json:"queue_capacity"`
	WorkerStats   []WorkerHealth `json:"worker_stats"`
}

// job carries one AI Pipeline invocation plus a channel for its result.
type job struct {
	ctx          context.Context
	huntID       string
	sessionID    string
	assetID      string
	module       *huntmodule.Module
	observations []hunt.Observation
	result       chan jobResult
}

type jobResult struct {
	findings int
	err      error
}
