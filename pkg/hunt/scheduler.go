// Package hunt implements the Hunt Scheduler (C4, spec §4.4): running an
// ordered HuntModule's Steps against a Session's SSH connector, capturing
// Observations, and — when requested — handing the completed run to the
// AI Pipeline.
package hunt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sablecore/huntbay/pkg/events"
	"github.com/sablecore/huntbay/pkg/huntmodule"
	"github.com/sablecore/huntbay/pkg/masking"
	"github.com/sablecore/huntbay/pkg/sshconn"
)

// ErrIncompatibleOS is returned when a module's os_types doesn't include
// the target asset's OS tag (spec §4.4 step 1).
var ErrIncompatibleOS = errors.New("hunt: module is not compatible with the asset's OS")

// AssetInfo is the subset of Asset fields the scheduler needs: OS
// compatibility and sudo policy resolution.
type AssetInfo struct {
	ID         string
	OS         huntmodule.OSType
	HasSudo    bool
	SudoPolicy sshconn.SudoPolicy
}

// AssetLookup resolves an asset's scheduling-relevant fields. Satisfied by
// pkg/external's asset store; kept narrow to avoid an import cycle.
type AssetLookup interface {
	GetAssetInfo(ctx context.Context, assetID string) (AssetInfo, error)
}

// ModuleLookup resolves a HuntModule by id. Satisfied by
// *huntmodule.Store; kept narrow so tests can substitute an in-memory fake
// instead of a live Postgres-backed Store.
type ModuleLookup interface {
	Get(ctx context.Context, id string) (*huntmodule.Module, error)
}

// AIPipeline runs the AI Pipeline over a completed hunt's Observations and
// returns the number of findings it produced (spec §4.5). Satisfied by
// pkg/ai.Pipeline; kept narrow to avoid an import cycle between pkg/hunt
// and pkg/ai.
type AIPipeline interface {
	Run(ctx context.Context, huntID, sessionID, assetID string, module *huntmodule.Module, observations []Observation) (findingsCount int, err error)
}

// HuntRecorder persists a Hunt row's lifecycle (spec §4.4: "the Session
// Runtime owns Session and Hunt records while RUNNING"). Satisfied by
// pkg/intel or a thin ent-backed adapter; kept narrow here.
type HuntRecorder interface {
	CreateHunt(ctx context.Context, huntID, sessionID, moduleID string, runAI bool) error
	UpdateHuntStatus(ctx context.Context, huntID, status string, findingsCount int) error
}

// Scheduler runs Hunts. One Scheduler is shared process-wide; per-session
// serialization comes from Limiter, not from any state on Scheduler itself.
type Scheduler struct {
	modules ModuleLookup
	assets  AssetLookup
	ai      AIPipeline
	hunts   HuntRecorder
	pub     *events.Publisher
	masker  *masking.Service
	limiter *Limiter

	mu        sync.Mutex
	cancelled map[string]context.CancelFunc
}

// NewScheduler constructs a Scheduler. perSessionCap mirrors spec §4.4's
// "per-session concurrency cap (default 1)". masker redacts secrets out of
// every captured Observation's stdout/stderr before it is stored or handed
// to the AI Pipeline; a nil masker disables redaction.
func NewScheduler(modules ModuleLookup, assets AssetLookup, ai AIPipeline, hunts HuntRecorder, pub *events.Publisher, masker *masking.Service, perSessionCap int) *Scheduler {
	return &Scheduler{
		modules:   modules,
		assets:    assets,
		ai:        ai,
		hunts:     hunts,
		pub:       pub,
		masker:    masker,
		limiter:   NewLimiter(perSessionCap),
		cancelled: make(map[string]context.CancelFunc),
	}
}

// Run executes moduleID's Steps against sessionID/assetID via exec, in
// order, recording Observations, then optionally invokes the AI Pipeline.
// It blocks until the hunt reaches a terminal status. Callers normally
// invoke this in its own goroutine per hunt.
func (s *Scheduler) Run(ctx context.Context, huntID, sessionID, assetID string, exec SessionExecutor, moduleID string, runAI bool) error {
	if err := s.limiter.Acquire(sessionID); err != nil {
		return err
	}
	defer s.limiter.Release(sessionID)

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelled[huntID] = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.cancelled, huntID)
		s.mu.Unlock()
		cancel()
	}()

	module, err := s.modules.Get(runCtx, moduleID)
	if err != nil {
		return fmt.Errorf("hunt %s: resolving module %s: %w", huntID, moduleID, err)
	}

	asset, err := s.assets.GetAssetInfo(runCtx, assetID)
	if err != nil {
		return fmt.Errorf("hunt %s: resolving asset %s: %w", huntID, assetID, err)
	}
	if !module.SupportsOS(asset.OS) {
		return ErrIncompatibleOS
	}

	if err := s.hunts.CreateHunt(runCtx, huntID, sessionID, moduleID, runAI); err != nil {
		return fmt.Errorf("hunt %s: recording creation: %w", huntID, err)
	}

	s.pub.PublishHuntLifecycle(events.TypeHuntStarted, events.HuntLifecyclePayload{
		SessionID: sessionID, HuntID: huntID, ModuleID: moduleID, RunAI: runAI,
	})

	observations, cancelledMidRun, runErr := s.runSteps(runCtx, huntID, sessionID, exec, module, asset)
	if runErr != nil {
		s.finish(ctx, sessionID, huntID, moduleID, runAI, "failed", 0, runErr.Error())
		return runErr
	}
	if cancelledMidRun {
		s.pub.PublishHuntLifecycle(events.TypeHuntCancelled, events.HuntLifecyclePayload{
			SessionID: sessionID, HuntID: huntID, ModuleID: moduleID, RunAI: runAI,
		})
		_ = s.hunts.UpdateHuntStatus(ctx, huntID, "cancelled", 0)
		return nil
	}

	findingsCount := 0
	if runAI {
		findingsCount, err = s.ai.Run(ctx, huntID, sessionID, assetID, module, observations)
		if err != nil {
			s.finish(ctx, sessionID, huntID, moduleID, runAI, "failed", findingsCount, err.Error())
			return err
		}
	}

	s.finish(ctx, sessionID, huntID, moduleID, runAI, "completed", findingsCount, "")
	return nil
}

// Cancel interrupts huntID's in-flight step execution (spec §4.4 step 5).
// A no-op if huntID isn't currently running.
func (s *Scheduler) Cancel(huntID string) {
	s.mu.Lock()
	cancel, ok := s.cancelled[huntID]
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *Scheduler) finish(ctx context.Context, sessionID, huntID, moduleID string, runAI bool, status string, findingsCount int, errMsg string) {
	typ := events.TypeHuntCompleted
	if status == "failed" {
		typ = events.TypeHuntFailed
	}
	s.pub.PublishHuntLifecycle(typ, events.HuntLifecyclePayload{
		SessionID: sessionID, HuntID: huntID, ModuleID: moduleID, RunAI: runAI,
		FindingsCount: findingsCount, Error: errMsg,
	})
	_ = s.hunts.UpdateHuntStatus(ctx, huntID, status, findingsCount)
}

// runSteps runs every Step of module in order, returning the accumulated
// Observations. A context cancellation (explicit Cancel, or the parent
// ctx, e.g. session termination) stops after the in-flight step and
// reports cancelledMidRun=true. A fatal transport error aborts immediately
// and is returned as runErr; ordinary step failures are recorded in their
// Observation and do not abort the loop (spec §4.4 step 3d).
func (s *Scheduler) runSteps(ctx context.Context, huntID, sessionID string, exec SessionExecutor, module *huntmodule.Module, asset AssetInfo) (observations []Observation, cancelledMidRun bool, runErr error) {
	for i, step := range module.Steps {
		select {
		case <-ctx.Done():
			return observations, true, nil
		default:
		}

		s.pub.PublishHuntStep(events.TypeHuntStepStarted, events.HuntStepPayload{
			SessionID: sessionID, HuntID: huntID, StepIndex: i, Command: step.Command,
		})

		obs, err := runStep(ctx, exec, s.masker, huntID, i, step, asset.SudoPolicy, asset.HasSudo)
		if err != nil {
			if ctx.Err() != nil {
				return observations, true, nil
			}
			return observations, false, err
		}
		observations = append(observations, obs)

		s.pub.PublishHuntObservation(events.HuntObservationPayload{
			SessionID: sessionID, HuntID: huntID, StepIndex: i,
			Stdout: obs.Stdout, Stderr: obs.Stderr, Truncated: obs.Truncated,
		})
		s.pub.PublishHuntStep(events.TypeHuntStepCompleted, events.HuntStepPayload{
			SessionID: sessionID, HuntID: huntID, StepIndex: i, Command: step.Command, ExitCode: obs.ExitCode,
		})
	}
	return observations, false, nil
}
