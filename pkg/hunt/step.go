package hunt

import (
	"context"
	"io"
	"time"

	"github.com/sablecore/huntbay/pkg/huntmodule"
	"github.com/sablecore/huntbay/pkg/masking"
	"github.com/sablecore/huntbay/pkg/sshconn"
)

// SessionExecutor is the subset of sessionrt.Owner's API the scheduler
// needs to run one Step. A narrow interface, same idiom as
// sessionrt.SSHClient, so tests can substitute a fake without a live Owner.
type SessionExecutor interface {
	ExecuteStep(ctx context.Context, commandID, cmd string, stdin io.Reader, timeout time.Duration, sudo sshconn.SudoPolicy) (sshconn.ExecResult, error)
}

// runStep executes one Step against exec and returns its Observation. It
// never returns a transport error for an ordinary command failure — a
// non-fatal exit is recorded in the Observation per spec §4.4 step 3d; the
// returned error is only non-nil for fatal conditions (SSH channel death,
// context cancellation) that should abort the whole hunt.
func runStep(ctx context.Context, exec SessionExecutor, masker *masking.Service, huntID string, index int, step huntmodule.Step, sudoPolicy sshconn.SudoPolicy, sudoConfigured bool) (Observation, error) {
	obs := Observation{
		HuntID:    huntID,
		StepID:    step.ID,
		StepIndex: index,
		Command:   step.Command,
	}

	if step.RequiresSudo && !sudoConfigured {
		obs.Skipped = "no_sudo"
		return obs, nil
	}

	sudo := sshconn.SudoPolicy{}
	if step.RequiresSudo {
		sudo = sudoPolicy
	}

	timeout := time.Duration(step.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(huntmodule.DefaultStepTimeoutSec) * time.Second
	}

	start := time.Now()
	result, err := exec.ExecuteStep(ctx, step.ID, step.Command, nil, timeout, sudo)
	obs.WallMillis = time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() != nil {
			return obs, ctx.Err()
		}
		if err == sshconn.ErrClosed {
			return obs, err
		}
		// Transport-level failure that isn't a fatal channel death (e.g. a
		// fresh session could not be opened momentarily) is recorded as a
		// failed Observation rather than aborting the hunt.
		exitCode := -1
		obs.ExitCode = &exitCode
		obs.Stderr = err.Error()
		return obs, nil
	}

	stdout, stderr, truncated := capture(result.Stdout, result.Stderr)
	if masker != nil {
		stdout, stderr = masker.MaskObservation(stdout, stderr)
	}
	obs.Stdout = stdout
	obs.Stderr = stderr
	obs.Truncated = truncated
	if result.ExitCode == -1 && result.Duration >= timeout {
		obs.Timeout = true
	} else {
		ec := result.ExitCode
		obs.ExitCode = &ec
	}
	return obs, nil
}
