// Package incremental decides whether a build target must run and records
// the resource state of every successful run.
package incremental

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
)

// Outcome is the result of a Run.
type Outcome uint8

const (
	// Skipped means the target was up to date and its script did not run.
	Skipped Outcome = iota
	// Completed means the script ran to a zero exit status.
	Completed
	// Cancelled means the run was interrupted and left no saved state.
	Cancelled
	// Failed means the script could not be started or exited non-zero.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// Runner executes build targets incrementally.
type Runner struct {
	store    ports.StateStore
	prober   ports.ResourceProber
	executor ports.Executor
	logger   ports.Logger
	tracer   ports.Tracer
}

// NewRunner creates a new Runner.
func NewRunner(
	store ports.StateStore,
	prober ports.ResourceProber,
	executor ports.Executor,
	logger ports.Logger,
	tracer ports.Tracer,
) *Runner {
	return &Runner{
		store:    store,
		prober:   prober,
		executor: executor,
		logger:   logger,
		tracer:   tracer,
	}
}

// Load returns the saved state of a target, or nil when there is none.
// Read failures are logged and treated as a missing state.
func (r *Runner) Load(meta *domain.TargetMetadata) *domain.TargetEnvState {
	state, err := r.store.Load(meta)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("%s - Ignoring saved state: %v", meta.ID, err))
		return nil
	}
	return state
}

// Run brings target up to date.
//
// previous is the state recorded by the last successful run. The returned
// state replaces it: it is the newly persisted state on Completed, previous
// itself on Skipped, and nil when nothing could be recorded. If ctx is
// cancelled while the script runs, Run returns Cancelled with
// domain.ErrCancelled and the target is left without saved state.
func (r *Runner) Run(
	ctx context.Context,
	target *domain.BuildTarget,
	previous *domain.TargetEnvState,
	tty bool,
) (Outcome, *domain.TargetEnvState, error) {
	id := target.ID.String()
	ctx, span := r.tracer.Start(ctx, id, ports.WithAttribute("target", id))
	defer span.End()

	input, persist := r.inputState(ctx, target)
	if err := ctx.Err(); err != nil {
		return Cancelled, nil, domain.ErrCancelled
	}

	if persist && r.upToDate(ctx, target, previous, input) {
		r.logger.Info(id + " - Build skipped (Not Modified)")
		span.SetAttribute("skipped", true)
		return Skipped, previous, nil
	}

	if err := r.store.Delete(&target.TargetMetadata); err != nil {
		r.logger.Warn(fmt.Sprintf("%s - Failed to clear saved state: %v", id, err))
	}

	r.logger.Info(id + " - Building")
	start := time.Now()
	err := r.executor.Run(ctx, ports.Command{
		Target: target.ID,
		Dir:    target.ProjectDir,
		Script: target.Script,
		TTY:    tty,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			r.logger.Debug(id + " - Build cancelled")
			return Cancelled, nil, err
		}
		span.RecordError(err)
		return Failed, nil, err
	}
	r.logger.Info(fmt.Sprintf("%s - Build success (took: %dms)", id, time.Since(start).Milliseconds()))

	if !persist {
		return Completed, nil, nil
	}
	return Completed, r.persist(ctx, target, input), nil
}

// inputState computes the state of the declared input. The second result is false when the
// outcome of this run must not be recorded, either because no input is
// declared or because the input could not be probed.
func (r *Runner) inputState(ctx context.Context, target *domain.BuildTarget) (*domain.ResourcesState, bool) {
	if target.Input.IsEmpty() {
		return nil, false
	}
	input, err := r.prober.State(ctx, target.Input)
	if err != nil {
		if !errors.Is(err, domain.ErrCancelled) {
			r.logger.Warn(fmt.Sprintf("%s - Failed to compute input state: %v", target.ID, err))
		}
		return nil, false
	}
	return input, true
}

func (r *Runner) upToDate(
	ctx context.Context,
	target *domain.BuildTarget,
	previous *domain.TargetEnvState,
	input *domain.ResourcesState,
) bool {
	if previous == nil || !input.Equal(previous.Input) {
		return false
	}

	if missing := r.prober.MissingPaths(target.Output); len(missing) > 0 {
		r.logger.Debug(fmt.Sprintf("%s - Missing output: %s", target.ID, strings.Join(missing, ", ")))
		return false
	}

	if target.Output.IsEmpty() {
		return true
	}
	output, err := r.prober.State(ctx, target.Output)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("%s - Failed to compute output state: %v", target.ID, err))
		return false
	}
	return output.Equal(previous.Output)
}

func (r *Runner) persist(
	ctx context.Context,
	target *domain.BuildTarget,
	input *domain.ResourcesState,
) *domain.TargetEnvState {
	state := &domain.TargetEnvState{Input: input}
	if !target.Output.IsEmpty() {
		output, err := r.prober.State(ctx, target.Output)
		if err != nil {
			r.logger.Warn(fmt.Sprintf("%s - Failed to compute output state: %v", target.ID, err))
			return nil
		}
		state.Output = output
	}

	if err := r.store.Save(&target.TargetMetadata, state); err != nil {
		r.logger.Warn(fmt.Sprintf("%s - Failed to save state: %v", target.ID, err))
		return nil
	}
	return state
}
