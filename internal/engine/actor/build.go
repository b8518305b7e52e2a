package actor

import (
	"context"

	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/engine/incremental"
)

type buildResult struct {
	outcome incremental.Outcome
	state   *domain.TargetEnvState
	err     error
}

type buildActor struct {
	*helper
	target *domain.BuildTarget
	rt     Runtime

	toExecute bool
	executed  bool
	state     *domain.TargetEnvState

	// cancel and results are set while a build is in progress.
	cancel  context.CancelFunc
	results chan buildResult
}

func (a *buildActor) Run() {
	a.state = a.rt.Builder.Load(&a.target.TargetMetadata)
	defer a.abort()

	for {
		if a.shouldExecute() {
			a.start()
		}

		select {
		case <-a.mb.Done:
			return
		case res := <-a.results:
			a.finish(res)
		case msg, ok := <-a.mb.Inbox:
			if !ok {
				return
			}
			a.handle(msg)
		}
	}
}

func (a *buildActor) shouldExecute() bool {
	return a.toExecute && a.cancel == nil && a.requested(domain.Build) && a.ready(domain.Build)
}

func (a *buildActor) start() {
	a.toExecute = false
	a.executed = false

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan buildResult, 1)
	a.cancel, a.results = cancel, results

	previous := a.state
	go func() {
		outcome, state, err := a.rt.Builder.Run(ctx, a.target, previous, a.rt.TTY)
		results <- buildResult{outcome: outcome, state: state, err: err}
	}()
}

func (a *buildActor) finish(res buildResult) {
	a.cancel()
	a.cancel, a.results = nil, nil
	a.state = res.state

	switch res.outcome {
	case incremental.Cancelled:
	case incremental.Failed:
		a.executed = false
		a.notifyFailed(domain.Build, res.err)
	default:
		// An invalidation received while building calls for another run.
		a.executed = !a.toExecute
		if a.executed {
			a.notifySuccess(domain.Build, res.outcome == incremental.Completed)
		}
	}
}

// abort cancels the build in progress and waits for its process to be reaped.
func (a *buildActor) abort() {
	if a.cancel == nil {
		return
	}
	a.cancel()
	<-a.results
	a.cancel, a.results = nil, nil
}

func (a *buildActor) handle(msg domain.Message) {
	switch m := msg.(type) {
	case domain.Requested:
		if m.Kind == domain.Service {
			a.send(m.Requester, domain.Ok{Kind: domain.Service, Target: a.id})
			return
		}
		added, first := a.addRequester(domain.Build, m.Requester)
		switch {
		case first:
			a.toExecute = true
			a.executed = false
			a.requestDeps(domain.Build)
		case added && a.executed:
			a.send(m.Requester, domain.Ok{Kind: domain.Build, Target: a.id})
		}

	case domain.Unrequested:
		if m.Kind == domain.Build && a.removeRequester(domain.Build, m.Requester) {
			a.toExecute = false
			a.executed = false
			a.unrequestDeps(domain.Build)
			if a.cancel != nil {
				a.cancel()
			}
		}

	case domain.Ok:
		a.depOk(m.Kind, m.Target)

	case domain.Invalidated:
		if m.Target != a.id {
			a.depInvalidated(m.Kind, m.Target)
		}
		a.invalidate()

	case domain.Failed:
		a.depFailed(m.Kind, m.Target)
	}
}

func (a *buildActor) invalidate() {
	if a.toExecute || !a.requested(domain.Build) {
		return
	}
	a.toExecute = true
	a.executed = false
	a.notifyInvalidated(domain.Build)
}
