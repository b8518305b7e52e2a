package actor

import (
	"context"

	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
)

type serviceActor struct {
	*helper
	target *domain.ServiceTarget
	rt     Runtime

	toExecute bool
	executed  bool
	process   ports.Process
}

func (a *serviceActor) Run() {
	defer a.stop()

	for {
		if a.shouldExecute() {
			a.restart()
		}

		select {
		case <-a.mb.Done:
			return
		case msg, ok := <-a.mb.Inbox:
			if !ok {
				return
			}
			a.handle(msg)
		}
	}
}

// A service waits for its dependencies to be built and their own services
// to be running.
func (a *serviceActor) shouldExecute() bool {
	return a.toExecute && a.requested(domain.Service) && a.ready(domain.Build, domain.Service)
}

func (a *serviceActor) restart() {
	a.toExecute = false
	a.executed = false
	a.stop()

	id := a.id.String()
	_, span := a.rt.Tracer.Start(context.Background(), id, ports.WithAttribute("target", id))
	defer span.End()

	a.rt.Logger.Info(id + " - Starting service")
	process, err := a.rt.Executor.Start(ports.Command{
		Target: a.id,
		Dir:    a.target.ProjectDir,
		Script: a.target.Script,
		TTY:    a.rt.TTY,
	})
	if err != nil {
		span.RecordError(err)
		a.notifyFailed(domain.Service, err)
		return
	}

	a.process = process
	a.executed = true
	a.notifySuccess(domain.Service, true)
}

func (a *serviceActor) stop() {
	if a.process == nil {
		return
	}
	id := a.id.String()
	a.rt.Logger.Debug(id + " - Stopping service")
	if err := a.process.Stop(a.rt.StopTimeout); err != nil {
		a.rt.Logger.Warn(id + " - Failed to stop service: " + err.Error())
	}
	a.process = nil
}

func (a *serviceActor) handle(msg domain.Message) {
	switch m := msg.(type) {
	case domain.Requested:
		if m.Kind == domain.Build {
			a.send(m.Requester, domain.Ok{Kind: domain.Build, Target: a.id})
			return
		}
		added, first := a.addRequester(domain.Service, m.Requester)
		switch {
		case first:
			a.toExecute = true
			a.requestDeps(domain.Build)
			a.requestDeps(domain.Service)
		case added && a.executed:
			a.send(m.Requester, domain.Ok{Kind: domain.Service, Target: a.id})
		}

	case domain.Unrequested:
		if m.Kind == domain.Service && a.removeRequester(domain.Service, m.Requester) {
			a.toExecute = false
			a.executed = false
			a.unrequestDeps(domain.Build)
			a.unrequestDeps(domain.Service)
			a.stop()
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

func (a *serviceActor) invalidate() {
	if a.toExecute || !a.requested(domain.Service) {
		return
	}
	a.toExecute = true
	a.executed = false
	a.notifyInvalidated(domain.Service)
}
