package actor

import (
	"go.trai.ch/weft/internal/core/domain"
)

// aggregateActor owns no work: it reports Ok for a kind once every
// dependency did, and forwards invalidations to its requesters.
type aggregateActor struct {
	*helper

	// actual holds, per kind, the dependencies that did execute something.
	actual [len(domain.ExecutionKinds)]set[domain.TargetID]
}

func (a *aggregateActor) Run() {
	for _, kind := range domain.ExecutionKinds {
		a.actual[kind] = set[domain.TargetID]{}
	}

	for {
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

func (a *aggregateActor) handle(msg domain.Message) {
	switch m := msg.(type) {
	case domain.Requested:
		added, first := a.addRequester(m.Kind, m.Requester)
		if first {
			a.requestDeps(m.Kind)
		}
		if added && a.ready(m.Kind) {
			a.send(m.Requester, a.ok(m.Kind))
		}

	case domain.Unrequested:
		if a.removeRequester(m.Kind, m.Requester) {
			a.unrequestDeps(m.Kind)
			a.actual[m.Kind] = set[domain.TargetID]{}
		}

	case domain.Ok:
		if m.Actual {
			a.actual[m.Kind].add(m.Target)
		}
		if a.depOk(m.Kind, m.Target) && a.ready(m.Kind) {
			a.sendToRequesters(m.Kind, a.ok(m.Kind))
		}

	case domain.Invalidated:
		// The next Ok from this dependency says again whether it did work.
		a.actual[m.Kind].remove(m.Target)
		wasReady := a.ready(m.Kind)
		if a.depInvalidated(m.Kind, m.Target) && wasReady {
			a.notifyInvalidated(m.Kind)
		}

	case domain.Failed:
		a.depFailed(m.Kind, m.Target)
	}
}

func (a *aggregateActor) ok(kind domain.ExecutionKind) domain.Ok {
	return domain.Ok{Kind: kind, Target: a.id, Actual: len(a.actual[kind]) > 0}
}
