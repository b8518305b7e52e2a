package actor

import (
	"go.trai.ch/weft/internal/core/domain"
)

type set[T comparable] map[T]struct{}

func (s set[T]) add(v T) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

func (s set[T]) remove(v T) bool {
	if _, ok := s[v]; !ok {
		return false
	}
	delete(s, v)
	return true
}

// helper holds the request bookkeeping common to every actor variant.
type helper struct {
	id   domain.TargetID
	self domain.ActorID
	deps []domain.TargetID
	mb   Mailbox

	// pending holds, per kind, the dependencies that have not reported Ok.
	pending [len(domain.ExecutionKinds)]set[domain.TargetID]
	// unavailable holds, per kind, the dependencies whose execution failed.
	unavailable [len(domain.ExecutionKinds)]set[domain.TargetID]
	requesters  [len(domain.ExecutionKinds)]set[domain.ActorID]
}

func newHelper(meta *domain.TargetMetadata, mb Mailbox) *helper {
	h := &helper{
		id:   meta.ID,
		self: domain.TargetActor(meta.ID),
		deps: meta.Dependencies,
		mb:   mb,
	}
	for _, kind := range domain.ExecutionKinds {
		h.pending[kind] = h.allDeps()
		h.unavailable[kind] = set[domain.TargetID]{}
		h.requesters[kind] = set[domain.ActorID]{}
	}
	return h
}

func (h *helper) allDeps() set[domain.TargetID] {
	s := make(set[domain.TargetID], len(h.deps))
	for _, dep := range h.deps {
		s.add(dep)
	}
	return s
}

// ready reports whether every dependency has reported Ok for kinds and none
// of them is failing.
func (h *helper) ready(kinds ...domain.ExecutionKind) bool {
	for _, kind := range kinds {
		if len(h.pending[kind]) > 0 {
			return false
		}
	}
	for _, kind := range domain.ExecutionKinds {
		if len(h.unavailable[kind]) > 0 {
			return false
		}
	}
	return true
}

func (h *helper) requested(kind domain.ExecutionKind) bool {
	return len(h.requesters[kind]) > 0
}

// addRequester records requester and reports whether it is the first one.
func (h *helper) addRequester(kind domain.ExecutionKind, requester domain.ActorID) (added, first bool) {
	added = h.requesters[kind].add(requester)
	return added, added && len(h.requesters[kind]) == 1
}

// removeRequester forgets requester and reports whether it was the last one.
func (h *helper) removeRequester(kind domain.ExecutionKind, requester domain.ActorID) bool {
	return h.requesters[kind].remove(requester) && len(h.requesters[kind]) == 0
}

func (h *helper) requestDeps(kind domain.ExecutionKind) {
	for _, dep := range h.deps {
		h.send(domain.TargetActor(dep), domain.Requested{Kind: kind, Requester: h.self})
	}
}

// unrequestDeps withdraws the request for kind. Dependencies report again
// when they are requested anew, so they all become pending.
func (h *helper) unrequestDeps(kind domain.ExecutionKind) {
	for _, dep := range h.deps {
		h.send(domain.TargetActor(dep), domain.Unrequested{Kind: kind, Requester: h.self})
	}
	h.pending[kind] = h.allDeps()
}

// depOk marks dep as ready for kind and reports whether it was pending.
func (h *helper) depOk(kind domain.ExecutionKind, dep domain.TargetID) bool {
	h.unavailable[kind].remove(dep)
	return h.pending[kind].remove(dep)
}

// depInvalidated marks dep as pending for kind and reports whether it was
// ready before.
func (h *helper) depInvalidated(kind domain.ExecutionKind, dep domain.TargetID) bool {
	return h.pending[kind].add(dep)
}

func (h *helper) depFailed(kind domain.ExecutionKind, dep domain.TargetID) {
	h.unavailable[kind].add(dep)
}

func (h *helper) notifySuccess(kind domain.ExecutionKind, actual bool) {
	h.sendToRequesters(kind, domain.Ok{Kind: kind, Target: h.id, Actual: actual})
}

func (h *helper) notifyInvalidated(kind domain.ExecutionKind) {
	h.sendToRequesters(kind, domain.Invalidated{Kind: kind, Target: h.id})
}

// notifyFailed reports err once to the scheduler and marks this target as
// unavailable to its requesters.
func (h *helper) notifyFailed(kind domain.ExecutionKind, err error) {
	h.emit(domain.TargetExecutionError{Target: h.id, Kind: kind, Err: err})
	h.sendToRequesters(kind, domain.Failed{Kind: kind, Target: h.id})
}

func (h *helper) sendToRequesters(kind domain.ExecutionKind, msg domain.Message) {
	for requester := range h.requesters[kind] {
		h.send(requester, msg)
	}
}

func (h *helper) send(dest domain.ActorID, msg domain.Message) {
	h.emit(domain.MessageActor{Dest: dest, Msg: msg})
}

// emit blocks while the output channel is full, unless the engine is
// terminating.
func (h *helper) emit(out domain.Output) {
	select {
	case h.mb.Out <- out:
	case <-h.mb.Done:
	}
}
