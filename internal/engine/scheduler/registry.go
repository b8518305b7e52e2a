package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
	"go.trai.ch/weft/internal/engine/actor"
	"go.trai.ch/zerr"
)

// registry owns the actors of a run and their mailboxes.
type registry struct {
	graph  *domain.Graph
	rt     actor.Runtime
	logger ports.Logger

	capacity int
	out      chan domain.Output
	done     chan struct{}

	mailboxes map[domain.TargetID]*mailbox
	watchers  []ports.Watcher
	wg        sync.WaitGroup
}

// mailbox queues the messages addressed to one actor in front of its bounded
// inbox. Posting never blocks, so the driver keeps draining the output
// channel while an actor is busy emitting.
type mailbox struct {
	inbox chan domain.Message
	wake  chan struct{}

	mu    sync.Mutex
	queue []domain.Message
}

func newMailbox(capacity int) *mailbox {
	return &mailbox{
		inbox: make(chan domain.Message, capacity),
		wake:  make(chan struct{}, 1),
	}
}

func (m *mailbox) post(msg domain.Message) {
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox) next() (domain.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil, false
	}
	msg := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	return msg, true
}

// pump moves queued messages into the inbox, in order, until done is closed.
func (m *mailbox) pump(done <-chan struct{}) {
	for {
		msg, ok := m.next()
		if !ok {
			select {
			case <-m.wake:
				continue
			case <-done:
				return
			}
		}
		select {
		case m.inbox <- msg:
		case <-done:
			return
		}
	}
}

func newRegistry(graph *domain.Graph, rt actor.Runtime, logger ports.Logger, capacity int) *registry {
	return &registry{
		graph:     graph,
		rt:        rt,
		logger:    logger,
		capacity:  capacity,
		out:       make(chan domain.Output, capacity),
		done:      make(chan struct{}),
		mailboxes: make(map[domain.TargetID]*mailbox),
	}
}

// spawn starts the actor of every target in ids.
func (r *registry) spawn(ids []domain.TargetID) {
	for _, id := range ids {
		target, ok := r.graph.Target(id)
		if !ok {
			continue
		}

		mb := newMailbox(r.capacity)
		r.mailboxes[id] = mb

		a := actor.New(target, actor.Mailbox{Inbox: mb.inbox, Out: r.out, Done: r.done}, r.rt)
		r.wg.Go(a.Run)
		r.wg.Go(func() { mb.pump(r.done) })
	}
}

// watch installs a watcher on the file input of every target in ids. A
// target whose paths cannot be watched keeps running without live
// invalidation.
func (r *registry) watch(ctx context.Context, factory ports.WatcherFactory, ids []domain.TargetID, opts Options) {
	for _, id := range ids {
		target, ok := r.graph.Target(id)
		if !ok {
			continue
		}
		paths := target.InputResources().FilePaths()
		if len(paths) == 0 {
			continue
		}

		w, err := factory.NewWatcher(opts.Debounce)
		if err != nil {
			r.logger.Error(zerr.With(err, "target", id.String()))
			continue
		}
		if err := w.Watch(ctx, paths); err != nil {
			r.logger.Error(zerr.With(err, "target", id.String()))
			_ = w.Stop()
			continue
		}
		r.watchers = append(r.watchers, w)

		msg := domain.Invalidated{Kind: domain.WatchKind(target), Target: id}
		r.wg.Go(func() {
			for event := range w.Events() {
				r.logger.Debug(fmt.Sprintf("%s - Invalidated by %s", id, event.Path))
				if !r.send(id, msg) {
					return
				}
			}
		})
	}
}

// requestTarget asks for id on behalf of the root driver.
func (r *registry) requestTarget(id domain.TargetID) {
	target, ok := r.graph.Target(id)
	if !ok {
		return
	}
	for _, kind := range domain.RequestKinds(target) {
		r.send(id, domain.Requested{Kind: kind, Requester: domain.RootActor})
	}
}

// send queues msg for the actor of id without blocking. It reports false
// once the registry is terminated.
func (r *registry) send(id domain.TargetID, msg domain.Message) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	if mb, ok := r.mailboxes[id]; ok {
		mb.post(msg)
	}
	return true
}

// terminate broadcasts termination and waits until every actor has
// cancelled its build or stopped its service.
func (r *registry) terminate() {
	r.logger.Debug("Terminating all targets")
	close(r.done)
	for _, w := range r.watchers {
		_ = w.Stop()
	}
	r.wg.Wait()
}
