// Package actor implements the per-target state machines of the engine.
//
// Every target is owned by one actor running on its own goroutine. Actors
// never share state: they exchange domain.Message values through the shared
// output channel, which the scheduler routes to each destination's inbox.
package actor

import (
	"context"
	"time"

	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
	"go.trai.ch/weft/internal/engine/incremental"
)

// Builder brings build targets up to date.
type Builder interface {
	Load(meta *domain.TargetMetadata) *domain.TargetEnvState
	Run(
		ctx context.Context,
		target *domain.BuildTarget,
		previous *domain.TargetEnvState,
		tty bool,
	) (incremental.Outcome, *domain.TargetEnvState, error)
}

var _ Builder = (*incremental.Runner)(nil)

// Mailbox connects an actor to the rest of the engine.
type Mailbox struct {
	// Inbox receives the messages addressed to the actor, in order.
	Inbox <-chan domain.Message
	// Out is shared by every actor and read by the scheduler.
	Out chan<- domain.Output
	// Done is closed on global termination.
	Done <-chan struct{}
}

// Runtime holds the collaborators and settings shared by all actors.
type Runtime struct {
	Builder     Builder
	Executor    ports.Executor
	Logger      ports.Logger
	Tracer      ports.Tracer
	TTY         bool
	StopTimeout time.Duration
}

// Actor is the receive loop of a target.
type Actor interface {
	// Run processes messages until the mailbox is terminated. Any build in
	// progress is cancelled and any running service stopped before it returns.
	Run()
}

// New creates the actor owning target.
func New(target domain.Target, mb Mailbox, rt Runtime) Actor {
	h := newHelper(target.Meta(), mb)
	switch t := target.(type) {
	case *domain.BuildTarget:
		return &buildActor{helper: h, target: t, rt: rt}
	case *domain.ServiceTarget:
		return &serviceActor{helper: h, target: t, rt: rt}
	default:
		return &aggregateActor{helper: h}
	}
}
