// Package scheduler runs target actors and drives them on behalf of the
// command line.
package scheduler

import (
	"context"
	"fmt"

	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
	"go.trai.ch/weft/internal/engine/actor"
	"go.trai.ch/zerr"
)

type request struct {
	target domain.TargetID
	kind   domain.ExecutionKind
}

// Scheduler is the root driver of the engine.
type Scheduler struct {
	builder  actor.Builder
	executor ports.Executor
	watchers ports.WatcherFactory
	logger   ports.Logger
	tracer   ports.Tracer
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	builder actor.Builder,
	executor ports.Executor,
	watchers ports.WatcherFactory,
	logger ports.Logger,
	tracer ports.Tracer,
) *Scheduler {
	return &Scheduler{
		builder:  builder,
		executor: executor,
		watchers: watchers,
		logger:   logger,
		tracer:   tracer,
	}
}

// Run requests targets and routes messages between their actors.
//
// Without opts.Watch, Run returns once every requested target is ready, or
// with the first execution error. Services started along the way keep
// running until ctx is done. With opts.Watch, Run logs execution errors and
// returns only when ctx is done. Every build is cancelled and every service
// stopped before Run returns.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, targets []domain.TargetID, opts Options) error {
	if len(targets) == 0 {
		return domain.ErrNoTargetsSpecified
	}
	// The request protocol deadlocks on cycles.
	if err := graph.Validate(); err != nil {
		return err
	}
	opts = opts.withDefaults()

	names := make([]string, 0, len(targets))
	for _, id := range targets {
		names = append(names, id.String())
	}
	s.tracer.EmitPlan(ctx, names)

	closure := graph.Closure(targets)
	reg := newRegistry(graph, actor.Runtime{
		Builder:     s.builder,
		Executor:    s.executor,
		Logger:      s.logger,
		Tracer:      s.tracer,
		TTY:         opts.TTY,
		StopTimeout: opts.StopTimeout,
	}, s.logger, opts.ChannelCapacity)
	defer reg.terminate()

	reg.spawn(closure)
	if opts.Watch {
		reg.watch(ctx, s.watchers, closure, opts)
	}

	waiting := make(map[request]bool)
	for _, id := range targets {
		target, _ := graph.Target(id)
		for _, kind := range domain.RequestKinds(target) {
			waiting[request{target: id, kind: kind}] = true
		}
		reg.requestTarget(id)
	}

	d := &driver{
		logger:   s.logger,
		reg:      reg,
		watch:    opts.Watch,
		waiting:  waiting,
		services: hasServices(graph, closure),
	}
	return d.loop(ctx)
}

type driver struct {
	logger   ports.Logger
	reg      *registry
	watch    bool
	waiting  map[request]bool
	services bool
	idle     bool
}

func (d *driver) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if d.watch || d.idle {
				return nil
			}
			return domain.ErrCancelled

		case out := <-d.reg.out:
			switch o := out.(type) {
			case domain.MessageActor:
				if !o.Dest.IsRoot() {
					target, _ := o.Dest.Target()
					d.reg.send(target, o.Msg)
					continue
				}
				if d.receive(o.Msg) {
					return nil
				}

			case domain.TargetExecutionError:
				err := zerr.With(zerr.Wrap(o.Err, domain.ErrBuildExecutionFailed.Error()), "target", o.Target.String())
				if !d.watch {
					return err
				}
				d.logger.Error(err)
			}
		}
	}
}

// receive handles a message addressed to the root and reports whether the
// run is complete.
func (d *driver) receive(msg domain.Message) bool {
	switch m := msg.(type) {
	case domain.Ok:
		key := request{target: m.Target, kind: m.Kind}
		if !d.waiting[key] {
			return false
		}
		delete(d.waiting, key)
		if len(d.waiting) > 0 || d.watch {
			return false
		}
		if d.services {
			d.idle = true
			d.logger.Info("Services are running. Press Ctrl+C to stop.")
			return false
		}
		return true

	case domain.Invalidated:
		if d.watch {
			d.logger.Debug(fmt.Sprintf("%s - Invalidated", m.Target))
		}
		d.waiting[request{target: m.Target, kind: m.Kind}] = true
	}
	return false
}

func hasServices(graph *domain.Graph, ids []domain.TargetID) bool {
	for _, id := range ids {
		if t, ok := graph.Target(id); ok {
			if _, isService := t.(*domain.ServiceTarget); isService {
				return true
			}
		}
	}
	return false
}
