// Package app implements the application layer for weft.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/weft/internal/adapters/telemetry"
	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
	"go.trai.ch/weft/internal/engine/incremental"
	"go.trai.ch/weft/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	executor     ports.Executor
	logger       ports.Logger
	store        ports.StateStore
	prober       ports.ResourceProber
	watchers     ports.WatcherFactory
	dir          string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	log ports.Logger,
	store ports.StateStore,
	prober ports.ResourceProber,
	watchers ports.WatcherFactory,
) *App {
	return &App{
		configLoader: loader,
		executor:     executor,
		logger:       log,
		store:        store,
		prober:       prober,
		watchers:     watchers,
		dir:          ".",
	}
}

// SetDir sets the directory the project configuration is searched from.
func (a *App) SetDir(dir string) {
	a.dir = dir
}

// ConfigureLogging applies the global logging flags when the logger
// supports them.
func (a *App) ConfigureLogging(verbose, json bool) {
	if l, ok := a.logger.(interface{ SetVerbose(bool) }); ok {
		l.SetVerbose(verbose)
	}
	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(json)
	}
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	Watch       bool
	Clean       bool
	TTY         bool
	StopTimeout time.Duration
	Debounce    time.Duration
}

// Run builds the specified targets, starting their services.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	graph, err := a.load()
	if err != nil {
		return err
	}

	ids, err := resolve(graph, targetNames)
	if err != nil {
		return err
	}

	if opts.Clean {
		if err := a.cleanTargets(graph, graph.Closure(ids)); err != nil {
			return err
		}
	}

	tp := setupOTel(telemetry.NewBridge(a.logger))
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()

	tracer := telemetry.NewOTelTracer("weft")
	ctx, span := tracer.Start(ctx, "run")
	defer span.End()

	runner := incremental.NewRunner(a.store, a.prober, a.executor, a.logger, tracer)
	sched := scheduler.NewScheduler(runner, a.executor, a.watchers, a.logger, tracer)

	err = sched.Run(ctx, graph, ids, scheduler.Options{
		ChannelCapacity: scheduler.DefaultChannelCapacity,
		Watch:           opts.Watch,
		Debounce:        opts.Debounce,
		StopTimeout:     opts.StopTimeout,
		TTY:             opts.TTY,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Clean removes the saved state and declared outputs of the specified
// targets and their dependencies. Without targets, it removes every work
// directory and every declared output of the loaded projects.
func (a *App) Clean(_ context.Context, targetNames []string) error {
	graph, err := a.load()
	if err != nil {
		return err
	}

	if len(targetNames) > 0 {
		ids, err := resolve(graph, targetNames)
		if err != nil {
			return err
		}
		return a.cleanTargets(graph, graph.Closure(ids))
	}

	errs := a.cleanTargets(graph, graph.IDs())
	var dirs []string
	for _, id := range graph.IDs() {
		target, _ := graph.Target(id)
		dirs = append(dirs, target.Meta().ProjectDir)
	}
	slices.Sort(dirs)
	for _, dir := range slices.Compact(dirs) {
		errs = errors.Join(errs, a.remove(domain.WorkDir(dir)))
	}
	return errs
}

// List returns the identifiers of every loaded target, sorted.
func (a *App) List(_ context.Context) ([]string, error) {
	graph, err := a.load()
	if err != nil {
		return nil, err
	}

	ids := graph.IDs()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, id.String())
	}
	return names, nil
}

func (a *App) load() (*domain.Graph, error) {
	graph, err := a.configLoader.Load(a.dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return graph, nil
}

func (a *App) cleanTargets(graph *domain.Graph, ids []domain.TargetID) error {
	var errs error
	for _, id := range ids {
		target, ok := graph.Target(id)
		if !ok {
			continue
		}
		if err := a.store.Delete(target.Meta()); err != nil {
			errs = errors.Join(errs, err)
		}
		for _, path := range target.OutputResources().FilePaths() {
			errs = errors.Join(errs, a.remove(path))
		}
		a.logger.Debug(fmt.Sprintf("%s - Cleaned", id))
	}
	return errs
}

func (a *App) remove(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return nil //nolint:nilerr // Already gone
	}
	a.logger.Info(fmt.Sprintf("Removing %s", path))
	if err := os.RemoveAll(path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", path)
	}
	return nil
}

func resolve(graph *domain.Graph, names []string) ([]domain.TargetID, error) {
	ids := make([]domain.TargetID, 0, len(names))
	for _, name := range names {
		id, err := graph.Resolve(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// setupOTel registers a tracer provider reporting finished spans through
// the bridge.
func setupOTel(bridge *telemetry.Bridge) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)
	otel.SetTracerProvider(tp)
	return tp
}
