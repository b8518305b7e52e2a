// Package watcher implements file system watching for target invalidation.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.Watcher        = (*Watcher)(nil)
	_ ports.WatcherFactory = (*Factory)(nil)
)

const eventChannelBuffer = 100

// Watcher implements file system watching using fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	debouncer *Debouncer
	roots     []string

	events   chan ports.WatchEvent
	quit     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
	closed   bool
}

// NewWatcher creates a new file system watcher. A positive debounce window
// batches events, reporting each changed path once per window.
func NewWatcher(logger ports.Logger, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		logger:    logger,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
		quit:      make(chan struct{}),
		stop:      make(chan struct{}),
	}
	if debounce > 0 {
		w.debouncer = NewDebouncer(debounce, func(paths []string) {
			for _, path := range paths {
				w.emit(ports.WatchEvent{Path: path, Operation: ports.OpWrite})
			}
		})
	}
	return w, nil
}

// Watch begins watching every path recursively until ctx is done or Stop is
// called. Missing paths are skipped with a warning. Files are watched
// through their parent directory so that editors replacing them by rename
// are still noticed.
func (w *Watcher) Watch(ctx context.Context, paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				w.logger.Warn(fmt.Sprintf("Skipping watch on non-existing path %s", path))
				continue
			}
			return zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "path", path)
		}

		w.roots = append(w.roots, path)

		if !info.IsDir() {
			if err := w.fsWatcher.Add(filepath.Dir(path)); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "path", path)
			}
			continue
		}

		for dir := range watchRecursively(path) {
			if err := w.fsWatcher.Add(dir); err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "path", dir)
			}
		}
	}

	go w.processEvents(ctx)

	return nil
}

// Stop stops the watcher and releases all resources. Pending events that
// nobody consumes are dropped.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stop) })
	return w.fsWatcher.Close()
}

// Events returns an iterator of file system events. It ends once the
// watcher has stopped.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// watchRecursively walks the directory tree and yields all directories.
func watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Continue walking even if there's an error accessing a directory.
				return nil //nolint:nilerr // This is intentional - we want to skip problematic directories
			}
			if d.IsDir() {
				if path != root && skipDirectories[d.Name()] {
					return fs.SkipDir
				}
				if !yield(path) {
					return filepath.SkipAll
				}
			}
			return nil
		})
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			watchEvent, ok := w.convertEvent(event)
			if !ok {
				continue
			}

			if w.debouncer != nil {
				w.debouncer.Add(watchEvent.Path)
			} else {
				w.emit(watchEvent)
			}

			// If a new directory was created, add it to the watcher.
			if watchEvent.Operation == ports.OpCreate {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDirectories[info.Name()] {
					for dir := range watchRecursively(event.Name) {
						_ = w.fsWatcher.Add(dir)
					}
				}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error(zerr.Wrap(err, domain.ErrWatchFailed.Error()))
		}
	}
}

// emit delivers an event unless the watcher is shutting down.
func (w *Watcher) emit(event ports.WatchEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return
	}
	select {
	case w.events <- event:
	case <-w.quit:
	case <-w.stop:
	}
}

func (w *Watcher) close() {
	if w.debouncer != nil {
		w.debouncer.Stop()
	}
	close(w.quit)

	w.mu.Lock()
	w.closed = true
	close(w.events)
	w.mu.Unlock()
}

// convertEvent converts an fsnotify event to a ports.WatchEvent, dropping
// events outside the watched roots and ignored paths.
func (w *Watcher) convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	path := event.Name

	if isIgnored(path) {
		return ports.WatchEvent{}, false
	}
	if !slices.ContainsFunc(w.roots, func(root string) bool { return isUnder(path, root) }) {
		return ports.WatchEvent{}, false
	}

	switch {
	case event.Has(fsnotify.Write):
		return ports.WatchEvent{Path: path, Operation: ports.OpWrite}, true
	case event.Has(fsnotify.Create):
		return ports.WatchEvent{Path: path, Operation: ports.OpCreate}, true
	case event.Has(fsnotify.Remove):
		return ports.WatchEvent{Path: path, Operation: ports.OpRemove}, true
	case event.Has(fsnotify.Rename):
		return ports.WatchEvent{Path: path, Operation: ports.OpRename}, true
	}

	return ports.WatchEvent{}, false
}

// Factory creates watchers sharing a logger.
type Factory struct {
	logger ports.Logger
}

// NewFactory creates a new Factory.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{logger: logger}
}

// NewWatcher creates a new Watcher.
func (f *Factory) NewWatcher(debounce time.Duration) (ports.Watcher, error) {
	return NewWatcher(f.logger, debounce)
}
