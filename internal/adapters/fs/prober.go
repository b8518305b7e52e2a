package fs

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"runtime"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.ResourceProber = (*Prober)(nil)

// Prober computes resource states from the file system, command output and
// the process environment.
type Prober struct {
	walker   *Walker
	executor ports.Executor
}

// NewProber creates a new Prober.
func NewProber(walker *Walker, executor ports.Executor) *Prober {
	return &Prober{walker: walker, executor: executor}
}

// State fingerprints every resource in res.
func (p *Prober) State(ctx context.Context, res domain.Resources) (*domain.ResourcesState, error) {
	files, err := p.fileStates(ctx, res.Files)
	if err != nil {
		return nil, err
	}

	cmds, err := p.cmdStates(ctx, res.Cmds)
	if err != nil {
		return nil, err
	}

	return &domain.ResourcesState{
		Files:   files,
		Cmds:    cmds,
		EnvVars: envStates(res.EnvVars),
	}, nil
}

// MissingPaths returns the declared file paths that do not exist.
func (p *Prober) MissingPaths(res domain.Resources) []string {
	var missing []string
	for _, path := range res.FilePaths() {
		if _, err := os.Lstat(path); errors.Is(err, iofs.ErrNotExist) {
			missing = append(missing, path)
		}
	}
	return missing
}

func (p *Prober) fileStates(ctx context.Context, resources []domain.FilesResource) (map[string]domain.FileState, error) {
	if len(resources) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var paths []string
	for _, r := range resources {
		for _, root := range r.Paths {
			for path, err := range p.walker.WalkFiles(root) {
				if err != nil {
					return nil, err
				}
				if _, ok := seen[path]; ok || !r.Matches(path) {
					continue
				}
				seen[path] = struct{}{}
				paths = append(paths, path)
			}
		}
	}

	var mu sync.Mutex
	states := make(map[string]domain.FileState, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return domain.ErrCancelled
			}
			state, err := fileState(path)
			if err != nil {
				return err
			}
			mu.Lock()
			states[path] = state
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

func fileState(path string) (domain.FileState, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.FileState{}, zerr.With(zerr.Wrap(err, domain.ErrResourceStateFailed.Error()), "path", path)
	}

	hash, err := hashFile(path)
	if err != nil {
		return domain.FileState{}, err
	}

	return domain.FileState{ModTime: info.ModTime().UnixNano(), Hash: hash}, nil
}

// hashFile computes the XXHash of a file's content.
func hashFile(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

func (p *Prober) cmdStates(ctx context.Context, resources []domain.CmdResource) ([]domain.CmdState, error) {
	if len(resources) == 0 {
		return nil, nil
	}

	states := make([]domain.CmdState, 0, len(resources))
	for _, r := range resources {
		out, err := p.executor.Capture(ctx, r.Cmd, r.Dir)
		if err != nil {
			if errors.Is(err, domain.ErrCancelled) {
				return nil, err
			}
			return nil, zerr.Wrap(err, domain.ErrResourceStateFailed.Error())
		}
		states = append(states, domain.CmdState{Cmd: r.Cmd, Dir: r.Dir, Stdout: out})
	}
	return states, nil
}

func envStates(names []string) map[string]*string {
	if len(names) == 0 {
		return nil
	}

	states := make(map[string]*string, len(names))
	for _, name := range names {
		if v, ok := os.LookupEnv(name); ok {
			states[name] = &v
		} else {
			states[name] = nil
		}
	}
	return states
}
