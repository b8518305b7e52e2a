// Package config provides the weft.yaml configuration loader.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// defaultProjectName names a root project that declares no name and whose
// directory name is not a valid project name.
const defaultProjectName = "root"

// Loader implements ports.ConfigLoader using YAML files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// project is a loaded weft.yaml.
type project struct {
	name string
	dir  string
	file *Weftfile
}

// Load finds the nearest weft.yaml at or above cwd, loads it with every
// project it imports, and returns the validated target graph.
func (l *Loader) Load(cwd string) (*domain.Graph, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	projects, rootName, err := l.loadProjects(filepath.Dir(configPath))
	if err != nil {
		return nil, err
	}

	g := domain.NewGraph()
	g.SetRootProject(rootName)

	var merges []outputMerge
	for _, name := range slices.Sorted(maps.Keys(projects)) {
		pending, err := addProjectTargets(g, projects[name])
		if err != nil {
			return nil, err
		}
		merges = append(merges, pending...)
	}

	if err := resolveOutputMerges(g, merges); err != nil {
		return nil, err
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	l.Logger.Debug(fmt.Sprintf("Loaded %d targets from %d projects", g.Len(), len(projects)))
	return g, nil
}

func findConfiguration(cwd string) (string, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrConfigNotFound.Error()), "cwd", cwd)
	}

	for dir := abs; ; {
		path := filepath.Join(dir, domain.ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
		}
		dir = parent
	}
}

// loadProjects loads the root project and, level by level, every project it
// transitively imports. Files of one level are read concurrently.
func (l *Loader) loadProjects(rootDir string) (map[string]*project, string, error) {
	rootFile, err := readWeftfile(rootDir)
	if err != nil {
		return nil, "", err
	}

	rootName := rootFile.Name
	if rootName == "" {
		rootName = filepath.Base(rootDir)
		if domain.ValidateName(rootName) != nil {
			rootName = defaultProjectName
		}
	} else if err := domain.ValidateName(rootName); err != nil {
		return nil, "", zerr.With(err, "project_dir", rootDir)
	}

	root := &project{name: rootName, dir: rootDir, file: rootFile}
	projects := map[string]*project{rootName: root}
	level := []*project{root}

	for len(level) > 0 {
		type importRef struct{ name, dir string }
		var refs []importRef
		for _, p := range level {
			for _, name := range slices.Sorted(maps.Keys(p.file.Imports)) {
				dir := filepath.Clean(filepath.Join(p.dir, p.file.Imports[name]))
				if existing, ok := projects[name]; ok {
					if existing.dir != dir {
						err := zerr.With(domain.ErrDuplicateProject, "project", name)
						return nil, "", zerr.With(err, "dirs", existing.dir+", "+dir)
					}
					continue
				}
				if slices.ContainsFunc(refs, func(r importRef) bool { return r.name == name }) {
					continue
				}
				refs = append(refs, importRef{name: name, dir: dir})
			}
		}

		files := make([]*Weftfile, len(refs))
		var g errgroup.Group
		for i, ref := range refs {
			g.Go(func() error {
				file, err := readWeftfile(ref.dir)
				if err != nil {
					return zerr.With(err, "import", ref.name)
				}
				files[i] = file
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, "", err
		}

		level = level[:0]
		for i, ref := range refs {
			if err := checkImportName(ref.name, ref.dir, files[i]); err != nil {
				return nil, "", err
			}
			p := &project{name: ref.name, dir: ref.dir, file: files[i]}
			projects[ref.name] = p
			level = append(level, p)
		}
	}

	return projects, rootName, nil
}

func checkImportName(name, dir string, file *Weftfile) error {
	if err := domain.ValidateName(name); err != nil {
		return zerr.With(err, "import", name)
	}
	if file.Name == "" {
		return zerr.With(domain.ErrMissingProjectName, "project_dir", dir)
	}
	if file.Name != name {
		err := zerr.With(domain.ErrImportNameMismatch, "import", name)
		return zerr.With(err, "name", file.Name)
	}
	return nil
}

func readWeftfile(dir string) (*Weftfile, error) {
	path := filepath.Join(dir, domain.ConfigFileName)

	// #nosec G304 -- path is derived from the project layout
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var file Weftfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}
	return &file, nil
}

// outputMerge records that target reads the output resources of dependency.
type outputMerge struct {
	target     domain.TargetID
	dependency domain.TargetID
}

func addProjectTargets(g *domain.Graph, p *project) ([]outputMerge, error) {
	var merges []outputMerge

	for _, name := range slices.Sorted(maps.Keys(p.file.Targets)) {
		dto := p.file.Targets[name]
		if dto == nil {
			dto = &TargetDTO{}
		}

		if err := domain.ValidateName(name); err != nil {
			return nil, zerr.With(err, "project", p.name)
		}
		id := domain.NewTargetID(p.name, name)

		target, pending, err := buildTarget(id, p.dir, dto)
		if err != nil {
			return nil, zerr.With(err, "target", id.String())
		}
		if err := g.AddTarget(target); err != nil {
			return nil, err
		}
		merges = append(merges, pending...)
	}

	return merges, nil
}

func buildTarget(id domain.TargetID, dir string, dto *TargetDTO) (domain.Target, []outputMerge, error) {
	if dto.Build != "" && dto.Service != "" {
		return nil, nil, domain.ErrConflictingTargetKind
	}

	meta := domain.TargetMetadata{ID: id, ProjectDir: dir}
	for _, dep := range dto.Dependencies {
		depID, err := domain.ParseTargetID(dep, id.Project)
		if err != nil {
			return nil, nil, err
		}
		meta.Dependencies = appendUnique(meta.Dependencies, depID)
	}

	input, depOutputs, err := toResources(dto.Input, dir, id.Project)
	if err != nil {
		return nil, nil, err
	}
	output, outputDeps, err := toResources(dto.Output, dir, id.Project)
	if err != nil {
		return nil, nil, err
	}
	if len(outputDeps) > 0 {
		return nil, nil, zerr.With(domain.ErrInvalidInputItem, "output", outputDeps[0].String()+".output")
	}

	merges := make([]outputMerge, 0, len(depOutputs))
	for _, dep := range depOutputs {
		meta.Dependencies = appendUnique(meta.Dependencies, dep)
		merges = append(merges, outputMerge{target: id, dependency: dep})
	}

	switch {
	case dto.Build != "":
		return &domain.BuildTarget{TargetMetadata: meta, Script: dto.Build, Input: input, Output: output}, merges, nil
	case dto.Service != "":
		return &domain.ServiceTarget{TargetMetadata: meta, Script: dto.Service, Input: input}, merges, nil
	default:
		return &domain.AggregateTarget{TargetMetadata: meta}, nil, nil
	}
}

func toResources(items []ResourceItem, dir, projectName string) (domain.Resources, []domain.TargetID, error) {
	var res domain.Resources
	var deps []domain.TargetID

	for _, item := range items {
		switch {
		case item.DependencyOutput != "":
			dep, err := domain.ParseTargetID(item.DependencyOutput, projectName)
			if err != nil {
				return domain.Resources{}, nil, err
			}
			deps = append(deps, dep)
		case len(item.Paths) > 0:
			paths := make([]string, len(item.Paths))
			for i, path := range item.Paths {
				paths[i] = rebase(dir, path)
			}
			res.Files = append(res.Files, domain.FilesResource{Paths: paths, Extensions: item.Extensions})
		case item.CmdStdout != "":
			res.Cmds = append(res.Cmds, domain.CmdResource{Cmd: item.CmdStdout, Dir: dir})
		default:
			res.EnvVars = append(res.EnvVars, item.Env...)
		}
	}

	return res, deps, nil
}

func resolveOutputMerges(g *domain.Graph, merges []outputMerge) error {
	for _, m := range merges {
		dep, ok := g.Target(m.dependency)
		if !ok {
			err := zerr.With(domain.ErrMissingDependency, "target", m.target.String())
			return zerr.With(err, "dependency", m.dependency.String())
		}

		target, _ := g.Target(m.target)
		switch t := target.(type) {
		case *domain.BuildTarget:
			t.Input = t.Input.Merge(dep.OutputResources())
		case *domain.ServiceTarget:
			t.Input = t.Input.Merge(dep.OutputResources())
		}
	}
	return nil
}

func rebase(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

func appendUnique(ids []domain.TargetID, id domain.TargetID) []domain.TargetID {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
