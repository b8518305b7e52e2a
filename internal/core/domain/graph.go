package domain

import (
	"cmp"
	"iter"
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// Graph is the dependency graph of every target in the loaded projects.
type Graph struct {
	rootProject    string
	targets        map[TargetID]Target
	executionOrder []TargetID
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		targets: make(map[TargetID]Target),
	}
}

// SetRootProject sets the project bare target names resolve against.
func (g *Graph) SetRootProject(name string) {
	g.rootProject = name
}

// RootProject returns the project bare target names resolve against.
func (g *Graph) RootProject() string {
	return g.rootProject
}

// AddTarget adds a target to the graph.
// It returns an error if a target with the same id already exists.
func (g *Graph) AddTarget(t Target) error {
	id := t.Meta().ID
	if _, exists := g.targets[id]; exists {
		return zerr.With(ErrTargetAlreadyExists, "target", id.String())
	}
	g.targets[id] = t
	return nil
}

// Target returns the target with the given id.
func (g *Graph) Target(id TargetID) (Target, bool) {
	t, ok := g.targets[id]
	return t, ok
}

// Len returns the number of targets.
func (g *Graph) Len() int {
	return len(g.targets)
}

// IDs returns every target id, sorted.
func (g *Graph) IDs() []TargetID {
	return slices.SortedFunc(maps.Keys(g.targets), compareTargetIDs)
}

// Resolve parses a command-line target name against the root project and
// checks that it exists.
func (g *Graph) Resolve(name string) (TargetID, error) {
	id, err := ParseTargetID(name, g.rootProject)
	if err != nil {
		return TargetID{}, err
	}
	if _, ok := g.targets[id]; !ok {
		return TargetID{}, zerr.With(ErrTargetNotFound, "target", id.String())
	}
	return id, nil
}

// Validate checks for missing dependencies and cycles using a depth-first
// topological sort. It populates the execution order if successful.
func (g *Graph) Validate() error {
	g.executionOrder = make([]TargetID, 0, len(g.targets))
	visited := make(map[TargetID]int) // 0: unvisited, 1: visiting, 2: visited
	var path []TargetID

	var visit func(u TargetID) error
	visit = func(u TargetID) error {
		visited[u] = 1
		path = append(path, u)

		for _, dep := range g.targets[u].Meta().Dependencies {
			if _, exists := g.targets[dep]; !exists {
				err := zerr.With(ErrMissingDependency, "target", u.String())
				return zerr.With(err, "dependency", dep.String())
			}
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	for _, id := range g.IDs() {
		if visited[id] == 0 {
			if err := visit(id); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []TargetID, dep TargetID) error {
	startIdx := slices.Index(path, dep)
	cyclePath := ""
	for _, node := range path[startIdx:] {
		cyclePath += node.String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator that yields targets dependencies first.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Target] {
	return func(yield func(Target) bool) {
		for _, id := range g.executionOrder {
			if !yield(g.targets[id]) {
				return
			}
		}
	}
}

// Closure returns the given roots and all their transitive dependencies,
// dependencies first.
func (g *Graph) Closure(roots []TargetID) []TargetID {
	seen := make(map[TargetID]bool)
	var order []TargetID

	var visit func(id TargetID)
	visit = func(id TargetID) {
		if seen[id] {
			return
		}
		seen[id] = true
		t, ok := g.targets[id]
		if !ok {
			return
		}
		for _, dep := range t.Meta().Dependencies {
			visit(dep)
		}
		order = append(order, id)
	}

	for _, id := range roots {
		visit(id)
	}
	return order
}

func compareTargetIDs(a, b TargetID) int {
	return cmp.Or(cmp.Compare(a.Project, b.Project), cmp.Compare(a.Name, b.Name))
}
