package domain

import (
	"path/filepath"
	"slices"
	"strings"
)

// FilesResource tracks every file below a set of paths, optionally filtered
// by extension.
type FilesResource struct {
	Paths      []string
	Extensions []string
}

// Matches reports whether path passes the extension filter.
func (r FilesResource) Matches(path string) bool {
	if len(r.Extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return slices.Contains(r.Extensions, ext)
}

// CmdResource tracks the standard output of a shell command.
type CmdResource struct {
	Cmd string
	Dir string
}

// Resources is everything whose state decides whether a target is stale.
type Resources struct {
	Files   []FilesResource
	Cmds    []CmdResource
	EnvVars []string
}

// IsEmpty reports whether no resource is declared.
func (r Resources) IsEmpty() bool {
	return len(r.Files) == 0 && len(r.Cmds) == 0 && len(r.EnvVars) == 0
}

// Merge returns the union of r and other.
func (r Resources) Merge(other Resources) Resources {
	return Resources{
		Files:   append(slices.Clone(r.Files), other.Files...),
		Cmds:    append(slices.Clone(r.Cmds), other.Cmds...),
		EnvVars: append(slices.Clone(r.EnvVars), other.EnvVars...),
	}
}

// FilePaths returns every declared file path in declaration order.
func (r Resources) FilePaths() []string {
	var paths []string
	for _, f := range r.Files {
		paths = append(paths, f.Paths...)
	}
	return paths
}
