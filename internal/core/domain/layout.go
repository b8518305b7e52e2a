package domain

import (
	"path/filepath"
	"slices"
	"strings"
)

const (
	// WorkDirName is the name of the per-project directory holding target state.
	WorkDirName = ".weft"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "weft.yaml"

	// StateFileExt is the extension of persisted target state files.
	StateFileExt = ".state"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// WorkDir returns the work directory of a project.
func WorkDir(projectDir string) string {
	return filepath.Join(projectDir, WorkDirName)
}

// StatePath returns where the state of a target is persisted.
func StatePath(meta *TargetMetadata) string {
	return filepath.Join(WorkDir(meta.ProjectDir), meta.ID.Name+StateFileExt)
}

// IsInWorkDir reports whether any component of path is a work directory.
func IsInWorkDir(path string) bool {
	return slices.Contains(strings.Split(filepath.ToSlash(path), "/"), WorkDirName)
}
