package watcher

import (
	"path/filepath"
	"strings"

	"go.trai.ch/weft/internal/core/domain"
)

// skipDirectories are directories that are never watched.
var skipDirectories = map[string]bool{
	".git":             true,
	".jj":              true,
	domain.WorkDirName: true,
}

// isIgnored reports whether a change to path should never invalidate a
// target: editor swap and backup files, and anything inside a work directory.
func isIgnored(path string) bool {
	if domain.IsInWorkDir(path) {
		return true
	}

	name := filepath.Base(path)
	if strings.HasSuffix(name, "~") {
		return true
	}
	if strings.HasPrefix(name, ".") && (strings.HasSuffix(name, ".swp") || strings.HasSuffix(name, ".swx")) {
		return true
	}
	return false
}

// isUnder reports whether path is root or lies below it.
func isUnder(path, root string) bool {
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
