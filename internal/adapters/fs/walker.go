// Package fs provides file system adapters for walking and fingerprinting files.
package fs

import (
	"errors"
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/zerr"
)

// Walker provides file walking functionality.
type Walker struct {
	walkDir func(root string, fn fs.WalkDirFunc) error
}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{walkDir: filepath.WalkDir}
}

// WalkFiles yields every regular file below root, or root itself when it is
// a file. VCS metadata and work directories are skipped. A missing root
// yields nothing. Any other error is yielded once and ends the walk, since
// the files seen so far are not the whole set.
func (w *Walker) WalkFiles(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		err := w.walkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root && errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipAll
				}
				return err
			}

			if d.IsDir() {
				if path != root && skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() {
				return nil
			}

			if !yield(path, nil) {
				return filepath.SkipAll
			}

			return nil
		})
		if err != nil {
			yield("", zerr.With(zerr.Wrap(err, domain.ErrResourceStateFailed.Error()), "root", root))
		}
	}
}

func skipDir(name string) bool {
	switch name {
	case ".git", ".jj", domain.WorkDirName:
		return true
	}
	return false
}
