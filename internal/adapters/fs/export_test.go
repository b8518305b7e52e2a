package fs

import "io/fs"

// NewWalkerWithWalkDir creates a Walker traversing with walkDir.
func NewWalkerWithWalkDir(walkDir func(root string, fn fs.WalkDirFunc) error) *Walker {
	return &Walker{walkDir: walkDir}
}
