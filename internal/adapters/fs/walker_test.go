package fs_test

import (
	"errors"
	iofs "io/fs"
	"iter"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/weft/internal/adapters/fs"
	"go.trai.ch/weft/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func collect(t *testing.T, seq iter.Seq2[string, error]) []string {
	t.Helper()
	var files []string
	for path, err := range seq {
		require.NoError(t, err)
		files = append(files, path)
	}
	return files
}

func TestWalker_WalkFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "file1.txt"), "content1")
	writeFile(t, filepath.Join(tmpDir, "dir1", "file2.txt"), "content2")
	writeFile(t, filepath.Join(tmpDir, "dir2", "file3.txt"), "content3")

	files := collect(t, fs.NewWalker().WalkFiles(tmpDir))

	assert.ElementsMatch(t, []string{
		filepath.Join(tmpDir, "file1.txt"),
		filepath.Join(tmpDir, "dir1", "file2.txt"),
		filepath.Join(tmpDir, "dir2", "file3.txt"),
	}, files)
}

func TestWalker_WalkFiles_SkipsMetadataDirs(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".git", "config"), "gitconfig")
	writeFile(t, filepath.Join(tmpDir, ".jj", "store"), "jjstore")
	writeFile(t, filepath.Join(tmpDir, ".weft", "compile.state"), "{}")
	writeFile(t, filepath.Join(tmpDir, "src", "main.go"), "package main")

	files := collect(t, fs.NewWalker().WalkFiles(tmpDir))

	assert.Equal(t, []string{filepath.Join(tmpDir, "src", "main.go")}, files)
}

func TestWalker_WalkFiles_SingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.mod")
	writeFile(t, path, "module x")

	assert.Equal(t, []string{path}, collect(t, fs.NewWalker().WalkFiles(path)))
}

func TestWalker_WalkFiles_Missing(t *testing.T) {
	files := collect(t, fs.NewWalker().WalkFiles(filepath.Join(t.TempDir(), "nope")))
	assert.Empty(t, files)
}

func TestWalker_WalkFiles_EarlyExit(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a"), "a")
	writeFile(t, filepath.Join(tmpDir, "b"), "b")

	count := 0
	for range fs.NewWalker().WalkFiles(tmpDir) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestWalker_WalkFiles_Error(t *testing.T) {
	denied := errors.New("permission denied")
	walker := fs.NewWalkerWithWalkDir(func(root string, fn iofs.WalkDirFunc) error {
		if err := fn(filepath.Join(root, "a.txt"), fileEntry{name: "a.txt"}, nil); err != nil {
			return err
		}
		return fn(filepath.Join(root, "locked"), nil, denied)
	})

	var files []string
	var walkErr error
	for path, err := range walker.WalkFiles("/src") {
		if err != nil {
			walkErr = err
			continue
		}
		files = append(files, path)
	}

	assert.Equal(t, []string{filepath.Join("/src", "a.txt")}, files)
	require.ErrorIs(t, walkErr, denied)
	assert.ErrorContains(t, walkErr, domain.ErrResourceStateFailed.Error())
}

// fileEntry is a regular file entry for injected walks.
type fileEntry struct {
	name string
}

func (e fileEntry) Name() string               { return e.name }
func (fileEntry) IsDir() bool                  { return false }
func (fileEntry) Type() iofs.FileMode          { return 0 }
func (fileEntry) Info() (iofs.FileInfo, error) { return nil, iofs.ErrInvalid }
