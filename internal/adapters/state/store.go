// Package state persists the last successful resource state of each target.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
	"go.trai.ch/zerr"
)

// SchemaVersion is bumped whenever the persisted layout changes. Files with
// another version are discarded.
const SchemaVersion = 1

var _ ports.StateStore = (*Store)(nil)

type record struct {
	Schema int                    `json:"schema"`
	Target string                 `json:"target"`
	State  *domain.TargetEnvState `json:"state"`
}

// Store implements ports.StateStore with one JSON file per target inside the
// project's work directory.
type Store struct {
	logger ports.Logger
}

// NewStore creates a new Store.
func NewStore(logger ports.Logger) *Store {
	return &Store{logger: logger}
}

// Load retrieves the saved state of a target.
func (s *Store) Load(meta *domain.TargetMetadata) (*domain.TargetEnvState, error) {
	path := domain.StatePath(meta)
	//nolint:gosec // Path is built from the project directory and a validated target name
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", path)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.Schema != SchemaVersion || rec.State == nil {
		s.logger.Warn(fmt.Sprintf("%s - Discarding unreadable saved state %s", meta.ID, path))
		if rmErr := s.Delete(meta); rmErr != nil {
			return nil, rmErr
		}
		return nil, nil
	}

	return rec.State, nil
}

// Save atomically replaces the saved state of a target.
func (s *Store) Save(meta *domain.TargetMetadata, state *domain.TargetEnvState) error {
	data, err := json.MarshalIndent(record{
		Schema: SchemaVersion,
		Target: meta.ID.String(),
		State:  state,
	}, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	path := domain.StatePath(meta)
	if err := writeFileAtomic(path, data); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}
	return nil
}

// Delete removes the saved state of a target.
func (s *Store) Delete(meta *domain.TargetMetadata) error {
	path := domain.StatePath(meta)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreDeleteFailed.Error()), "path", path)
	}
	return nil
}

// writeFileAtomic writes data next to path and renames it into place, so a
// reader never observes a partially written state file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(domain.FilePerm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir) //nolint:gosec // Work directory path
	if err != nil {
		return err
	}
	defer d.Close() //nolint:errcheck // Read-only handle
	return d.Sync()
}
