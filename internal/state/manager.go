// Package state persists the presence record between daemon runs.
package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SoarinFerret/ReadRemind/internal/presence"
)

// Store loads and saves the single presence record.
type Store interface {
	// Load returns presence.Fresh() when nothing has been stored yet.
	Load(ctx context.Context) (presence.State, error)
	Save(ctx context.Context, s presence.State) error
}

// FileStore keeps the record in a JSON file, replacing the whole file on every save.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the state file. A missing file yields a fresh state.
func (f *FileStore) Load(_ context.Context) (presence.State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return presence.Fresh(), nil
		}
		return presence.State{}, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	s, err := Decode(data)
	if err != nil {
		return presence.State{}, fmt.Errorf("%s: %w", f.path, err)
	}
	return s, nil
}

// Save atomically writes the state file to disk.
func (f *FileStore) Save(_ context.Context, s presence.State) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	tmp := f.path + ".tmp"
	if err := writeSynced(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}
	syncDir(filepath.Dir(f.path))
	return nil
}

// writeSynced writes data to path and flushes it to stable storage before
// returning, so a rename never exposes an empty file after power loss.
func writeSynced(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	return file.Close()
}

// syncDir persists the rename itself. Best effort: not every filesystem
// supports syncing a directory.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
