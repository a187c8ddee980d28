package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSlot keeps the value in a single file. It also serves as the atomic
// file writer for config files and ICS snapshots.
type FileSlot struct {
	path string
}

// NewFileSlot returns a slot backed by path. The file is created on first Save.
func NewFileSlot(path string) (*FileSlot, error) {
	if path == "" {
		return nil, errors.New("storage: file path is empty")
	}
	return &FileSlot{path: path}, nil
}

// Path returns the backing file location.
func (s *FileSlot) Path() string { return s.path }

func (s *FileSlot) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrEmpty
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// Save overwrites the file atomically:
//   - parent directory is created (0700) if missing
//   - data goes to a temp file in the same directory, synced, chmod 0600
//   - the temp file is renamed over the target
func (s *FileSlot) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// No-op after a successful rename.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
