// File: internal/repository/thread/snapshot_file.go
package thread

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iyunix/go-relay/internal/domain"
)

// FileSnapshotter keeps the collection as an indented JSON array in a
// single file. Saves go through a temp file and a rename so a crash never
// leaves a half-written snapshot behind.
type FileSnapshotter struct {
	path string
}

func NewFileSnapshotter(path string) (*FileSnapshotter, error) {
	if path == "" {
		return nil, errors.New("snapshot path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	return &FileSnapshotter{path: path}, nil
}

func (f *FileSnapshotter) Load(ctx context.Context) ([]*domain.Thread, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return decodeSnapshot(data)
}

func (f *FileSnapshotter) Save(ctx context.Context, threads []*domain.Thread) error {
	data, err := encodeSnapshot(threads, true)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (f *FileSnapshotter) Close() error { return nil }

func encodeSnapshot(threads []*domain.Thread, indent bool) ([]byte, error) {
	if threads == nil {
		threads = []*domain.Thread{}
	}
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(threads, "", "  ")
	} else {
		data, err = json.Marshal(threads)
	}
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) ([]*domain.Thread, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var threads []*domain.Thread
	if err := json.Unmarshal(data, &threads); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return threads, nil
}
