package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileSlot keeps all arrays in one JSON object on disk, {"key": ["a","b"]}.
// Writes go to a temp file in the same directory and are renamed into place.
type FileSlot struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

func NewFile(path string, logger *zap.Logger) (*FileSlot, error) {
	if path == "" {
		return nil, errors.New("file store: path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file store: create dir: %w", err)
	}
	return &FileSlot{path: path, logger: logger}, nil
}

func (f *FileSlot) Load(_ context.Context, key string) ([]string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		return nil, false, err
	}
	v, ok := all[key]
	if !ok {
		return nil, false, nil
	}
	return cloneStrings(v), true, nil
}

func (f *FileSlot) Save(_ context.Context, key string, values []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll()
	if err != nil {
		// A corrupt file is replaced rather than blocking every future write.
		f.logger.Warn("store.file.read_failed_overwriting", zap.String("path", f.path), zap.Error(err))
		all = make(map[string][]string)
	}
	all[key] = cloneStrings(values)

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".slot-*.tmp")
	if err != nil {
		return fmt.Errorf("file store: temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file store: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file store: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("file store: rename: %w", err)
	}
	return nil
}

func (f *FileSlot) readAll() (map[string][]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string][]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: read: %w", err)
	}
	all := make(map[string][]string)
	if len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("file store: decode %s: %w", f.path, err)
	}
	return all, nil
}

// HealthCheck verifies the directory is still writable.
func (f *FileSlot) HealthCheck(context.Context) error {
	dir := filepath.Dir(f.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("file store: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("file store: %s is not a directory", dir)
	}
	return nil
}

func (f *FileSlot) Close() error { return nil }
