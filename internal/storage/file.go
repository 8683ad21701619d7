package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"voicetrans/internal/logging"
)

// File is a Substrate persisted as a single JSON object. Every mutation
// reloads the file, applies the change, and rewrites it atomically while
// holding an exclusive flock, so concurrent processes never see a torn file.
type File struct {
	mu       sync.Mutex
	path     string
	capacity int64
	lock     *flock.Flock
	logger   *slog.Logger
}

// OpenFile prepares a JSON-file substrate at path. The file is created lazily
// on first write. A capacity <= 0 means unlimited.
func OpenFile(path string, capacity int64, logger *slog.Logger) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("file storage: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file storage: create directory: %w", err)
	}
	return &File{
		path:     path,
		capacity: capacity,
		lock:     flock.New(path + ".lock"),
		logger:   logging.NewComponentLogger(logger, "storage"),
	}, nil
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := f.withLock(ctx, false, func(entries map[string]string) (bool, error) {
		value, found = entries[key]
		return false, nil
	})
	return value, found, err
}

func (f *File) Set(ctx context.Context, key, value string) error {
	return f.withLock(ctx, true, func(entries map[string]string) (bool, error) {
		var used int64
		for k, v := range entries {
			if k != key {
				used += EntrySize(k, v)
			}
		}
		size := EntrySize(key, value)
		if f.capacity > 0 && used+size > f.capacity {
			return false, quotaError(key, size, f.capacity)
		}
		entries[key] = value
		return true, nil
	})
}

func (f *File) Delete(ctx context.Context, key string) error {
	return f.withLock(ctx, true, func(entries map[string]string) (bool, error) {
		if _, ok := entries[key]; !ok {
			return false, nil
		}
		delete(entries, key)
		return true, nil
	})
}

func (f *File) Clear(ctx context.Context) error {
	return f.withLock(ctx, true, func(entries map[string]string) (bool, error) {
		if len(entries) == 0 {
			return false, nil
		}
		clear(entries)
		return true, nil
	})
}

func (f *File) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := f.withLock(ctx, false, func(entries map[string]string) (bool, error) {
		keys = make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		return false, nil
	})
	sort.Strings(keys)
	return keys, err
}

// Close releases the lock file handle.
func (f *File) Close() error {
	return f.lock.Close()
}

// withLock loads the entries under a shared or exclusive lock, runs fn, and
// persists the entries when fn reports a change.
func (f *File) withLock(ctx context.Context, exclusive bool, fn func(map[string]string) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// flock tracks lock state per handle, so goroutines in this process
	// serialize on mu first.
	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	if exclusive {
		err = f.lock.Lock()
	} else {
		err = f.lock.RLock()
	}
	if err != nil {
		return fmt.Errorf("file storage: acquire lock: %w", err)
	}
	defer func() { _ = f.lock.Unlock() }()

	entries, err := f.load()
	if err != nil {
		return err
	}
	changed, err := fn(entries)
	if err != nil || !changed {
		return err
	}
	return f.save(entries)
}

func (f *File) load() (map[string]string, error) {
	entries := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("file storage: read: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		logging.WarnWithContext(f.logger, "storage file unreadable; starting empty", "storage_file_corrupt",
			logging.Error(err),
			logging.String("path", f.path),
			logging.String(logging.FieldErrorHint, "inspect or delete the storage file"),
			logging.String(logging.FieldImpact, "stored keys are ignored until the next write replaces the file"))
		return make(map[string]string), nil
	}
	return entries, nil
}

// save writes the entries atomically via a temp file and rename.
func (f *File) save(entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("file storage: marshal: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("file storage: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("file storage: rename temp file: %w", err)
	}
	return nil
}
