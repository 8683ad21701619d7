package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"voicetrans/internal/config"
)

var (
	// ErrQuotaExceeded is returned (wrapped) when a write would exceed capacity.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrUnknownBackend is returned by Open for unsupported backend names.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrClosed is returned by operations on a closed substrate.
	ErrClosed = errors.New("storage closed")
)

// Substrate is a capacity-limited string key/value store.
type Substrate interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
	// Keys lists every stored key in ascending order.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

var (
	_ Substrate = (*Memory)(nil)
	_ Substrate = (*File)(nil)
	_ Substrate = (*SQLite)(nil)
)

// EntrySize is the number of bytes an entry counts against capacity.
func EntrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}

func quotaError(key string, need, capacity int64) error {
	return fmt.Errorf("%w: writing %q needs %d bytes, capacity %d", ErrQuotaExceeded, key, need, capacity)
}

// Open constructs the substrate selected by cfg.
func Open(cfg config.Storage, logger *slog.Logger) (Substrate, error) {
	switch cfg.Backend {
	case "memory":
		capacity := cfg.CapacityBytes
		if capacity == 0 {
			capacity = config.DefaultMemoryCapacity
		}
		return NewMemory(capacity), nil
	case "file":
		capacity := cfg.CapacityBytes
		if capacity == 0 {
			capacity = config.DefaultMemoryCapacity
		}
		return OpenFile(cfg.Path, capacity, logger)
	case "sqlite":
		return OpenSQLite(cfg.Path, cfg.CapacityBytes)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
