package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voicetrans/internal/config"
	"voicetrans/internal/storage"
)

type backendFactory func(t *testing.T, capacity int64) storage.Substrate

func backends() map[string]backendFactory {
	return map[string]backendFactory{
		"memory": func(t *testing.T, capacity int64) storage.Substrate {
			return storage.NewMemory(capacity)
		},
		"file": func(t *testing.T, capacity int64) storage.Substrate {
			sub, err := storage.OpenFile(filepath.Join(t.TempDir(), "kv.json"), capacity, nil)
			if err != nil {
				t.Fatalf("OpenFile: %v", err)
			}
			t.Cleanup(func() { _ = sub.Close() })
			return sub
		},
		"sqlite": func(t *testing.T, capacity int64) storage.Substrate {
			sub, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "kv.db"), capacity)
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			t.Cleanup(func() { _ = sub.Close() })
			return sub
		},
	}
}

func TestSubstrateBasicOperations(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sub := factory(t, 0)

			if _, ok, err := sub.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get missing = ok %v err %v", ok, err)
			}
			if err := sub.Set(ctx, "b", "two"); err != nil {
				t.Fatalf("Set b: %v", err)
			}
			if err := sub.Set(ctx, "a", "一"); err != nil {
				t.Fatalf("Set a: %v", err)
			}
			if err := sub.Set(ctx, "b", "deux"); err != nil {
				t.Fatalf("overwrite b: %v", err)
			}
			value, ok, err := sub.Get(ctx, "b")
			if err != nil || !ok || value != "deux" {
				t.Fatalf("Get b = %q %v %v", value, ok, err)
			}
			keys, err := sub.Keys(ctx)
			if err != nil {
				t.Fatalf("Keys: %v", err)
			}
			if strings.Join(keys, ",") != "a,b" {
				t.Fatalf("Keys = %v", keys)
			}
			if err := sub.Delete(ctx, "a"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if err := sub.Delete(ctx, "a"); err != nil {
				t.Fatalf("Delete missing: %v", err)
			}
			if err := sub.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			keys, err = sub.Keys(ctx)
			if err != nil || len(keys) != 0 {
				t.Fatalf("Keys after clear = %v %v", keys, err)
			}
		})
	}
}

func TestSubstrateEnforcesCapacity(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sub := factory(t, 100)

			if err := sub.Set(ctx, "k1", strings.Repeat("x", 48)); err != nil {
				t.Fatalf("first write: %v", err)
			}
			if err := sub.Set(ctx, "k2", strings.Repeat("y", 48)); err != nil {
				t.Fatalf("exact fit write: %v", err)
			}
			err := sub.Set(ctx, "k3", "z")
			if !errors.Is(err, storage.ErrQuotaExceeded) {
				t.Fatalf("expected ErrQuotaExceeded, got %v", err)
			}
			if _, ok, _ := sub.Get(ctx, "k3"); ok {
				t.Fatal("rejected write must not be stored")
			}

			// Replacing a value only counts the new size.
			if err := sub.Set(ctx, "k2", strings.Repeat("y", 40)); err != nil {
				t.Fatalf("shrinking overwrite: %v", err)
			}
			if err := sub.Set(ctx, "k3", "z"); err != nil {
				t.Fatalf("write after freeing space: %v", err)
			}
		})
	}
}

func TestFileSubstratePersistsAcrossHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "kv.json")

	first, err := storage.OpenFile(path, 0, nil)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := first.Set(ctx, "history", `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	_ = first.Close()

	second, err := storage.OpenFile(path, 0, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	value, ok, err := second.Get(ctx, "history")
	if err != nil || !ok || value != `[{"id":"1"}]` {
		t.Fatalf("Get after reopen = %q %v %v", value, ok, err)
	}
}

func TestFileSubstrateToleratesCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	sub, err := storage.OpenFile(path, 0, nil)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer sub.Close()

	keys, err := sub.Keys(ctx)
	if err != nil || len(keys) != 0 {
		t.Fatalf("Keys on corrupt file = %v %v", keys, err)
	}
	if err := sub.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set should replace corrupt file: %v", err)
	}
	if value, ok, _ := sub.Get(ctx, "k"); !ok || value != "v" {
		t.Fatalf("Get after recovery = %q %v", value, ok)
	}
}

func TestSQLiteSubstratePersistsAcrossHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	first, err := storage.OpenSQLite(path, 0)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := first.Set(ctx, "history", "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, _, err := first.Get(ctx, "history"); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}

	second, err := storage.OpenSQLite(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if value, ok, err := second.Get(ctx, "history"); err != nil || !ok || value != "[]" {
		t.Fatalf("Get after reopen = %q %v %v", value, ok, err)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		cfg  config.Storage
		want string
	}{
		{config.Storage{Backend: "memory"}, "*storage.Memory"},
		{config.Storage{Backend: "file", Path: filepath.Join(dir, "kv.json")}, "*storage.File"},
		{config.Storage{Backend: "sqlite", Path: filepath.Join(dir, "kv.db")}, "*storage.SQLite"},
	}
	for _, tc := range cases {
		sub, err := storage.Open(tc.cfg, nil)
		if err != nil {
			t.Fatalf("Open(%s): %v", tc.cfg.Backend, err)
		}
		switch sub.(type) {
		case *storage.Memory:
			if tc.want != "*storage.Memory" {
				t.Fatalf("%s: got memory", tc.cfg.Backend)
			}
		case *storage.File:
			if tc.want != "*storage.File" {
				t.Fatalf("%s: got file", tc.cfg.Backend)
			}
		case *storage.SQLite:
			if tc.want != "*storage.SQLite" {
				t.Fatalf("%s: got sqlite", tc.cfg.Backend)
			}
		}
		_ = sub.Close()
	}

	if _, err := storage.Open(config.Storage{Backend: "redis"}, nil); !errors.Is(err, storage.ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestAvailableBytesReportsSpace(t *testing.T) {
	free, ok := storage.AvailableBytes(t.TempDir())
	if !ok {
		t.Skip("filesystem statistics unavailable on this platform")
	}
	if free <= 0 {
		t.Fatalf("expected positive free space, got %d", free)
	}
}
