package testsupport

import (
	"path/filepath"
	"testing"

	"voicetrans/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The storage backend defaults to sqlite under the temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Storage.Path = filepath.Join(base, "data", "history.db")
	cfgVal.API.Token = "test-token"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBackend switches the storage backend, placing its file under the temp directory.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Backend = backend
		switch backend {
		case "file":
			b.cfg.Storage.Path = filepath.Join(b.baseDir, "data", "history.json")
		case "memory":
			b.cfg.Storage.Path = ""
		default:
			b.cfg.Storage.Path = filepath.Join(b.baseDir, "data", "history.db")
		}
	}
}

// WithCapacity sets the substrate capacity in bytes.
func WithCapacity(bytes int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.CapacityBytes = bytes
	}
}

// WithAPIBaseURL points the translation client at url, typically an httptest server.
func WithAPIBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.BaseURL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
