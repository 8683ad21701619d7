package testsupport

import (
	"testing"

	"voicetrans/internal/config"
	"voicetrans/internal/logging"
	"voicetrans/internal/storage"
)

// MustOpenSubstrate opens the configured storage substrate and registers cleanup.
func MustOpenSubstrate(t testing.TB, cfg *config.Config) storage.Substrate {
	t.Helper()

	sub, err := storage.Open(cfg.Storage, logging.NewNop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = sub.Close()
	})
	return sub
}
