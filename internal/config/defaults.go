package config

const (
	defaultDataDir          = "~/.local/share/voicetrans"
	defaultLogDir           = "~/.local/share/voicetrans/logs"
	defaultStorageBackend   = "sqlite"
	defaultSQLiteFile       = "history.db"
	defaultJSONFile         = "history.json"
	defaultHistoryKey       = "voice-translate-history"
	defaultHistoryMaxItems  = 50
	defaultToleranceBytes   = 1024
	defaultAPIBaseURL       = "http://localhost:8000"
	defaultAPIModel         = "gemini-2.5-flash"
	defaultAPITimeout       = 120
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	maxHistoryItemsAllowed  = 1000
	minProbeToleranceBytes  = 1
	defaultMemoryCapacityMB = 5
)

// defaultProbeSizesKB mirrors the exponential ladder: 100KB, 500KB, 1MB, 2MB,
// 5MB, 10MB, 20MB.
var defaultProbeSizesKB = []int64{100, 500, 1024, 2 * 1024, 5 * 1024, 10 * 1024, 20 * 1024}

// DefaultMemoryCapacity is the capacity used by memory and file substrates
// when none is configured.
const DefaultMemoryCapacity = int64(defaultMemoryCapacityMB) * 1024 * 1024

// Default returns a Config populated with repository defaults.
func Default() Config {
	sizes := make([]int64, len(defaultProbeSizesKB))
	copy(sizes, defaultProbeSizesKB)
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Storage: Storage{
			Backend: defaultStorageBackend,
		},
		History: History{
			Key:      defaultHistoryKey,
			MaxItems: defaultHistoryMaxItems,
		},
		Quota: Quota{
			ProbeSizesKB:   sizes,
			ToleranceBytes: defaultToleranceBytes,
		},
		API: API{
			BaseURL:        defaultAPIBaseURL,
			DefaultModel:   defaultAPIModel,
			TimeoutSeconds: defaultAPITimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
