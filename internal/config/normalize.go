package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeHistory()
	c.normalizeQuota()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStorage() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaultStorageBackend
	}
	path := strings.TrimSpace(c.Storage.Path)
	if path == "" {
		switch c.Storage.Backend {
		case "sqlite":
			path = filepath.Join(c.Paths.DataDir, defaultSQLiteFile)
		case "file":
			path = filepath.Join(c.Paths.DataDir, defaultJSONFile)
		}
	}
	var err error
	if c.Storage.Path, err = expandPath(path); err != nil {
		return fmt.Errorf("storage.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeHistory() {
	c.History.Key = strings.TrimSpace(c.History.Key)
	if c.History.Key == "" {
		c.History.Key = defaultHistoryKey
	}
	if c.History.MaxItems == 0 {
		c.History.MaxItems = defaultHistoryMaxItems
	}
}

func (c *Config) normalizeQuota() {
	if len(c.Quota.ProbeSizesKB) == 0 {
		c.Quota.ProbeSizesKB = append([]int64(nil), defaultProbeSizesKB...)
	}
	if c.Quota.ToleranceBytes == 0 {
		c.Quota.ToleranceBytes = defaultToleranceBytes
	}
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if value, ok := os.LookupEnv("VOICETRANS_API_URL"); ok && strings.TrimSpace(value) != "" {
		c.API.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	if value, ok := os.LookupEnv("VOICETRANS_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.API.Token = value
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	c.API.DefaultModel = strings.TrimSpace(c.API.DefaultModel)
	if c.API.DefaultModel == "" {
		c.API.DefaultModel = defaultAPIModel
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = defaultAPITimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
