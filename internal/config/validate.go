package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate reports the first configuration value that cannot be used.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateQuota(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "sqlite", "file", "memory":
	default:
		return fmt.Errorf("storage.backend: unsupported value %q (expected sqlite, file, or memory)", c.Storage.Backend)
	}
	if c.Storage.CapacityBytes < 0 {
		return errors.New("storage.capacity_bytes must be zero or positive")
	}
	return nil
}

func (c *Config) validateHistory() error {
	if c.History.MaxItems < 1 || c.History.MaxItems > maxHistoryItemsAllowed {
		return fmt.Errorf("history.max_items must be between 1 and %d", maxHistoryItemsAllowed)
	}
	return nil
}

func (c *Config) validateQuota() error {
	var previous int64
	for _, size := range c.Quota.ProbeSizesKB {
		if size <= 0 {
			return errors.New("quota.probe_sizes_kb entries must be positive")
		}
		if size <= previous {
			return errors.New("quota.probe_sizes_kb must be strictly increasing")
		}
		previous = size
	}
	if c.Quota.ToleranceBytes < minProbeToleranceBytes {
		return errors.New("quota.tolerance_bytes must be positive")
	}
	return nil
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url: invalid url %q", c.API.BaseURL)
	}
	if c.API.TimeoutSeconds < 0 {
		return errors.New("api.timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
