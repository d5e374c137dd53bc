package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the offload CLI.
type Config struct {
	Source     SourceConfig  `yaml:"source"`
	Archive    ArchiveConfig `yaml:"archive"`
	Ledger     string        `yaml:"ledger"`
	FailureLog string        `yaml:"failure_log"`
	BatchSize  int           `yaml:"batch_size"`
	Workers    int           `yaml:"workers"`
	Progress   bool          `yaml:"progress"`
	Retry      RetryConfig   `yaml:"retry"`
}

// SourceConfig locates the remote media library.
type SourceConfig struct {
	// IndexURL is the HTTP endpoint listing the library's items as JSON.
	IndexURL string `yaml:"index_url"`
}

// ArchiveConfig selects the archive destination. Exactly one of Zip, Dir,
// or Bucket must be set.
type ArchiveConfig struct {
	// Zip is the path of a single zip container.
	Zip string `yaml:"zip"`

	// Dir is a plain local directory.
	Dir string `yaml:"dir"`

	// Bucket is a gocloud bucket URL (s3://..., gs://..., file://...).
	Bucket string `yaml:"bucket"`
}

// RetryConfig defines per-item retry behavior.
type RetryConfig struct {
	// Attempts is the total number of tries per item.
	Attempts int `yaml:"attempts"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Ledger:     "downloaded_files.txt",
		FailureLog: "failed_deletions.log",
		BatchSize:  100,
		Workers:    10,
		Retry: RetryConfig{
			Attempts: 3,
		},
	}
}

// LoadFromFile loads configuration from a YAML file, overlaying defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	return cfg.Merge(override), nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the OFFLOAD_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("OFFLOAD_INDEX_URL"); v != "" {
		c.Source.IndexURL = v
	}
	if v := os.Getenv("OFFLOAD_ARCHIVE_ZIP"); v != "" {
		c.Archive.Zip = v
	}
	if v := os.Getenv("OFFLOAD_ARCHIVE_DIR"); v != "" {
		c.Archive.Dir = v
	}
	if v := os.Getenv("OFFLOAD_ARCHIVE_BUCKET"); v != "" {
		c.Archive.Bucket = v
	}
	if v := os.Getenv("OFFLOAD_LEDGER"); v != "" {
		c.Ledger = v
	}
	if v := os.Getenv("OFFLOAD_FAILURE_LOG"); v != "" {
		c.FailureLog = v
	}
	if v := os.Getenv("OFFLOAD_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse OFFLOAD_BATCH_SIZE: %w", err)
		}
		c.BatchSize = n
	}
	if v := os.Getenv("OFFLOAD_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse OFFLOAD_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("OFFLOAD_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("OFFLOAD_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse OFFLOAD_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Source.IndexURL == "" {
		return errors.New("config: source index_url is required")
	}

	targets := 0
	for _, t := range []string{c.Archive.Zip, c.Archive.Dir, c.Archive.Bucket} {
		if t != "" {
			targets++
		}
	}
	if targets == 0 {
		return errors.New("config: an archive target (zip, dir, or bucket) is required")
	}
	if targets > 1 {
		return errors.New("config: only one archive target may be set")
	}

	if c.Ledger == "" {
		return errors.New("config: ledger path is required")
	}
	if c.BatchSize <= 0 {
		return errors.New("config: batch_size must be positive")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.Retry.Attempts <= 0 {
		return errors.New("config: retry attempts must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Source.IndexURL != "" {
		c.Source.IndexURL = override.Source.IndexURL
	}
	if override.Archive.Zip != "" {
		c.Archive.Zip = override.Archive.Zip
	}
	if override.Archive.Dir != "" {
		c.Archive.Dir = override.Archive.Dir
	}
	if override.Archive.Bucket != "" {
		c.Archive.Bucket = override.Archive.Bucket
	}
	if override.Ledger != "" {
		c.Ledger = override.Ledger
	}
	if override.FailureLog != "" {
		c.FailureLog = override.FailureLog
	}
	if override.BatchSize != 0 {
		c.BatchSize = override.BatchSize
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	return c
}
