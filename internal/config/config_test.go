package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.BatchSize != 100 {
		t.Errorf("expected default batch size 100, got %d", cfg.BatchSize)
	}
	if cfg.Workers != 10 {
		t.Errorf("expected default workers 10, got %d", cfg.Workers)
	}
	if cfg.Retry.Attempts != 3 {
		t.Errorf("expected default retry attempts 3, got %d", cfg.Retry.Attempts)
	}
	if cfg.Ledger != "downloaded_files.txt" {
		t.Errorf("expected default ledger downloaded_files.txt, got %q", cfg.Ledger)
	}
	if cfg.FailureLog != "failed_deletions.log" {
		t.Errorf("expected default failure log failed_deletions.log, got %q", cfg.FailureLog)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
source:
  index_url: https://media.example.com/items.json
archive:
  zip: /backups/media.zip
batch_size: 50
workers: 4
progress: true
retry:
  attempts: 5
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Source.IndexURL != "https://media.example.com/items.json" {
		t.Errorf("unexpected index_url: %q", cfg.Source.IndexURL)
	}
	if cfg.Archive.Zip != "/backups/media.zip" {
		t.Errorf("unexpected archive zip: %q", cfg.Archive.Zip)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("expected batch size 50, got %d", cfg.BatchSize)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected workers 4, got %d", cfg.Workers)
	}
	if !cfg.Progress {
		t.Error("expected progress true")
	}
	if cfg.Retry.Attempts != 5 {
		t.Errorf("expected retry attempts 5, got %d", cfg.Retry.Attempts)
	}
	// Unset fields keep defaults.
	if cfg.Ledger != "downloaded_files.txt" {
		t.Errorf("expected default ledger, got %q", cfg.Ledger)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OFFLOAD_INDEX_URL", "https://media.example.com/items.json")
	t.Setenv("OFFLOAD_ARCHIVE_DIR", "/backups/media")
	t.Setenv("OFFLOAD_BATCH_SIZE", "25")
	t.Setenv("OFFLOAD_WORKERS", "8")
	t.Setenv("OFFLOAD_RETRY_ATTEMPTS", "4")
	t.Setenv("OFFLOAD_PROGRESS", "1")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Source.IndexURL != "https://media.example.com/items.json" {
		t.Errorf("unexpected index_url: %q", cfg.Source.IndexURL)
	}
	if cfg.Archive.Dir != "/backups/media" {
		t.Errorf("unexpected archive dir: %q", cfg.Archive.Dir)
	}
	if cfg.BatchSize != 25 || cfg.Workers != 8 || cfg.Retry.Attempts != 4 {
		t.Errorf("unexpected numeric config: %+v", cfg)
	}
	if !cfg.Progress {
		t.Error("expected progress true")
	}
}

func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("OFFLOAD_BATCH_SIZE", "not-a-number")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Error("expected error for invalid OFFLOAD_BATCH_SIZE")
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Source.IndexURL = "https://media.example.com/items.json"
	valid.Archive.Zip = "media.zip"
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing index_url", func(c *Config) { c.Source.IndexURL = "" }},
		{"missing archive target", func(c *Config) { c.Archive.Zip = "" }},
		{"two archive targets", func(c *Config) { c.Archive.Dir = "/tmp/media" }},
		{"missing ledger", func(c *Config) { c.Ledger = "" }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"zero attempts", func(c *Config) { c.Retry.Attempts = 0 }},
	}

	for _, tt := range tests {
		cfg := valid
		tt.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	base.Source.IndexURL = "https://a.example.com/items.json"

	merged := base.Merge(Config{
		Workers: 2,
		Archive: ArchiveConfig{Bucket: "s3://backups"},
	})

	if merged.Workers != 2 {
		t.Errorf("expected workers 2, got %d", merged.Workers)
	}
	if merged.Archive.Bucket != "s3://backups" {
		t.Errorf("expected bucket override, got %q", merged.Archive.Bucket)
	}
	// Untouched values survive.
	if merged.Source.IndexURL != "https://a.example.com/items.json" {
		t.Errorf("index_url lost in merge: %q", merged.Source.IndexURL)
	}
	if merged.BatchSize != 100 {
		t.Errorf("batch size lost in merge: %d", merged.BatchSize)
	}
}
