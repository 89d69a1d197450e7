package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolateEnv runs the test in an empty directory with the server's
// environment variables cleared.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"PORT", "SERVERLESS", "VERCEL", "MDOWNLOADER_CONFIG",
		"MDOWNLOADER_METADATA_BACKEND", "MDOWNLOADER_EXTRACT_TIMEOUT",
		"MDOWNLOADER_RATE_LIMIT", "MDOWNLOADER_RATE_BURST", "REDIS_ADDR",
		"REDIS_DB", "MDOWNLOADER_DEBUG", "MDOWNLOADER_HISTORY_DB",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Addr != ":5000" {
		t.Errorf("Addr = %q, want :5000", cfg.Addr)
	}
	if cfg.CookieFile != "cookies.txt" {
		t.Errorf("CookieFile = %q", cfg.CookieFile)
	}
	if cfg.ThumbnailTimeout.Duration != 10*time.Second {
		t.Errorf("ThumbnailTimeout = %v", cfg.ThumbnailTimeout)
	}
	if cfg.ExtractTimeout.Duration != 0 {
		t.Errorf("ExtractTimeout = %v, want none", cfg.ExtractTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadConfigNoFile(t *testing.T) {
	isolateEnv(t)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Addr != ":5000" || cfg.Serverless {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	dir := isolateEnv(t)
	if _, err := LoadConfig(filepath.Join(dir, "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolateEnv(t)
	content := `
addr = ":8080"
metadata_backend = "youtube"
extract_timeout = "90s"
progress_ttl = "30m"
rate_limit = 5.0
rate_burst = 10
history_db = "data/history.db"
`
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.MetadataBackend != "youtube" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ExtractTimeout.Duration != 90*time.Second || cfg.ProgressTTL.Duration != 30*time.Minute {
		t.Errorf("durations = %v / %v", cfg.ExtractTimeout, cfg.ProgressTTL)
	}
	if cfg.HistoryDB != "data/history.db" || cfg.RateLimit != 5 || cfg.RateBurst != 10 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.CookieFile != "cookies.txt" {
		t.Errorf("unset keys should keep defaults, CookieFile = %q", cfg.CookieFile)
	}
}

func TestLoadConfigDefaultFileAndEnvOverride(t *testing.T) {
	dir := isolateEnv(t)
	if err := os.WriteFile(filepath.Join(dir, defaultConfigFile), []byte(`addr = ":7000"`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9999")
	t.Setenv("VERCEL", "1")
	t.Setenv("MDOWNLOADER_EXTRACT_TIMEOUT", "2m")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q, env should win over file", cfg.Addr)
	}
	if !cfg.Serverless {
		t.Error("VERCEL should enable serverless mode")
	}
	if cfg.ExtractTimeout.Duration != 2*time.Minute {
		t.Errorf("ExtractTimeout = %v", cfg.ExtractTimeout)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := isolateEnv(t)
	os.Unsetenv("SERVERLESS")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVERLESS=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SERVERLESS") })

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if !cfg.Serverless {
		t.Error(".env should enable serverless mode")
	}
}

func TestLoadConfigBadEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("MDOWNLOADER_EXTRACT_TIMEOUT", "soon")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for bad duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"bad backend", func(c *Config) { c.MetadataBackend = "scraper" }, true},
		{"empty addr", func(c *Config) { c.Addr = "" }, true},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, true},
		{"rate without burst", func(c *Config) { c.RateBurst = 0 }, true},
		{"rate limiting disabled", func(c *Config) { c.RateLimit = 0; c.RateBurst = 0 }, false},
		{"zero ttl", func(c *Config) { c.ProgressTTL.Duration = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
