package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "scout.yaml", `
backend:
  url: https://search.example.com
  path: /api/v1/search
  timeout: 5s
search:
  page_size: 50
  debounce: 300ms
cache:
  capacity: 8
  ttl: 2m
images:
  allowed_hosts:
    - images.example.com
    - "*.cdn.example.com"
logging:
  level: debug
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Backend.URL != "https://search.example.com" || cfg.Backend.Path != "/api/v1/search" {
		t.Errorf("Backend = %+v", cfg.Backend)
	}
	if cfg.Backend.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Backend.Timeout)
	}
	if cfg.Search.PageSize != 50 || cfg.Search.Debounce != 300*time.Millisecond {
		t.Errorf("Search = %+v", cfg.Search)
	}
	if cfg.Cache.Capacity != 8 || cfg.Cache.TTL != 2*time.Minute {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if len(cfg.Images.AllowedHosts) != 2 {
		t.Errorf("AllowedHosts = %v", cfg.Images.AllowedHosts)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
	// Unset keys keep their defaults
	if !cfg.History.Enabled || cfg.History.MaxEntries != 200 {
		t.Errorf("History = %+v", cfg.History)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "scout.yaml", "backend:\n  url: https://a.example.com\n")
	t.Setenv("SCOUT_BACKEND_URL", "https://b.example.com")
	t.Setenv("SCOUT_CACHE_CAPACITY", "3")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Backend.URL != "https://b.example.com" {
		t.Errorf("URL = %q, want env override", cfg.Backend.URL)
	}
	if cfg.Cache.Capacity != 3 {
		t.Errorf("Capacity = %d, want 3", cfg.Cache.Capacity)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing url", func(c *Config) { c.Backend.URL = "" }, true},
		{"bad scheme", func(c *Config) { c.Backend.URL = "ftp://x" }, true},
		{"no host", func(c *Config) { c.Backend.URL = "http://" }, true},
		{"zero page size", func(c *Config) { c.Search.PageSize = 0 }, true},
		{"zero capacity", func(c *Config) { c.Cache.Capacity = 0 }, true},
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Backend.URL = "http://localhost:8080"
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("config directory comes from APPDATA on windows")
	}
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Backend.URL = "https://search.example.com"
	cfg.Cache.TTL = time.Minute
	cfg.Images.AllowedHosts = []string{"images.example.com"}

	path, err := SaveConfig(cfg)
	if err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Backend.URL != cfg.Backend.URL || loaded.Cache.TTL != time.Minute {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.Images.AllowedHosts) != 1 || loaded.Images.AllowedHosts[0] != "images.example.com" {
		t.Errorf("AllowedHosts = %v", loaded.Images.AllowedHosts)
	}
}
