package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Search  SearchConfig  `mapstructure:"search"`
	Cache   CacheConfig   `mapstructure:"cache"`
	History HistoryConfig `mapstructure:"history"`
	Images  ImagesConfig  `mapstructure:"images"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BackendConfig describes the remote search service
type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Path    string        `mapstructure:"path"`  // Search endpoint path, e.g. "/search"
	Token   string        `mapstructure:"token"` // Optional bearer token
	Timeout time.Duration `mapstructure:"timeout"`
}

// SearchConfig holds query behaviour
type SearchConfig struct {
	PageSize int           `mapstructure:"page_size"`
	Debounce time.Duration `mapstructure:"debounce"` // Delay between last keystroke and submit
}

// CacheConfig bounds the per-session result cache
type CacheConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"` // 0 = keep for the whole session
}

// HistoryConfig controls the query history database
type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	File       string `mapstructure:"file"`
	MaxEntries int    `mapstructure:"max_entries"`
}

// ImagesConfig lists hosts result thumbnails may be loaded from
type ImagesConfig struct {
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Path:    "/search",
			Timeout: 15 * time.Second,
		},
		Search: SearchConfig{
			PageSize: 20,
			Debounce: 150 * time.Millisecond,
		},
		Cache: CacheConfig{
			Capacity: 64,
		},
		History: HistoryConfig{
			Enabled:    true,
			File:       filepath.Join(defaultDataPath(), "history.db"),
			MaxEntries: 200,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "scout.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the directory for logs and history on the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "scout")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "scout")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "scout")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "scout")
	}
}

// LoadConfig loads configuration from file and environment. An explicit
// path must exist; otherwise config.yaml is looked up in the default
// config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// newViper returns a viper instance seeded with defaults and SCOUT_* env
// overrides (SCOUT_BACKEND_URL, SCOUT_CACHE_CAPACITY, ...)
func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault("backend.url", def.Backend.URL)
	v.SetDefault("backend.path", def.Backend.Path)
	v.SetDefault("backend.token", def.Backend.Token)
	v.SetDefault("backend.timeout", def.Backend.Timeout)
	v.SetDefault("search.page_size", def.Search.PageSize)
	v.SetDefault("search.debounce", def.Search.Debounce)
	v.SetDefault("cache.capacity", def.Cache.Capacity)
	v.SetDefault("cache.ttl", def.Cache.TTL)
	v.SetDefault("history.enabled", def.History.Enabled)
	v.SetDefault("history.file", def.History.File)
	v.SetDefault("history.max_entries", def.History.MaxEntries)
	v.SetDefault("images.allowed_hosts", def.Images.AllowedHosts)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Validate checks the settings needed to talk to a backend
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.url must be an http(s) URL, got %q", c.Backend.URL)
	}
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("search.page_size must be positive")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive")
	}
	if c.Cache.TTL < 0 || c.Search.Debounce < 0 || c.Backend.Timeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// SaveConfig writes cfg to config.yaml in the default config directory
func SaveConfig(cfg *Config) (string, error) {
	configPath := defaultConfigPath()

	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("backend.url", cfg.Backend.URL)
	v.Set("backend.path", cfg.Backend.Path)
	v.Set("backend.token", cfg.Backend.Token)
	v.Set("backend.timeout", cfg.Backend.Timeout.String())
	v.Set("search.page_size", cfg.Search.PageSize)
	v.Set("search.debounce", cfg.Search.Debounce.String())
	v.Set("cache.capacity", cfg.Cache.Capacity)
	v.Set("cache.ttl", cfg.Cache.TTL.String())
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.file", cfg.History.File)
	v.Set("history.max_entries", cfg.History.MaxEntries)
	v.Set("images.allowed_hosts", cfg.Images.AllowedHosts)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configFile, nil
}
