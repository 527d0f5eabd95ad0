package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults applied when the environment leaves a setting unset.
const (
	DefaultFetchTimeout    = 15 * time.Second
	DefaultHistoryTTL      = 7 * 24 * time.Hour
	DefaultHistoryCleanup  = 6 * time.Hour
	DefaultShutdownTimeout = 10 * time.Second
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName    string `mapstructure:"app_name"`
	Env        string `mapstructure:"app_env"`
	LogLevel   string `mapstructure:"log_level"`
	ListenAddr string `mapstructure:"listen_addr"`

	SourcesFile    string `mapstructure:"sources_file"`
	SourceID       string `mapstructure:"source_id"`
	PublishersFile string `mapstructure:"publishers_file"`

	DefaultUsername string `mapstructure:"default_username"`
	DefaultTarget   string `mapstructure:"default_target"`

	FetchTimeoutSeconds int64         `mapstructure:"fetch_timeout_seconds"`
	FetchTimeout        time.Duration `mapstructure:"-"`
	MaxPages            int           `mapstructure:"max_pages"`

	StorageType           string        `mapstructure:"storage_type"`
	BBoltPath             string        `mapstructure:"bbolt_path"`
	HistoryTTLSeconds     int64         `mapstructure:"history_ttl_seconds"`
	HistoryCleanupSeconds int64         `mapstructure:"history_cleanup_interval_seconds"`
	HistoryLimit          int           `mapstructure:"history_limit"`
	HistoryTTL            time.Duration `mapstructure:"-"`
	HistoryCleanup        time.Duration `mapstructure:"-"`

	ShutdownTimeoutSeconds int64         `mapstructure:"shutdown_timeout_seconds"`
	ShutdownTimeout        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "randfav")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("sources_file", "")
	v.SetDefault("source_id", "hn")
	v.SetDefault("publishers_file", "")
	v.SetDefault("default_username", "arnok")
	v.SetDefault("default_target", "comments")
	v.SetDefault("fetch_timeout_seconds", int64(DefaultFetchTimeout/time.Second))
	v.SetDefault("max_pages", 1<<16)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/history.db")
	v.SetDefault("history_ttl_seconds", int64(DefaultHistoryTTL/time.Second))
	v.SetDefault("history_cleanup_interval_seconds", int64(DefaultHistoryCleanup/time.Second))
	v.SetDefault("history_limit", 20)
	v.SetDefault("shutdown_timeout_seconds", int64(DefaultShutdownTimeout/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.SourceID = strings.TrimSpace(c.SourceID)
	if c.SourceID == "" {
		return fmt.Errorf("invalid source_id (must not be empty)")
	}

	c.DefaultTarget = strings.ToLower(strings.TrimSpace(c.DefaultTarget))
	switch c.DefaultTarget {
	case "article", "comments":
	default:
		return fmt.Errorf("invalid default_target %q (expected article or comments)", c.DefaultTarget)
	}

	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	c.FetchTimeout = time.Duration(c.FetchTimeoutSeconds) * time.Second

	if c.MaxPages <= 1 {
		return fmt.Errorf("invalid max_pages (must be greater than 1)")
	}

	if c.HistoryTTLSeconds <= 0 {
		return fmt.Errorf("invalid history_ttl_seconds (must be positive seconds)")
	}
	if c.HistoryCleanupSeconds <= 0 {
		return fmt.Errorf("invalid history_cleanup_interval_seconds (must be positive seconds)")
	}
	c.HistoryTTL = time.Duration(c.HistoryTTLSeconds) * time.Second
	c.HistoryCleanup = time.Duration(c.HistoryCleanupSeconds) * time.Second
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("invalid history_limit (must be positive)")
	}

	if c.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid shutdown_timeout_seconds (must be positive seconds)")
	}
	c.ShutdownTimeout = time.Duration(c.ShutdownTimeoutSeconds) * time.Second

	return nil
}
