// Package config loads application configuration from a TOML file and
// SKILLTRAIL_* environment variables, in that order of increasing
// precedence. A missing config file is fine; every setting has a default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/skilltrail/skilltrail/internal/model"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// SKILLTRAIL_ANTHROPIC_API_KEY or SKILLTRAIL_TURSO_URL.
const EnvPrefix = "SKILLTRAIL"

// Config is the resolved application configuration.
type Config struct {
	// DataDir holds the local database, session file, and daemon log.
	DataDir string `mapstructure:"data_dir" toml:"data_dir"`

	Turso     TursoConfig     `mapstructure:"turso" toml:"turso"`
	Anthropic AnthropicConfig `mapstructure:"anthropic" toml:"anthropic"`
	Sync      SyncConfig      `mapstructure:"sync" toml:"sync"`
	Dashboard DashboardConfig `mapstructure:"dashboard" toml:"dashboard"`
}

// TursoConfig configures the cloud profile store. An empty URL disables
// cloud sync entirely.
type TursoConfig struct {
	URL       string `mapstructure:"url" toml:"url"`
	AuthToken string `mapstructure:"auth_token" toml:"auth_token"`
}

// AnthropicConfig configures roadmap generation and challenge review.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key" toml:"api_key"`
	Model  string `mapstructure:"model" toml:"model"`
}

// SyncConfig configures the scheduler.
type SyncConfig struct {
	DebounceInterval time.Duration `mapstructure:"debounce_interval" toml:"debounce_interval"`
	PollInterval     time.Duration `mapstructure:"poll_interval" toml:"poll_interval"`
}

// DashboardConfig configures the optional live dashboard server.
type DashboardConfig struct {
	Addr string `mapstructure:"addr" toml:"addr"`
}

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "skilltrail")
	}
	return ".skilltrail"
}

// Path returns the config file location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, "config.toml")
}

// DBPath returns the local database location for the configured data dir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "skilltrail.db")
}

// LogPath returns the daemon log location for the configured data dir.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "daemon.log")
}

// PIDPath returns the daemon pid file location for the configured data dir.
func (c *Config) PIDPath() string {
	return filepath.Join(c.DataDir, "daemon.pid")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("turso.url", "")
	v.SetDefault("turso.auth_token", "")
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.model", model.DefaultAssistantModel)
	v.SetDefault("sync.debounce_interval", 800*time.Millisecond)
	v.SetDefault("sync.poll_interval", 10*time.Second)
	v.SetDefault("dashboard.addr", "localhost:8765")
}

// Loader reads configuration and can watch the file for changes.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader rooted at dir. If dir is empty the default
// data directory is used. The SKILLTRAIL_DATA_DIR environment variable
// overrides either.
func NewLoader(dir string) *Loader {
	if env := os.Getenv(EnvPrefix + "_DATA_DIR"); env != "" {
		dir = env
	}
	if dir == "" {
		dir = DefaultDataDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	v.SetDefault("data_dir", dir)

	return &Loader{v: v}
}

// Load reads the config file (if present) and resolves the full
// configuration.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Sync.DebounceInterval <= 0 {
		cfg.Sync.DebounceInterval = 800 * time.Millisecond
	}
	if cfg.Sync.PollInterval <= 0 {
		cfg.Sync.PollInterval = 10 * time.Second
	}

	// A bare key file in the data dir works when no config or env var is
	// set, so `echo $KEY > anthropic_key.txt` is enough to enable AI.
	if cfg.Anthropic.APIKey == "" {
		if data, err := os.ReadFile(filepath.Join(cfg.DataDir, "anthropic_key.txt")); err == nil {
			cfg.Anthropic.APIKey = strings.TrimSpace(string(data))
		}
	}
	return &cfg, nil
}

// Watch re-resolves the configuration whenever the config file changes on
// disk and hands the result to onChange. Load must have been called first.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := l.Load()
		if err != nil {
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}
