package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const templateHeader = `# skilltrail configuration.
# Environment variables with the SKILLTRAIL_ prefix override these values,
# e.g. SKILLTRAIL_ANTHROPIC_API_KEY.

`

// tomlView mirrors Config with durations rendered as strings ("800ms"),
// which both the TOML encoder and the loader understand.
type tomlView struct {
	DataDir   string          `toml:"data_dir"`
	Turso     TursoConfig     `toml:"turso"`
	Anthropic AnthropicConfig `toml:"anthropic"`
	Sync      tomlSyncView    `toml:"sync"`
	Dashboard DashboardConfig `toml:"dashboard"`
}

type tomlSyncView struct {
	DebounceInterval string `toml:"debounce_interval"`
	PollInterval     string `toml:"poll_interval"`
}

func viewOf(cfg *Config) tomlView {
	return tomlView{
		DataDir:   cfg.DataDir,
		Turso:     cfg.Turso,
		Anthropic: cfg.Anthropic,
		Sync: tomlSyncView{
			DebounceInterval: cfg.Sync.DebounceInterval.String(),
			PollInterval:     cfg.Sync.PollInterval.String(),
		},
		Dashboard: cfg.Dashboard,
	}
}

// WriteTemplate writes a commented default config file into dir and returns
// its path. Refuses to overwrite an existing file.
func WriteTemplate(dir string) (string, error) {
	if dir == "" {
		dir = DefaultDataDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	path := Path(dir)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists at %s", path)
	}

	cfg := Config{
		DataDir: dir,
		Anthropic: AnthropicConfig{
			Model: "claude-3-5-haiku-latest",
		},
		Sync: SyncConfig{
			DebounceInterval: 800 * time.Millisecond,
			PollInterval:     10 * time.Second,
		},
		Dashboard: DashboardConfig{
			Addr: "localhost:8765",
		},
	}

	var buf bytes.Buffer
	buf.WriteString(templateHeader)
	if err := toml.NewEncoder(&buf).Encode(viewOf(&cfg)); err != nil {
		return "", fmt.Errorf("failed to encode config template: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("failed to write config template: %w", err)
	}
	return path, nil
}

// Show renders the resolved configuration as TOML with the secrets masked,
// for `config show`.
func Show(cfg *Config) (string, error) {
	masked := *cfg
	if masked.Turso.AuthToken != "" {
		masked.Turso.AuthToken = "********"
	}
	if masked.Anthropic.APIKey != "" {
		masked.Anthropic.APIKey = "********"
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(viewOf(&masked)); err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return buf.String(), nil
}
