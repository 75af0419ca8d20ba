// Package config handles wroll configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the confluence section.
const (
	EnvURL   = "WROLL_URL"
	EnvEmail = "WROLL_EMAIL"
	EnvToken = "WROLL_TOKEN"
)

// ErrNoCredentials is returned by Confluence.Validate when the site or
// credentials are missing.
var ErrNoCredentials = errors.New("confluence url, email and token are required")

// Config represents the wroll configuration file.
type Config struct {
	Confluence ConfluenceConfig `toml:"confluence" yaml:"confluence" json:"confluence"`

	// LogLevel is one of NOTSET, DEBUG, INFO, WARN, ERROR, CRITICAL.
	LogLevel string `toml:"log_level" yaml:"log_level" json:"log_level"`

	// StateFile and JournalFile are resolved relative to the config file
	// when not absolute.
	StateFile   string `toml:"state_file" yaml:"state_file" json:"state_file"`
	JournalFile string `toml:"journal_file" yaml:"journal_file" json:"journal_file"`

	// PageLimit is the page size used for listing requests.
	PageLimit int `toml:"page_limit" yaml:"page_limit" json:"page_limit"`

	Retry    RetryConfig    `toml:"retry" yaml:"retry" json:"retry"`
	Rollover RolloverConfig `toml:"rollover" yaml:"rollover" json:"rollover"`
	UI       UIConfig       `toml:"ui" yaml:"ui" json:"ui"`
}

// ConfluenceConfig holds the site and credentials.
type ConfluenceConfig struct {
	URL   string `toml:"url" yaml:"url" json:"url"`
	Email string `toml:"email" yaml:"email" json:"email"`
	Token string `toml:"token" yaml:"token" json:"-"`
}

// Validate reports ErrNoCredentials when anything is missing.
func (c ConfluenceConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(c.Token) == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (missing %s)", ErrNoCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// RetryConfig controls request retries.
type RetryConfig struct {
	Attempts uint `toml:"attempts" yaml:"attempts" json:"attempts"`

	// Delay is a Go duration string such as "500ms" or "2s".
	Delay string `toml:"delay" yaml:"delay" json:"delay"`
}

// DelayDuration parses Delay; an empty value is zero.
func (r RetryConfig) DelayDuration() (time.Duration, error) {
	if strings.TrimSpace(r.Delay) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(r.Delay))
	if err != nil {
		return 0, fmt.Errorf("retry.delay: %w", err)
	}
	return d, nil
}

// RolloverConfig holds daily-update defaults, overridable by flags.
type RolloverConfig struct {
	Space       string `toml:"space" yaml:"space" json:"space"`
	From        string `toml:"from" yaml:"from" json:"from"`
	Into        string `toml:"into" yaml:"into" json:"into"`
	TitleFormat string `toml:"title_format" yaml:"title_format" json:"title_format"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0" to "255") or a hex color ("#RRGGBB").
	Accent string `toml:"accent" yaml:"accent" json:"accent"`

	// CodeTheme sets the Glamour/Chroma theme for rendered code blocks.
	CodeTheme string `toml:"code_theme" yaml:"code_theme" json:"code_theme"`
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := &Config{}
		cfg.ApplyEnv(os.Getenv)
		return cfg, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path. Files ending in
// .yaml or .yml are read as YAML, everything else as TOML. Environment
// overrides are applied afterwards.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if isYAML(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	config.ApplyEnv(os.Getenv)
	return &config, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// ApplyEnv overrides the confluence section from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvURL)); v != "" {
		c.Confluence.URL = v
	}
	if v := strings.TrimSpace(getenv(EnvEmail)); v != "" {
		c.Confluence.Email = v
	}
	if v := getenv(EnvToken); v != "" {
		c.Confluence.Token = v
	}
}

// DefaultPath returns the default config file path.
// Checks ~/.config/wroll/config.toml first (XDG style), then config.yaml
// in the same directory, then falls back to the OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".config", "wroll")
		for _, name := range []string{"config.toml", "config.yaml"} {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "wroll", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// ResolveJournalPath resolves the snapshot journal path: the explicit
// path, then journal_file from the config (relative to the config dir),
// then journal.db next to the config file.
func ResolveJournalPath(explicit, configPath string, cfg *Config) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	var fromConfig string
	if cfg != nil {
		fromConfig = cfg.JournalFile
	}
	return resolveSibling(fromConfig, configPath, "journal.db")
}

func resolveSibling(fromConfig, configPath, fallback string) string {
	configDir := filepath.Dir(ResolveConfigPath(configPath))
	if p := strings.TrimSpace(fromConfig); p != "" {
		if isAbsolutePath(p) {
			return filepath.Clean(filepath.FromSlash(p))
		}
		return filepath.Join(configDir, filepath.FromSlash(p))
	}
	return filepath.Join(configDir, fallback)
}

func isAbsolutePath(p string) bool {
	if filepath.IsAbs(p) {
		return true
	}
	// Treat slash-rooted config values as absolute on every OS.
	return strings.HasPrefix(filepath.ToSlash(strings.TrimSpace(p)), "/")
}
