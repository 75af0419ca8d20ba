package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/wikiroll/internal/atomicfile"
)

// SaveTo writes the config to path atomically, as YAML or TOML by
// extension. Credentials taken from the environment are written too, so
// callers that loaded with overrides should clear them first.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	var buf bytes.Buffer
	if isYAML(path) {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	} else if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	// the file holds an API token
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

const defaultConfig = `# wroll configuration

[confluence]
# url = "https://example.atlassian.net"
# email = "me@example.com"
# token = "..."            # or set WROLL_TOKEN

# log_level = "ERROR"      # NOTSET, DEBUG, INFO, WARN, ERROR, CRITICAL
# state_file = "state.toml"
# journal_file = "journal.db"
# page_limit = 25

[retry]
# attempts = 3
# delay = "1s"

[rollover]
# space = "Team"
# from = "Journal/%Y/week %W"
# into = "Journal/%Y"
# title_format = "week %W"

# [ui]
# accent = "39"
# code_theme = "monokai"
`

// CreateDefault writes a commented config file at path unless one exists,
// and returns the path.
func CreateDefault(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := atomicfile.WriteFile(path, []byte(defaultConfig), 0o600); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}
