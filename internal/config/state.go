package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/wikiroll/internal/atomicfile"
)

const (
	// StateVersion is the current state file schema version.
	StateVersion = 1
)

// State represents mutable machine-local runtime state.
type State struct {
	Version      int           `toml:"version" json:"version"`
	LastRollover *RolloverMark `toml:"last_rollover,omitempty" json:"last_rollover,omitempty"`
}

// RolloverMark records the most recent daily update.
type RolloverMark struct {
	Space    string    `toml:"space" json:"space"`
	PageID   string    `toml:"page_id" json:"page_id"`
	CopyID   string    `toml:"copy_id,omitempty" json:"copy_id,omitempty"`
	OldTitle string    `toml:"old_title" json:"old_title"`
	NewTitle string    `toml:"new_title" json:"new_title"`
	At       time.Time `toml:"at" json:"at"`
}

// ResolveConfigPath resolves the effective config path from an optional override.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

// ResolveStatePath resolves the state.toml path with precedence:
//  1. explicitStatePath flag
//  2. cfg.StateFile (relative to config file dir when not absolute)
//  3. sibling state.toml next to the config file
func ResolveStatePath(explicitStatePath, configPath string, cfg *Config) string {
	if strings.TrimSpace(explicitStatePath) != "" {
		return explicitStatePath
	}
	var fromConfig string
	if cfg != nil {
		fromConfig = cfg.StateFile
	}
	return resolveSibling(fromConfig, configPath, "state.toml")
}

// LoadState loads state.toml from a specific path.
// Returns a default state when the file does not exist.
func LoadState(path string) (*State, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("state path is required")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &State{Version: StateVersion}, nil
	}

	var state State
	if _, err := toml.DecodeFile(path, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	if state.Version == 0 {
		state.Version = StateVersion
	}
	return &state, nil
}

// SaveState writes state.toml atomically.
func SaveState(path string, state *State) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("state path is required")
	}
	if state == nil {
		state = &State{}
	}

	normalized := *state
	if normalized.Version == 0 {
		normalized.Version = StateVersion
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(normalized); err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write state %s: %w", path, err)
	}

	return nil
}
