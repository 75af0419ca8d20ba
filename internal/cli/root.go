// Package cli implements the command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/wikiroll/internal/config"
	"github.com/aidanlsb/wikiroll/internal/logging"
	"github.com/aidanlsb/wikiroll/internal/ui"
)

var (
	// Global flags
	configPath    string
	statePathFlag string
	journalFlag   string
	logLevelFlag  = levelFlag("ERROR")
	logJSON       bool

	// Resolved values
	resolvedConfigPath string
	resolvedStatePath  string
	cfg                *config.Config
	logger             *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wroll",
	Short: "wroll - roll Confluence journal pages over to the next period",
	Long: `wroll keeps running journal pages on Confluence up to date.

It copies the current period's page into an archive, carries the newest
heading group forward as a template for the next period, and retitles the
page. It also validates Atlassian Document Format values against a JSON
schema and applies the same rollover to local storage or markdown files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}
		// config init must work before a config file exists
		if cmd.Parent() != nil && (cmd.Parent().Name() == "completion" || cmd.Parent().Name() == "config" && cmd.Name() == "init") {
			return nil
		}

		var err error
		cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		resolvedStatePath = config.ResolveStatePath(statePathFlag, resolvedConfigPath, cfg)

		level := string(logLevelFlag)
		if !cmd.Flags().Changed("log-level") && strings.TrimSpace(cfg.LogLevel) != "" {
			level = cfg.LogLevel
		}
		lvl, err := logging.ParseLevel(level)
		if err != nil {
			return err
		}
		logger = logging.New(os.Stderr, lvl, logJSON)
		slog.SetDefault(logger)

		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, which is nil when RunE is
// called directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (.toml or .yaml)")
	rootCmd.PersistentFlags().StringVar(&statePathFlag, "state", "", "Path to state file (overrides state_file in config)")
	rootCmd.PersistentFlags().StringVar(&journalFlag, "journal", "", "Path to the snapshot journal (overrides journal_file in config)")
	rootCmd.PersistentFlags().Var(&logLevelFlag, "log-level", "Log level: NOTSET, DEBUG, INFO, WARN, ERROR, CRITICAL")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs to stderr as JSON")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
}

// levelFlag is a --log-level value, checked when the flag is parsed.
type levelFlag string

var _ pflag.Value = (*levelFlag)(nil)

func (l *levelFlag) String() string { return string(*l) }
func (l *levelFlag) Type() string   { return "level" }

func (l *levelFlag) Set(s string) error {
	if _, err := logging.ParseLevel(s); err != nil {
		return err
	}
	*l = levelFlag(strings.ToUpper(strings.TrimSpace(s)))
	return nil
}

// getConfig returns the loaded config, or an empty one when no command
// has loaded it yet.
func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

// getLogger returns the process logger configured by the root command.
func getLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// getStatePath returns the resolved global state path.
func getStatePath() string {
	if resolvedStatePath == "" {
		return config.ResolveStatePath(statePathFlag, configPath, getConfig())
	}
	return resolvedStatePath
}

// getJournalPath returns the snapshot journal path.
func getJournalPath() string {
	path := resolvedConfigPath
	if path == "" {
		path = configPath
	}
	return config.ResolveJournalPath(journalFlag, path, getConfig())
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := config.ResolveConfigPath(configPath)

	var loadedCfg *config.Config
	var err error
	if strings.TrimSpace(configPath) != "" {
		loadedCfg, err = config.LoadFrom(configPath)
	} else {
		loadedCfg, err = config.Load()
	}
	if err != nil {
		return nil, "", err
	}
	if loadedCfg == nil {
		loadedCfg = &config.Config{}
	}

	return loadedCfg, resolvedPath, nil
}
