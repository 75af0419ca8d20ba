package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/wikiroll/internal/config"
	"github.com/aidanlsb/wikiroll/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize the wroll config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

type configView struct {
	ConfigPath  string                `json:"config_path"`
	StatePath   string                `json:"state_path"`
	JournalPath string                `json:"journal_path"`
	URL         string                `json:"url,omitempty"`
	Email       string                `json:"email,omitempty"`
	Token       string                `json:"token,omitempty"`
	LogLevel    string                `json:"log_level,omitempty"`
	PageLimit   int                   `json:"page_limit,omitempty"`
	Retry       config.RetryConfig    `json:"retry"`
	Rollover    config.RolloverConfig `json:"rollover"`
	LastRun     *config.RolloverMark  `json:"last_rollover,omitempty"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	c := getConfig()
	view := configView{
		ConfigPath:  config.ResolveConfigPath(configPath),
		StatePath:   getStatePath(),
		JournalPath: getJournalPath(),
		URL:         c.Confluence.URL,
		Email:       c.Confluence.Email,
		Token:       maskToken(c.Confluence.Token),
		LogLevel:    c.LogLevel,
		PageLimit:   c.PageLimit,
		Retry:       c.Retry,
		Rollover:    c.Rollover,
	}
	if state, err := config.LoadState(view.StatePath); err == nil {
		view.LastRun = state.LastRollover
	}

	if isJSONOutput() {
		outputSuccess(view, nil)
		return nil
	}

	fmt.Printf("config:  %s\n", view.ConfigPath)
	fmt.Printf("state:   %s\n", view.StatePath)
	fmt.Printf("journal: %s\n", view.JournalPath)
	printSetting("confluence.url", view.URL)
	printSetting("confluence.email", view.Email)
	printSetting("confluence.token", view.Token)
	printSetting("log_level", view.LogLevel)
	printSetting("rollover.space", view.Rollover.Space)
	printSetting("rollover.from", view.Rollover.From)
	printSetting("rollover.into", view.Rollover.Into)
	printSetting("rollover.title_format", view.Rollover.TitleFormat)
	if err := c.Confluence.Validate(); err != nil {
		fmt.Println(ui.Warning(err.Error()))
	}
	if m := view.LastRun; m != nil {
		fmt.Printf("last rollover: %s -> %s %s\n", m.OldTitle, ui.Page(m.NewTitle, m.PageID), ui.Hint(m.At.Local().Format("2006-01-02 15:04")))
	}
	return nil
}

func printSetting(key, value string) {
	if strings.TrimSpace(value) != "" {
		fmt.Printf("%s: %s\n", key, value)
	}
}

func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented config file if missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		target := config.ResolveConfigPath(configPath)
		_, statErr := os.Stat(target)
		existed := statErr == nil
		if statErr != nil && !os.IsNotExist(statErr) {
			return handleError(ErrFileReadError, statErr, "")
		}

		created, err := config.CreateDefault(target)
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"config_path": created,
				"created":     !existed,
			}, nil)
			return nil
		}
		if existed {
			fmt.Printf("Config already exists: %s\n", created)
		} else {
			fmt.Println(ui.Successf("Created %s", created))
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
