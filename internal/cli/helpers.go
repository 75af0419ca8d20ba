package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aidanlsb/wikiroll/internal/atomicfile"
	"github.com/aidanlsb/wikiroll/internal/config"
	"github.com/aidanlsb/wikiroll/internal/confluence"
	"github.com/aidanlsb/wikiroll/internal/journal"
)

// newConfluenceClient builds a client from the confluence and retry
// sections of the config.
func newConfluenceClient() (*confluence.Client, error) {
	c := getConfig()
	if err := c.Confluence.Validate(); err != nil {
		return nil, err
	}
	delay, err := c.Retry.DelayDuration()
	if err != nil {
		return nil, err
	}
	return confluence.New(confluence.Config{
		BaseURL:   c.Confluence.URL,
		Email:     c.Confluence.Email,
		Token:     c.Confluence.Token,
		Attempts:  c.Retry.Attempts,
		Delay:     delay,
		PageLimit: c.PageLimit,
		Logger:    getLogger(),
	})
}

func openJournal() (*journal.Journal, error) {
	j, err := journal.Open(getJournalPath())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeOutput writes data atomically to path, or to stdout when path is
// empty or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomicfile.WriteFile(path, data, 0)
}

// saveRolloverMark records the last daily update in state.toml. Failure
// is reported as a warning since the page update already happened.
func saveRolloverMark(mark config.RolloverMark) *Warning {
	path := getStatePath()
	state, err := config.LoadState(path)
	if err == nil {
		if mark.At.IsZero() {
			mark.At = time.Now().UTC()
		}
		state.LastRollover = &mark
		err = config.SaveState(path, state)
	}
	if err != nil {
		getLogger().Warn("state not saved", "path", path, "error", err)
		return &Warning{Code: WarnStateNotSaved, Message: err.Error()}
	}
	return nil
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
