package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/wikiroll/internal/atomicfile"
	"github.com/aidanlsb/wikiroll/internal/journal"
	"github.com/aidanlsb/wikiroll/internal/rollover"
	"github.com/aidanlsb/wikiroll/internal/slugs"
	"github.com/aidanlsb/wikiroll/internal/ui"
)

var (
	updatePageID    string
	updateTitle     string
	updateBackupDir string
	updateDryRun    bool
	updateNoJournal bool
)

type updatePageResult struct {
	DryRun     bool             `json:"dry_run"`
	PageID     string           `json:"page_id"`
	Title      string           `json:"title"`
	Version    int              `json:"version"`
	SnapshotID int64            `json:"snapshot_id,omitempty"`
	Backup     string           `json:"backup,omitempty"`
	Summary    rollover.Summary `json:"summary"`
	Body       string           `json:"body,omitempty"`
}

var updatePageCmd = &cobra.Command{
	Use:   "update-page",
	Short: "Roll one page over in place",
	Long: `Fetches a page by id, duplicates its newest heading group and saves it as a
new version, optionally with a new title. No archive copy is made; the old
body goes to the journal and, with --backup-dir, to a file.

Examples:
  wroll update-page --page-id 12345
  wroll update-page --page-id 12345 --title "week 07" --backup-dir ./backups`,
	Args: cobra.NoArgs,
	RunE: runUpdatePage,
}

func runUpdatePage(cmd *cobra.Command, args []string) error {
	if updatePageID == "" {
		return handleErrorMsg(ErrMissingArgument, "--page-id is required", "Use 'wroll find-page' to look up an id")
	}
	client, err := newConfluenceClient()
	if err != nil {
		return handleErr(err)
	}
	ctx := commandContext(cmd)
	log := getLogger()

	page, err := client.Page(ctx, updatePageID)
	if err != nil {
		return handleErr(err)
	}
	tr := rollover.New(rollover.WithLogger(log))
	body, sum, err := tr.Storage(page.StorageValue())
	if err != nil {
		return handleErr(err)
	}

	res := updatePageResult{
		DryRun:  updateDryRun,
		PageID:  page.ID,
		Title:   firstNonEmpty(updateTitle, page.Title),
		Version: page.VersionNumber(),
		Summary: sum,
	}
	var warnings []Warning
	if !sum.Duplicated {
		warnings = append(warnings, Warning{Code: WarnNothingCarried, Message: "fewer than two heading groups; body unchanged"})
	}

	if updateDryRun {
		res.Body = body
		if isJSONOutput() {
			outputSuccessWithWarnings(res, warnings, nil)
			return nil
		}
		fmt.Println(ui.Info("dry run, nothing written"))
		fmt.Println(body)
		return nil
	}

	if updateBackupDir != "" {
		name := slugs.BackupName(page.Title, page.ID, page.VersionNumber(), ".xml")
		path, err := atomicfile.WriteNew(updateBackupDir, name, []byte(page.StorageValue()), 0o644)
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
		res.Backup = path
	}
	if !updateNoJournal {
		j, err := openJournal()
		if err != nil {
			return handleError(ErrDatabaseError, err, "Pass --no-journal to update without a snapshot")
		}
		defer j.Close()
		snap, err := j.Record(journal.Snapshot{
			PageID:  page.ID,
			Title:   page.Title,
			Version: page.VersionNumber(),
			Body:    page.StorageValue(),
			Reason:  "update-page",
		})
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		res.SnapshotID = snap.ID
	}

	updated, err := client.Update(ctx, page.ID, body, page.VersionNumber(), res.Title)
	if err != nil {
		return handleErr(err)
	}
	res.Version = updated.VersionNumber()
	if res.Version == 0 {
		res.Version = page.VersionNumber() + 1
	}
	log.Info("page updated", "id", page.ID, "version", res.Version)

	if isJSONOutput() {
		outputSuccessWithWarnings(res, warnings, nil)
		return nil
	}
	fmt.Println(ui.Successf("Updated %s to version %d", ui.Page(res.Title, res.PageID), res.Version))
	fmt.Printf("  %s\n", ui.Hint(summaryLine(sum)))
	if res.Backup != "" {
		fmt.Printf("  backup: %s\n", res.Backup)
	}
	return nil
}

func init() {
	updatePageCmd.Flags().StringVar(&updatePageID, "page-id", "", "Id of the page to update")
	updatePageCmd.Flags().StringVar(&updateTitle, "title", "", "New title (default keep the current one)")
	updatePageCmd.Flags().StringVar(&updateBackupDir, "backup-dir", "", "Also write the old body to a file in this directory")
	updatePageCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "Print the new body without writing")
	updatePageCmd.Flags().BoolVar(&updateNoJournal, "no-journal", false, "Do not snapshot the body before updating")
	rootCmd.AddCommand(updatePageCmd)
}
