package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/wikiroll/internal/config"
	"github.com/aidanlsb/wikiroll/internal/daily"
	"github.com/aidanlsb/wikiroll/internal/rollover"
	"github.com/aidanlsb/wikiroll/internal/ui"
)

var (
	dailySpace       string
	dailyFrom        string
	dailyInto        string
	dailyTitleFormat string
	dailyDryRun      bool
	dailyNoJournal   bool
)

var dailyUpdateCmd = &cobra.Command{
	Use:   "daily-update",
	Short: "Archive the current journal page and roll it over to a new period",
	Long: `Finds the page at --from, copies it (with its children) under the page at
--into, then rewrites the original: its newest heading group is duplicated
and its title becomes --title-format rendered for today. The archive copy
takes the old title.

Flags default to the [rollover] section of the config. The body is
snapshotted to the journal before it is overwritten.

Examples:
  wroll daily-update --space Team --from "Journal/%Y/week %W" --into "Journal/%Y" --title-format "week %W"
  wroll daily-update --dry-run`,
	Args: cobra.NoArgs,
	RunE: runDailyUpdate,
}

func runDailyUpdate(cmd *cobra.Command, args []string) error {
	rc := getConfig().Rollover
	opts := daily.Options{
		Space:       firstNonEmpty(dailySpace, rc.Space),
		From:        firstNonEmpty(dailyFrom, rc.From),
		Into:        firstNonEmpty(dailyInto, rc.Into),
		TitleFormat: firstNonEmpty(dailyTitleFormat, rc.TitleFormat),
		DryRun:      dailyDryRun,
		Logger:      getLogger(),
	}
	if opts.Space == "" || opts.From == "" || opts.Into == "" || opts.TitleFormat == "" {
		return handleErrorMsg(ErrMissingArgument,
			"space, from, into and title format are required",
			"Pass --space, --from, --into and --title-format or set them under [rollover] in the config")
	}
	opts.Transformer = rollover.New(rollover.WithLogger(opts.Logger))

	client, err := newConfluenceClient()
	if err != nil {
		return handleErr(err)
	}

	var warnings []Warning
	if !opts.DryRun && !dailyNoJournal {
		j, err := openJournal()
		if err != nil {
			return handleError(ErrDatabaseError, err, "Pass --no-journal to update without a snapshot")
		}
		defer j.Close()
		opts.Journal = j
	} else if !opts.DryRun {
		warnings = append(warnings, Warning{Code: WarnSnapshotSkipped, Message: "journal disabled; the old body is only kept in the archive copy"})
	}

	res, err := daily.Run(commandContext(cmd), client, opts)
	if err != nil {
		if errors.Is(err, daily.ErrUpToDate) && isJSONOutput() {
			return handleErrorWithDetails(ErrUpToDate, err.Error(), errorSuggestion(err), res)
		}
		return handleErr(err)
	}

	if !res.DryRun {
		mark := config.RolloverMark{
			Space:    res.Space,
			PageID:   res.SourceID,
			OldTitle: res.OldTitle,
			NewTitle: res.NewTitle,
		}
		if len(res.Renamed) > 0 {
			mark.CopyID = res.Renamed[0]
		}
		if w := saveRolloverMark(mark); w != nil {
			warnings = append(warnings, *w)
		}
	}

	if isJSONOutput() {
		outputSuccessWithWarnings(res, warnings, nil)
		return nil
	}

	if res.DryRun {
		fmt.Println(ui.Info("dry run, nothing written"))
		fmt.Printf("  would copy  %s under %s\n", ui.Page(res.OldTitle, res.SourceID), res.DestinationID)
		fmt.Printf("  would title %s\n", ui.Page(res.NewTitle, res.SourceID))
		fmt.Printf("  %s\n", ui.Hint(summaryLine(res.Summary)))
		return nil
	}
	fmt.Println(ui.Successf("Rolled over %s", ui.Page(res.NewTitle, res.SourceID)))
	for _, id := range res.Renamed {
		fmt.Printf("  archived as %s\n", ui.Page(res.OldTitle, id))
	}
	if res.SnapshotID != 0 {
		fmt.Printf("  %s\n", ui.Hint(fmt.Sprintf("snapshot %d (wroll restore --snapshot %d)", res.SnapshotID, res.SnapshotID)))
	}
	for _, w := range warnings {
		fmt.Println(ui.Warning(w.Message))
	}
	return nil
}

func init() {
	dailyUpdateCmd.Flags().StringVar(&dailySpace, "space", "", "Space name")
	dailyUpdateCmd.Flags().StringVar(&dailyFrom, "from", "", "Path of the page to roll over")
	dailyUpdateCmd.Flags().StringVar(&dailyInto, "into", "", "Path of the page that receives the archive copy")
	dailyUpdateCmd.Flags().StringVar(&dailyTitleFormat, "title-format", "", "strftime format of the new title")
	dailyUpdateCmd.Flags().BoolVar(&dailyDryRun, "dry-run", false, "Resolve pages and transform the body without writing")
	dailyUpdateCmd.Flags().BoolVar(&dailyNoJournal, "no-journal", false, "Do not snapshot the body before updating")
	rootCmd.AddCommand(dailyUpdateCmd)
}
