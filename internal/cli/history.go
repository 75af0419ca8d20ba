package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/wikiroll/internal/journal"
	"github.com/aidanlsb/wikiroll/internal/ui"
)

var (
	historyPageID string
	historyLimit  int
	historyPrune  int

	restoreSnapshot  int64
	restoreTitle     bool
	restoreNoJournal bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List journal snapshots taken before page updates",
	Long: `Lists the snapshots the journal holds, newest first. Without --page-id
snapshots of every page are listed.

Examples:
  wroll history --page-id 12345
  wroll history --page-id 12345 --prune 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer j.Close()

		var pruned int64
		if historyPrune > 0 {
			if historyPageID == "" {
				return handleErrorMsg(ErrMissingArgument, "--prune needs --page-id", "")
			}
			if pruned, err = j.Prune(historyPageID, historyPrune); err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
		}

		snaps, err := j.List(historyPageID, historyLimit)
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]any{
				"snapshots": snaps,
				"pruned":    pruned,
			}, &Meta{Count: len(snaps)})
			return nil
		}

		if pruned > 0 {
			fmt.Println(ui.Infof("pruned %d old snapshots", pruned))
		}
		if len(snaps) == 0 {
			fmt.Println(ui.Hint("no snapshots"))
			return nil
		}
		t := ui.NewTable(6)
		t.SetHeader("ID", "PAGE", "VERSION", "TITLE", "REASON", "TAKEN")
		for _, s := range snaps {
			t.AddRow(
				strconv.FormatInt(s.ID, 10),
				s.PageID,
				strconv.Itoa(s.Version),
				s.Title,
				s.Reason,
				s.TakenAt.Local().Format("2006-01-02 15:04"),
			)
		}
		fmt.Print(t.String())
		fmt.Println(ui.Count(len(snaps), "snapshot", "snapshots"))
		return nil
	},
}

type restoreResult struct {
	SnapshotID int64  `json:"snapshot_id"`
	PageID     string `json:"page_id"`
	Title      string `json:"title"`
	Version    int    `json:"version"`
	// Backup is the snapshot of the body that the restore replaced.
	Backup int64 `json:"backup_snapshot_id,omitempty"`
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Write a snapshot's body back to its page",
	Long: `Restores the body a snapshot holds as a new page version. The current
title is kept unless --title is given, which restores the snapshot's title
too. The body being replaced is itself snapshotted first.

Examples:
  wroll restore --snapshot 42`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if restoreSnapshot <= 0 {
			return handleErrorMsg(ErrMissingArgument, "--snapshot is required", "Run 'wroll history' to list snapshots")
		}
		j, err := openJournal()
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		defer j.Close()

		snap, err := j.Get(restoreSnapshot)
		if err != nil {
			return handleErr(err)
		}
		client, err := newConfluenceClient()
		if err != nil {
			return handleErr(err)
		}
		ctx := commandContext(cmd)

		current, err := client.Page(ctx, snap.PageID)
		if err != nil {
			return handleErr(err)
		}
		res := restoreResult{SnapshotID: snap.ID, PageID: snap.PageID, Title: current.Title}
		if restoreTitle {
			res.Title = snap.Title
		}

		if !restoreNoJournal {
			backup, err := j.Record(journal.Snapshot{
				PageID:  current.ID,
				Title:   current.Title,
				Version: current.VersionNumber(),
				Body:    current.StorageValue(),
				Reason:  "restore",
			})
			if err != nil {
				return handleError(ErrDatabaseError, err, "")
			}
			res.Backup = backup.ID
		}

		updated, err := client.Update(ctx, current.ID, snap.Body, current.VersionNumber(), res.Title)
		if err != nil {
			return handleErr(err)
		}
		res.Version = updated.VersionNumber()
		if res.Version == 0 {
			res.Version = current.VersionNumber() + 1
		}

		if isJSONOutput() {
			outputSuccess(res, nil)
			return nil
		}
		fmt.Println(ui.Successf("Restored snapshot %d to %s (version %d)", snap.ID, ui.Page(res.Title, res.PageID), res.Version))
		if res.Backup != 0 {
			fmt.Printf("  %s\n", ui.Hint(fmt.Sprintf("replaced body saved as snapshot %d", res.Backup)))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyPageID, "page-id", "", "Only list snapshots of this page")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of snapshots to list")
	historyCmd.Flags().IntVar(&historyPrune, "prune", 0, "Keep only this many newest snapshots of --page-id")
	restoreCmd.Flags().Int64Var(&restoreSnapshot, "snapshot", 0, "Snapshot id")
	restoreCmd.Flags().BoolVar(&restoreTitle, "title", false, "Also restore the snapshot's title")
	restoreCmd.Flags().BoolVar(&restoreNoJournal, "no-journal", false, "Do not snapshot the replaced body")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(restoreCmd)
}
