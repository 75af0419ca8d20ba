package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aidanlsb/wikiroll/internal/config"
	"github.com/aidanlsb/wikiroll/internal/daily"
	"github.com/aidanlsb/wikiroll/internal/journal"
	"github.com/aidanlsb/wikiroll/internal/rollover"
)

const pageBody = `<h1>2024-01-08</h1><p>this week</p><h1>2024-01-01</h1><p>last week</p>`

func newJournalSite(t *testing.T) (*pageServer, *config.Config) {
	t.Helper()
	site, c := newPageServer(t)
	site.add("1", "", "Journal", "")
	site.add("2", "1", "2024-01-01", "<p>old</p>")
	site.add("3", "1", "2024-01-08", pageBody)
	site.add("4", "", "Archive", "")
	return site, c
}

func TestFindPage(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		wantID string
		code   string
	}{
		{"exact", "Journal/2024-01-01", "2", ""},
		{"newest date", "Journal/%Y-%m-%d", "3", ""},
		{"missing", "Journal/Minutes", "", ErrPageNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newJournalSite(t)
			setupGlobals(t, c)
			setVar(t, &findSpace, "Team")
			setVar(t, &findPath, tt.path)

			out := captureStdout(t, func() {
				if err := findPageCmd.RunE(findPageCmd, nil); err != nil {
					t.Errorf("RunE: %v", err)
				}
			})
			var page foundPage
			resp := decodeResponse(t, out, &page)
			if tt.code != "" {
				if resp.OK || resp.Error.Code != tt.code {
					t.Fatalf("response = %s, want %s", out, tt.code)
				}
				return
			}
			if !resp.OK || page.ID != tt.wantID || page.SpaceKey != "TEAM" {
				t.Fatalf("response = %s", out)
			}
		})
	}
}

func TestFindPageNeedsCredentials(t *testing.T) {
	setupGlobals(t, &config.Config{})
	setVar(t, &findSpace, "Team")
	setVar(t, &findPath, "Journal")
	out := captureStdout(t, func() {
		_ = findPageCmd.RunE(findPageCmd, nil)
	})
	resp := decodeResponse(t, out, nil)
	if resp.OK || resp.Error.Code != ErrConfigInvalid {
		t.Fatalf("response = %s", out)
	}
}

func TestUpdatePageHistoryRestore(t *testing.T) {
	site, c := newJournalSite(t)
	dir := setupGlobals(t, c)
	backups := filepath.Join(dir, "backups")

	setVar(t, &updatePageID, "3")
	setVar(t, &updateTitle, "2024-01-15")
	setVar(t, &updateBackupDir, backups)
	setVar(t, &updateDryRun, false)
	setVar(t, &updateNoJournal, false)

	out := captureStdout(t, func() {
		if err := updatePageCmd.RunE(updatePageCmd, nil); err != nil {
			t.Errorf("update-page: %v", err)
		}
	})
	var upd updatePageResult
	if resp := decodeResponse(t, out, &upd); !resp.OK {
		t.Fatalf("update-page response = %s", out)
	}
	want, _, err := rollover.TransformStorage(pageBody)
	if err != nil {
		t.Fatal(err)
	}
	page := site.page("3")
	if page.body != want || page.Title != "2024-01-15" || page.Version.Number != 4 || upd.Version != 4 {
		t.Fatalf("page after update = %+v body %q", page.Page, page.body)
	}
	if filepath.Base(upd.Backup) != "2024-01-08-3-v3.xml" {
		t.Errorf("backup = %q", upd.Backup)
	}
	if data, err := os.ReadFile(upd.Backup); err != nil || string(data) != pageBody {
		t.Errorf("backup content = %q, %v", data, err)
	}

	setVar(t, &historyPageID, "3")
	setVar(t, &historyLimit, 10)
	setVar(t, &historyPrune, 0)
	out = captureStdout(t, func() {
		if err := historyCmd.RunE(historyCmd, nil); err != nil {
			t.Errorf("history: %v", err)
		}
	})
	var hist struct {
		Snapshots []journal.Snapshot `json:"snapshots"`
	}
	decodeResponse(t, out, &hist)
	if len(hist.Snapshots) != 1 || hist.Snapshots[0].ID != upd.SnapshotID || hist.Snapshots[0].Reason != "update-page" {
		t.Fatalf("history = %s", out)
	}

	setVar(t, &restoreSnapshot, upd.SnapshotID)
	setVar(t, &restoreTitle, true)
	setVar(t, &restoreNoJournal, false)
	out = captureStdout(t, func() {
		if err := restoreCmd.RunE(restoreCmd, nil); err != nil {
			t.Errorf("restore: %v", err)
		}
	})
	var res restoreResult
	if resp := decodeResponse(t, out, &res); !resp.OK {
		t.Fatalf("restore response = %s", out)
	}
	page = site.page("3")
	if page.body != pageBody || page.Title != "2024-01-08" || page.Version.Number != 5 {
		t.Fatalf("page after restore = %+v body %q", page.Page, page.body)
	}
	if res.Backup == 0 || res.Backup == upd.SnapshotID {
		t.Errorf("restore backup snapshot = %d", res.Backup)
	}
}

func TestUpdatePageDryRun(t *testing.T) {
	site, c := newJournalSite(t)
	setupGlobals(t, c)
	setVar(t, &updatePageID, "3")
	setVar(t, &updateTitle, "")
	setVar(t, &updateBackupDir, "")
	setVar(t, &updateDryRun, true)

	out := captureStdout(t, func() {
		if err := updatePageCmd.RunE(updatePageCmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	var res updatePageResult
	decodeResponse(t, out, &res)
	if !res.DryRun || res.Title != "2024-01-08" || !strings.Contains(res.Body, "this week") {
		t.Fatalf("response = %s", out)
	}
	site.mu.Lock()
	defer site.mu.Unlock()
	if site.puts != 0 {
		t.Fatalf("dry run wrote %d updates", site.puts)
	}
}

func TestRestoreUnknownSnapshot(t *testing.T) {
	_, c := newJournalSite(t)
	setupGlobals(t, c)
	setVar(t, &restoreSnapshot, int64(99))
	out := captureStdout(t, func() {
		_ = restoreCmd.RunE(restoreCmd, nil)
	})
	resp := decodeResponse(t, out, nil)
	if resp.OK || resp.Error.Code != ErrSnapshotNotFound {
		t.Fatalf("response = %s", out)
	}
}

func TestDailyUpdateDryRun(t *testing.T) {
	site, c := newJournalSite(t)
	c.Rollover = config.RolloverConfig{Space: "Team", From: "Journal/%Y-%m-%d", Into: "Archive", TitleFormat: "week of %Y-%m-%d"}
	setupGlobals(t, c)
	setVar(t, &dailySpace, "")
	setVar(t, &dailyFrom, "")
	setVar(t, &dailyInto, "")
	setVar(t, &dailyTitleFormat, "")
	setVar(t, &dailyDryRun, true)

	out := captureStdout(t, func() {
		if err := dailyUpdateCmd.RunE(dailyUpdateCmd, nil); err != nil {
			t.Errorf("RunE: %v", err)
		}
	})
	var res daily.Result
	resp := decodeResponse(t, out, &res)
	if !resp.OK || !res.DryRun || res.SourceID != "3" || res.DestinationID != "4" {
		t.Fatalf("response = %s", out)
	}
	if !strings.HasPrefix(res.NewTitle, "week of ") || !res.Summary.Duplicated {
		t.Fatalf("result = %+v", res)
	}
	site.mu.Lock()
	defer site.mu.Unlock()
	if site.puts != 0 {
		t.Fatalf("dry run wrote %d updates", site.puts)
	}
}

func TestDailyUpdateMissingSettings(t *testing.T) {
	setupGlobals(t, &config.Config{})
	setVar(t, &dailySpace, "Team")
	setVar(t, &dailyFrom, "")
	setVar(t, &dailyInto, "")
	setVar(t, &dailyTitleFormat, "")
	out := captureStdout(t, func() {
		_ = dailyUpdateCmd.RunE(dailyUpdateCmd, nil)
	})
	resp := decodeResponse(t, out, nil)
	if resp.OK || resp.Error.Code != ErrMissingArgument {
		t.Fatalf("response = %s", out)
	}
}
