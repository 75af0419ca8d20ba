// Package daily implements the daily update: copy the current period page
// as an archive, roll the page over to the new period and retitle it.
package daily

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aidanlsb/wikiroll/internal/confluence"
	"github.com/aidanlsb/wikiroll/internal/journal"
	"github.com/aidanlsb/wikiroll/internal/rollover"
)

// DefaultCopyPrefix is prepended to copied titles until the copy is renamed.
const DefaultCopyPrefix = "copy-"

// ErrUpToDate is returned when the source page already carries the new title.
var ErrUpToDate = errors.New("page already carries the new title")

// Client is the part of the Confluence API the workflow uses.
type Client interface {
	confluence.ChildLister
	SpaceByName(ctx context.Context, name string) (confluence.Space, error)
	TopPages(ctx context.Context, spaceKey string) ([]confluence.Page, error)
	Page(ctx context.Context, id string) (*confluence.Page, error)
	PagesByTitle(ctx context.Context, spaceKey, title string) ([]confluence.Page, error)
	CopyHierarchy(ctx context.Context, src confluence.Page, destID, prefix string) (string, string, error)
	WaitTask(ctx context.Context, id string, attempts uint, interval time.Duration) (*confluence.Task, error)
	Update(ctx context.Context, id, body string, version int, title string) (*confluence.Page, error)
	Rename(ctx context.Context, page confluence.Page, title string) (*confluence.Page, error)
}

// Recorder stores page bodies before they are overwritten.
type Recorder interface {
	Record(s journal.Snapshot) (journal.Snapshot, error)
}

// Options configures one run.
type Options struct {
	// Space is the display name of the space.
	Space string
	// From is the slash-separated path of the page to roll over; Into is
	// the path of the parent that receives the archive copy.
	From string
	Into string
	// TitleFormat is a strftime format rendered at Now.
	TitleFormat string
	Now         time.Time

	DryRun     bool
	CopyPrefix string

	// WaitAttempts polls of the copy task, WaitInterval apart.
	WaitAttempts uint
	WaitInterval time.Duration

	Journal     Recorder
	Transformer *rollover.Transformer
	Logger      *slog.Logger
}

// Result reports what a run did (or would do, for dry runs).
type Result struct {
	DryRun        bool             `json:"dry_run"`
	Space         string           `json:"space"`
	SpaceKey      string           `json:"space_key"`
	SourceID      string           `json:"source_id"`
	DestinationID string           `json:"destination_id"`
	OldTitle      string           `json:"old_title"`
	NewTitle      string           `json:"new_title"`
	TaskID        string           `json:"task_id,omitempty"`
	CopyTitle     string           `json:"copy_title,omitempty"`
	Renamed       []string         `json:"renamed,omitempty"`
	SnapshotID    int64            `json:"snapshot_id,omitempty"`
	Version       int              `json:"version"`
	Summary       rollover.Summary `json:"summary"`
	Body          string           `json:"body,omitempty"`
}

func (o *Options) defaults() error {
	if o.Space == "" || o.From == "" || o.Into == "" || o.TitleFormat == "" {
		return errors.New("space, from, into and title format are required")
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.CopyPrefix == "" {
		o.CopyPrefix = DefaultCopyPrefix
	}
	if o.WaitAttempts == 0 {
		o.WaitAttempts = 30
	}
	if o.WaitInterval == 0 {
		o.WaitInterval = 2 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Transformer == nil {
		o.Transformer = rollover.New(rollover.WithLogger(o.Logger))
	}
	return nil
}

// Run performs the daily update.
//
// The source page is copied (with descendants) under the destination,
// then overwritten with its rolled-over body and the new title, and the
// copy is renamed to the old title. The update has to come before the
// rename since titles are unique within a space.
func Run(ctx context.Context, c Client, opts Options) (*Result, error) {
	if err := opts.defaults(); err != nil {
		return nil, err
	}
	log := opts.Logger

	space, err := c.SpaceByName(ctx, opts.Space)
	if err != nil {
		return nil, err
	}
	log.Info("found space", "name", space.Name, "key", space.Key)

	top, err := c.TopPages(ctx, space.Key)
	if err != nil {
		return nil, err
	}
	src, err := confluence.FindPageByPath(ctx, c, top, confluence.SplitPath(opts.From))
	if err != nil {
		return nil, fmt.Errorf("source page: %w", err)
	}
	dest, err := confluence.FindPageByPath(ctx, c, top, confluence.SplitPath(opts.Into))
	if err != nil {
		return nil, fmt.Errorf("destination page: %w", err)
	}
	log.Info("resolved pages", "source", src.ID, "source_title", src.Title, "destination", dest.ID)

	page, err := c.Page(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	newTitle := confluence.NewTitle(opts.TitleFormat, opts.Now)
	res := &Result{
		DryRun:        opts.DryRun,
		Space:         space.Name,
		SpaceKey:      space.Key,
		SourceID:      page.ID,
		DestinationID: dest.ID,
		OldTitle:      page.Title,
		NewTitle:      newTitle,
		Version:       page.VersionNumber(),
	}
	if newTitle == page.Title {
		return res, fmt.Errorf("%q: %w", newTitle, ErrUpToDate)
	}

	body, sum, err := opts.Transformer.Storage(page.StorageValue())
	if err != nil {
		return res, fmt.Errorf("roll over %s: %w", page.ID, err)
	}
	res.Summary = sum
	if opts.DryRun {
		res.Body = body
		return res, nil
	}

	taskID, copyTitle, err := c.CopyHierarchy(ctx, *page, dest.ID, opts.CopyPrefix)
	if err != nil {
		return res, err
	}
	res.TaskID, res.CopyTitle = taskID, copyTitle
	log.Info("copy started", "task", taskID, "title", copyTitle)
	if _, err := c.WaitTask(ctx, taskID, opts.WaitAttempts, opts.WaitInterval); err != nil {
		return res, err
	}

	if opts.Journal != nil {
		snap, err := opts.Journal.Record(journal.Snapshot{
			PageID:  page.ID,
			Title:   page.Title,
			Version: page.VersionNumber(),
			Body:    page.StorageValue(),
			Reason:  "daily-update",
		})
		if err != nil {
			return res, err
		}
		res.SnapshotID = snap.ID
	}

	if _, err := c.Update(ctx, page.ID, body, page.VersionNumber(), newTitle); err != nil {
		return res, err
	}
	log.Info("page rolled over", "id", page.ID, "title", newTitle, "groups_out", sum.GroupsOut)

	copies, err := c.PagesByTitle(ctx, space.Key, copyTitle)
	if err != nil {
		return res, err
	}
	if len(copies) == 0 {
		return res, fmt.Errorf("copy %q: %w", copyTitle, confluence.ErrNotFound)
	}
	for _, cp := range copies {
		if _, err := c.Rename(ctx, cp, page.Title); err != nil {
			return res, err
		}
		res.Renamed = append(res.Renamed, cp.ID)
		log.Info("copy renamed", "id", cp.ID, "title", page.Title)
	}
	return res, nil
}
