// Package journal keeps snapshots of page bodies taken before they are
// overwritten, so a rollover can be inspected and undone.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// ErrSnapshotNotFound indicates the requested snapshot id is not stored.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// CurrentVersion is the schema version stored in the meta table.
const CurrentVersion = 1

// Snapshot is one stored page body.
type Snapshot struct {
	ID      int64     `json:"id"`
	PageID  string    `json:"page_id"`
	Title   string    `json:"title"`
	Version int       `json:"version"`
	Body    string    `json:"body,omitempty"`
	Reason  string    `json:"reason"`
	TakenAt time.Time `json:"taken_at"`
}

// Journal is the SQLite snapshot store.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the journal at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	j := &Journal{db: db, now: time.Now}
	if err := j.initialize(true); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// OpenInMemory opens a private in-memory journal (for testing and dry runs).
func OpenInMemory() (*Journal, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// every pooled connection would otherwise see its own empty database
	db.SetMaxOpenConns(1)
	j := &Journal{db: db, now: time.Now}
	if err := j.initialize(false); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) initialize(onDisk bool) error {
	if onDisk {
		if _, err := j.db.Exec(`PRAGMA journal_mode = WAL; PRAGMA synchronous = NORMAL;`); err != nil {
			return fmt.Errorf("failed to configure journal: %w", err)
		}
	}
	schema := `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			page_id TEXT NOT NULL,
			title TEXT NOT NULL,
			version INTEGER NOT NULL,
			body TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			taken_at INTEGER NOT NULL   -- Unix nanoseconds
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_page ON snapshots(page_id, taken_at);
	`
	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}

	var stored string
	err := j.db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = j.db.Exec(`INSERT INTO meta (key, value) VALUES ('version', ?)`, strconv.Itoa(CurrentVersion))
		if err != nil {
			return fmt.Errorf("failed to record journal version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to read journal version: %w", err)
	default:
		v, err := strconv.Atoi(stored)
		if err != nil || v > CurrentVersion {
			return fmt.Errorf("journal version %q is newer than supported version %d", stored, CurrentVersion)
		}
	}
	return nil
}

// Record stores a snapshot and returns it with its id and time set.
func (j *Journal) Record(s Snapshot) (Snapshot, error) {
	if s.PageID == "" {
		return Snapshot{}, errors.New("snapshot needs a page id")
	}
	if s.TakenAt.IsZero() {
		s.TakenAt = j.now()
	}
	res, err := j.db.Exec(
		`INSERT INTO snapshots (page_id, title, version, body, reason, taken_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.PageID, s.Title, s.Version, s.Body, s.Reason, s.TakenAt.UnixNano(),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to record snapshot of %s: %w", s.PageID, err)
	}
	s.ID, err = res.LastInsertId()
	if err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// List returns snapshots newest first, without bodies. An empty pageID
// lists every page; limit <= 0 means no limit.
func (j *Journal) List(pageID string, limit int) ([]Snapshot, error) {
	query := `SELECT id, page_id, title, version, reason, taken_at FROM snapshots`
	var args []any
	if pageID != "" {
		query += ` WHERE page_id = ?`
		args = append(args, pageID)
	}
	query += ` ORDER BY taken_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var taken int64
		if err := rows.Scan(&s.ID, &s.PageID, &s.Title, &s.Version, &s.Reason, &taken); err != nil {
			return nil, err
		}
		s.TakenAt = time.Unix(0, taken)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns one snapshot with its body.
func (j *Journal) Get(id int64) (Snapshot, error) {
	var s Snapshot
	var taken int64
	err := j.db.QueryRow(
		`SELECT id, page_id, title, version, body, reason, taken_at FROM snapshots WHERE id = ?`, id,
	).Scan(&s.ID, &s.PageID, &s.Title, &s.Version, &s.Body, &s.Reason, &taken)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("snapshot %d: %w", id, ErrSnapshotNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read snapshot %d: %w", id, err)
	}
	s.TakenAt = time.Unix(0, taken)
	return s, nil
}

// Prune keeps the newest keep snapshots of a page and deletes the rest,
// returning how many were removed.
func (j *Journal) Prune(pageID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := j.db.Exec(`
		DELETE FROM snapshots
		WHERE page_id = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE page_id = ?
			ORDER BY taken_at DESC, id DESC LIMIT ?
		)`, pageID, pageID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots of %s: %w", pageID, err)
	}
	return res.RowsAffected()
}
