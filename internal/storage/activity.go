package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vidyasagar/stackbrowse/internal/browser"
)

// DefaultActivityLimit is how many activity entries are kept by default.
const DefaultActivityLimit = 50

// Entry is one line of the activity log.
type Entry struct {
	ID        int64     `json:"id"`
	Op        string    `json:"op"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	OK        bool      `json:"ok"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ago returns the entry age in words, e.g. "3 minutes ago".
func (e Entry) Ago() string {
	return humanize.Time(e.CreatedAt)
}

// ActivityLog is a bounded, newest-first log of navigation activity
// persisted in SQLite.
type ActivityLog struct {
	db    *sql.DB
	limit int
	now   func() time.Time
}

// NewActivityLog creates an activity log keeping at most limit entries.
// A non-positive limit selects DefaultActivityLimit.
func NewActivityLog(db *DB, limit int) *ActivityLog {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return &ActivityLog{db: db.Conn(), limit: limit, now: time.Now}
}

// Limit returns the maximum number of kept entries.
func (l *ActivityLog) Limit() int {
	return l.limit
}

// Record appends e and drops entries beyond the limit. A zero CreatedAt is
// set to the current time.
func (l *ActivityLog) Record(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now()
	}

	ok := 0
	if e.OK {
		ok = 1
	}

	if _, err := l.db.Exec(
		`INSERT INTO activity (op, url, title, ok, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Op, e.URL, e.Title, ok, e.Message, e.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}

	if _, err := l.db.Exec(
		`DELETE FROM activity WHERE id NOT IN (SELECT id FROM activity ORDER BY id DESC LIMIT ?)`,
		l.limit,
	); err != nil {
		return fmt.Errorf("trimming activity: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns all kept
// entries.
func (l *ActivityLog) Recent(n int) ([]Entry, error) {
	if n <= 0 || n > l.limit {
		n = l.limit
	}
	rows, err := l.db.Query(
		`SELECT id, op, url, title, ok, message, created_at FROM activity ORDER BY id DESC LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Count returns the number of kept entries.
func (l *ActivityLog) Count() (int, error) {
	var count int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM activity`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting activity: %w", err)
	}
	return count, nil
}

// Clear removes all entries.
func (l *ActivityLog) Clear() error {
	if _, err := l.db.Exec(`DELETE FROM activity`); err != nil {
		return fmt.Errorf("clearing activity: %w", err)
	}
	return nil
}

// Observer returns an engine observer that records every operation. Record
// failures are passed to onErr when it is non-nil.
func (l *ActivityLog) Observer(onErr func(error)) func(browser.Event) {
	return func(ev browser.Event) {
		if err := l.Record(EntryFromEvent(ev)); err != nil && onErr != nil {
			onErr(err)
		}
	}
}

// EntryFromEvent converts an engine event to a log entry.
func EntryFromEvent(ev browser.Event) Entry {
	e := Entry{
		Op:    string(ev.Op),
		URL:   ev.Page.URL,
		Title: ev.Page.Title,
		OK:    ev.Err == nil,
	}
	if ev.Err != nil {
		e.Message = ev.Err.Error()
		return e
	}

	switch ev.Op {
	case browser.OpNavigate:
		e.Message = fmt.Sprintf("Navigated to %s", ev.Page.Title)
	case browser.OpBack:
		e.Message = fmt.Sprintf("Went back to %s", ev.Page.Title)
	case browser.OpForward:
		e.Message = fmt.Sprintf("Went forward to %s", ev.Page.Title)
	case browser.OpReset:
		e.Message = "Browser reset, all history cleared"
	default:
		e.Message = string(ev.Op)
	}
	return e
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var ok int
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Op, &e.URL, &e.Title, &ok, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		e.OK = ok != 0
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		e.CreatedAt = t
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
