package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidyasagar/stackbrowse/internal/browser"
)

func setupActivity(t *testing.T, limit int) *ActivityLog {
	t.Helper()
	db, err := OpenDB("")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewActivityLog(db, limit)
}

func TestActivityRecordAndRecent(t *testing.T) {
	log := setupActivity(t, 10)

	require.NoError(t, log.Record(Entry{Op: "navigate", URL: "a.com", Title: "A", OK: true, Message: "first"}))
	require.NoError(t, log.Record(Entry{Op: "back", OK: false, Message: "second"}))

	entries, err := log.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "second", entries[0].Message)
	assert.False(t, entries[0].OK)
	assert.Equal(t, "first", entries[1].Message)
	assert.Equal(t, "a.com", entries[1].URL)
	assert.Equal(t, "A", entries[1].Title)
	assert.True(t, entries[1].OK)
	assert.False(t, entries[1].CreatedAt.IsZero())
}

func TestActivityTrimsToLimit(t *testing.T) {
	log := setupActivity(t, 3)

	for i := 1; i <= 5; i++ {
		require.NoError(t, log.Record(Entry{Op: "navigate", Message: fmt.Sprintf("m%d", i), OK: true}))
	}

	count, err := log.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	entries, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "m5", entries[0].Message)
	assert.Equal(t, "m3", entries[2].Message)

	entries, err = log.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "m5", entries[0].Message)
}

func TestActivityClear(t *testing.T) {
	log := setupActivity(t, 0)
	assert.Equal(t, DefaultActivityLimit, log.Limit())

	require.NoError(t, log.Record(Entry{Op: "reset", OK: true}))
	require.NoError(t, log.Clear())

	count, err := log.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestActivityUsesClock(t *testing.T) {
	log := setupActivity(t, 5)
	fixed := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	log.now = func() time.Time { return fixed }

	require.NoError(t, log.Record(Entry{Op: "navigate", OK: true}))
	entries, err := log.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, fixed.Equal(entries[0].CreatedAt))
}

func TestEntryAgo(t *testing.T) {
	e := Entry{CreatedAt: time.Now().Add(-3 * time.Minute)}
	assert.Equal(t, "3 minutes ago", e.Ago())
}

func TestEntryFromEvent(t *testing.T) {
	page := browser.Page{URL: "https://go.dev", Title: "Go"}
	tests := []struct {
		name    string
		ev      browser.Event
		ok      bool
		message string
	}{
		{"navigate", browser.Event{Op: browser.OpNavigate, Page: page}, true, "Navigated to Go"},
		{"back", browser.Event{Op: browser.OpBack, Page: page}, true, "Went back to Go"},
		{"forward", browser.Event{Op: browser.OpForward, Page: page}, true, "Went forward to Go"},
		{"reset", browser.Event{Op: browser.OpReset, Page: browser.Blank}, true, "Browser reset, all history cleared"},
		{"failure", browser.Event{Op: browser.OpBack, Page: page, Err: errors.New("boom")}, false, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := EntryFromEvent(tt.ev)
			assert.Equal(t, string(tt.ev.Op), e.Op)
			assert.Equal(t, tt.ok, e.OK)
			assert.Equal(t, tt.message, e.Message)
			assert.Equal(t, tt.ev.Page.URL, e.URL)
		})
	}
}

func TestObserverRecordsEngineActivity(t *testing.T) {
	log := setupActivity(t, 10)
	var recordErr error
	engine := browser.NewEngine(browser.WithObserver(log.Observer(func(err error) { recordErr = err })))

	_, err := engine.Navigate("a.com", "A")
	require.NoError(t, err)
	_, err = engine.Forward()
	require.Error(t, err)
	engine.Reset()

	require.NoError(t, recordErr)
	entries, err := log.Recent(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "reset", entries[0].Op)
	assert.Equal(t, "forward", entries[1].Op)
	assert.False(t, entries[1].OK)
	assert.Equal(t, "navigate", entries[2].Op)
	assert.Equal(t, "Navigated to A", entries[2].Message)
}

func TestOpenDBFile(t *testing.T) {
	path := t.TempDir() + "/nested/activity.db"
	db, err := OpenDB(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())

	log := NewActivityLog(db, 5)
	require.NoError(t, log.Record(Entry{Op: "navigate", OK: true}))
	require.NoError(t, db.Close())

	db, err = OpenDB(path)
	require.NoError(t, err)
	defer db.Close()
	count, err := NewActivityLog(db, 5).Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestActivityRecentRejectsBadTimestamp(t *testing.T) {
	log := setupActivity(t, 5)
	_, err := log.db.Exec(`INSERT INTO activity (op, created_at) VALUES ('navigate', 'yesterday')`)
	require.NoError(t, err)

	_, err = log.Recent(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning activity")
}
