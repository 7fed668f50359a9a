package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidyasagar/stackbrowse/internal/browser"
	"github.com/vidyasagar/stackbrowse/internal/storage"
	"github.com/vidyasagar/stackbrowse/internal/theme"
)

type harness struct {
	t      *testing.T
	model  Model
	engine *browser.Engine
	log    *storage.ActivityLog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := storage.OpenDB(storage.MemoryDB)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	activity := storage.NewActivityLog(db, 20)
	engine := browser.NewEngine(browser.WithObserver(activity.Observer(nil)))

	h := &harness{t: t, engine: engine, log: activity}
	h.model = New(Local(engine), Options{Activity: NewLocalActivity(activity)})
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	return h
}

// send delivers msg and runs any operation it triggers to completion.
func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	h.drain(cmd)
}

// drain runs cmd and feeds back only the messages produced by this
// package. Cursor blink and quit commands are left alone.
func (h *harness) drain(cmd tea.Cmd) {
	h.t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			h.drain(c)
		}
	case snapshotMsg, activityMsg, activityNoteMsg:
		h.send(msg)
	}
}

// update delivers msg without running the returned command.
func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) key(s string) {
	h.t.Helper()
	h.send(keyMsg(s))
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) open(url string) {
	h.t.Helper()
	h.update(keyMsg("o"))
	require.Equal(h.t, ModeInsert, h.model.Mode())
	h.typeText(url)
	h.key("enter")
}

func (h *harness) command(line string) tea.Cmd {
	h.t.Helper()
	h.update(keyMsg(":"))
	require.Equal(h.t, ModeCommand, h.model.Mode())
	h.typeText(line)
	next, cmd := h.model.Update(keyMsg("enter"))
	h.model = next.(Model)
	return cmd
}

func TestInitLoadsStatus(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.Navigate("https://go.dev", "")
	require.NoError(t, err)

	h.drain(h.model.Init())
	assert.Equal(t, "https://go.dev", h.model.Snapshot().CurrentPage.URL)
}

func TestInitOpensStartURL(t *testing.T) {
	engine := browser.NewEngine()
	m := New(Local(engine), Options{StartURL: " https://go.dev "})
	msg := m.Init()()
	next, _ := m.Update(msg)
	assert.Equal(t, "go.dev", next.(Model).Snapshot().CurrentPage.Title)
	assert.Equal(t, 1, engine.Status().TotalVisited)
}

func TestOpenBackForward(t *testing.T) {
	h := newHarness(t)

	h.open("https://a.example")
	h.open("https://b.example")
	snap := h.model.Snapshot()
	assert.Equal(t, "https://b.example", snap.CurrentPage.URL)
	assert.Equal(t, "b.example", snap.CurrentPage.Title)
	assert.Equal(t, 1, snap.BackCount)
	assert.Equal(t, ModeNormal, h.model.Mode())

	h.key("H")
	assert.Equal(t, "https://a.example", h.model.Snapshot().CurrentPage.URL)
	assert.Equal(t, "Went back", h.model.statusBar.Message())

	h.key("H")
	assert.Equal(t, "Cannot go back", h.model.statusBar.Message())
	assert.Equal(t, "https://a.example", h.model.Snapshot().CurrentPage.URL)

	h.key("L")
	assert.Equal(t, "https://b.example", h.model.Snapshot().CurrentPage.URL)

	h.key("L")
	assert.Equal(t, "Cannot go forward", h.model.statusBar.Message())
	assert.Equal(t, h.engine.Status(), h.model.Snapshot())
}

func TestEmptyURLIsRejected(t *testing.T) {
	h := newHarness(t)
	h.open("   ")
	assert.Equal(t, "Please enter a valid URL", h.model.statusBar.Message())
	assert.Equal(t, browser.Blank, h.model.Snapshot().CurrentPage)

	entries, err := h.log.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].OK)
}

func TestResetNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.open("https://a.example")
	h.open("https://b.example")

	h.key("X")
	assert.Equal(t, ModeConfirm, h.model.Mode())
	assert.Contains(t, h.model.View(), "Reset browser")
	h.key("n")
	assert.Equal(t, ModeNormal, h.model.Mode())
	assert.Equal(t, "https://b.example", h.model.Snapshot().CurrentPage.URL)

	h.key("X")
	h.key("y")
	snap := h.model.Snapshot()
	assert.Equal(t, browser.Blank, snap.CurrentPage)
	assert.Zero(t, snap.BackCount)
	assert.Zero(t, snap.ForwardCount)
	assert.Equal(t, 2, snap.TotalVisited)
}

func TestCommands(t *testing.T) {
	h := newHarness(t)

	h.drain(h.command("open https://go.dev The Go site"))
	assert.Equal(t, browser.Page{URL: "https://go.dev", Title: "The Go site"}, h.model.Snapshot().CurrentPage)

	h.drain(h.command("open https://pkg.go.dev"))
	h.drain(h.command("back"))
	assert.Equal(t, "https://go.dev", h.model.Snapshot().CurrentPage.URL)
	h.drain(h.command("forward"))
	assert.Equal(t, "https://pkg.go.dev", h.model.Snapshot().CurrentPage.URL)

	h.drain(h.command("status"))
	assert.Equal(t, h.engine.Status(), h.model.Snapshot())

	h.drain(h.command("open"))
	assert.Contains(t, h.model.statusBar.Message(), "Usage")

	h.drain(h.command("bogus"))
	assert.Equal(t, "Unknown command: bogus", h.model.statusBar.Message())

	h.drain(h.command("reset"))
	assert.Equal(t, browser.Blank, h.model.Snapshot().CurrentPage)

	cmd := h.command("quit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestThemeCommand(t *testing.T) {
	h := newHarness(t)
	t.Cleanup(func() { theme.Set("default") })

	h.drain(h.command("theme nord"))
	assert.Equal(t, "nord", theme.Current.Name)
	h.drain(h.command("theme nope"))
	assert.Contains(t, h.model.statusBar.Message(), "Unknown theme: nope")

	h.key("T")
	assert.NotEqual(t, "nord", theme.Current.Name)
}

func TestStacksPanelJump(t *testing.T) {
	h := newHarness(t)
	for _, u := range []string{"a.com", "b.com", "c.com", "d.com"} {
		h.open(u)
	}

	h.key("a")
	require.Equal(t, ModeStacks, h.model.Mode())
	require.Len(t, h.model.stackPanel.Rows(), 3)

	// Rows: c.com (back 1), b.com (back 2), a.com (back 3).
	h.key("j")
	h.key("j")
	h.key("enter")
	snap := h.model.Snapshot()
	assert.Equal(t, "a.com", snap.CurrentPage.URL)
	assert.Equal(t, 3, snap.ForwardCount)
	assert.Zero(t, snap.BackCount)

	// Rows: b.com (forward 1), c.com (forward 2), d.com (forward 3).
	h.key("G")
	h.key("enter")
	assert.Equal(t, "d.com", h.model.Snapshot().CurrentPage.URL)

	h.key("esc")
	assert.Equal(t, ModeNormal, h.model.Mode())
	assert.False(t, h.model.stackPanel.IsVisible())
}

func TestActivityPanelFollowsOperations(t *testing.T) {
	h := newHarness(t)
	h.open("https://go.dev")
	h.key("H")

	entries := h.model.activityPanel.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "back", entries[0].Op)
	assert.False(t, entries[0].OK)
	assert.Equal(t, "navigate", entries[1].Op)

	h.key("r")
	assert.Equal(t, "Status refreshed", h.model.statusBar.Message())
	entries = h.model.activityPanel.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, opRefresh, entries[0].Op)
}

func TestActivityCommand(t *testing.T) {
	h := newHarness(t)
	h.open("https://a.example")
	h.open("https://b.example")

	h.drain(h.command("activity"))
	assert.Equal(t, "Activity: 2 of 20 entries", h.model.statusBar.Message())
	assert.Zero(t, h.model.pending)

	h.drain(h.command("activity clear"))
	assert.Equal(t, "Activity cleared", h.model.statusBar.Message())
	assert.Empty(t, h.model.activityPanel.Entries())
	assert.Zero(t, h.model.pending)
	count, err := h.log.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	h.drain(h.command("activity everything"))
	assert.Equal(t, "Usage: :activity [clear]", h.model.statusBar.Message())
}

// readOnlyActivity lists entries but cannot record or clear them.
type readOnlyActivity struct{}

func (readOnlyActivity) Recent(context.Context, int) ([]storage.Entry, error) {
	return nil, nil
}

func TestActivityCommandNeedsLocalLog(t *testing.T) {
	h := &harness{t: t, engine: browser.NewEngine()}
	h.model = New(Local(h.engine), Options{Activity: readOnlyActivity{}})
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})

	h.drain(h.command("activity clear"))
	assert.Equal(t, "Activity is only kept for a local engine", h.model.statusBar.Message())
	assert.Zero(t, h.model.pending)
}

// failingActivity rejects every recorded entry.
type failingActivity struct {
	readOnlyActivity
}

func (failingActivity) Record(storage.Entry) error {
	return errors.New("disk full")
}

func TestRefreshLogsRecordFailure(t *testing.T) {
	var buf bytes.Buffer
	h := &harness{t: t, engine: browser.NewEngine()}
	h.model = New(Local(h.engine), Options{Activity: failingActivity{}, Logger: log.New(&buf)})
	h.send(tea.WindowSizeMsg{Width: 100, Height: 40})

	h.key("r")
	assert.Equal(t, "Status refreshed", h.model.statusBar.Message())
	assert.Contains(t, buf.String(), "recording activity")
	assert.Contains(t, buf.String(), "disk full")
}

func TestHelpToggle(t *testing.T) {
	h := newHarness(t)
	h.key("?")
	assert.True(t, h.model.showingHelp)
	assert.Contains(t, h.model.pageView.Markdown(), "stackbrowse keybindings")
	assert.Contains(t, h.model.pageView.Markdown(), ":open <url> [title]")

	h.key("esc")
	assert.False(t, h.model.showingHelp)
	assert.Contains(t, h.model.pageView.Markdown(), browser.Blank.Title)
}

func TestViewLayout(t *testing.T) {
	h := newHarness(t)
	h.open("https://go.dev")
	view := h.model.View()
	assert.Contains(t, view, "https://go.dev")
	assert.Contains(t, view, "NORMAL")
	assert.Contains(t, view, "Activity")
	assert.True(t, strings.Contains(view, "1 visit"))
}

func TestQuitKeys(t *testing.T) {
	h := newHarness(t)
	cmd := h.update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	cmd = h.update(keyMsg("ctrl+c"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
