package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidyasagar/stackbrowse/internal/browser"
	"github.com/vidyasagar/stackbrowse/internal/server"
	"github.com/vidyasagar/stackbrowse/internal/storage"
	"github.com/vidyasagar/stackbrowse/internal/theme"
	"github.com/vidyasagar/stackbrowse/internal/ui"
)

const (
	opTimeout     = 10 * time.Second
	activityShown = 10
)

// opRefresh is the front-end-only status refresh.
const opRefresh = "refresh"

// snapshotMsg carries the result of one history operation.
type snapshotMsg struct {
	op   string
	snap browser.Snapshot
	err  error
}

// activityMsg carries freshly loaded activity entries.
type activityMsg struct {
	entries []storage.Entry
	err     error
}

// activityNoteMsg reports the result of an :activity command.
type activityNoteMsg struct {
	text string
	err  error
}

// run performs fn off the update loop and reports the result as a
// snapshotMsg.
func (m Model) run(op string, fn func(ctx context.Context) (browser.Snapshot, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		snap, err := fn(ctx)
		return snapshotMsg{op: op, snap: snap, err: err}
	}
}

func (m Model) navigate(url, title string) tea.Cmd {
	return m.run(string(browser.OpNavigate), func(ctx context.Context) (browser.Snapshot, error) {
		return m.nav.Navigate(ctx, url, title)
	})
}

func (m Model) back() tea.Cmd {
	return m.run(string(browser.OpBack), m.nav.Back)
}

func (m Model) forward() tea.Cmd {
	return m.run(string(browser.OpForward), m.nav.Forward)
}

func (m Model) reset() tea.Cmd {
	return m.run(string(browser.OpReset), m.nav.Reset)
}

// refresh re-reads the state and notes the refresh in a local activity log.
func (m Model) refresh() tea.Cmd {
	activity, logger := m.activity, m.logger
	return m.run(opRefresh, func(ctx context.Context) (browser.Snapshot, error) {
		snap, err := m.nav.Status(ctx)
		if err != nil {
			return snap, err
		}
		if r, ok := activity.(recorder); ok {
			err := r.Record(storage.Entry{
				Op:      opRefresh,
				URL:     snap.CurrentPage.URL,
				Title:   snap.CurrentPage.Title,
				OK:      true,
				Message: "Status refreshed",
			})
			if err != nil {
				logger.Warn("recording activity", "err", err)
			}
		}
		return snap, nil
	})
}

// jump applies steps Back or Forward operations in one command. It stops at
// the first failure.
func (m Model) jump(dir ui.Direction, steps int) tea.Cmd {
	op, step := string(browser.OpBack), m.nav.Back
	if dir == ui.DirForward {
		op, step = string(browser.OpForward), m.nav.Forward
	}
	return m.run(op, func(ctx context.Context) (browser.Snapshot, error) {
		var snap browser.Snapshot
		var err error
		for i := 0; i < steps; i++ {
			if snap, err = step(ctx); err != nil {
				return snap, err
			}
		}
		return snap, nil
	})
}

func (m Model) loadActivity() tea.Cmd {
	if m.activity == nil {
		return nil
	}
	src := m.activity
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		entries, err := src.Recent(ctx, activityShown)
		return activityMsg{entries: entries, err: err}
	}
}

// activityCommand reports the size of a local activity log, or empties it
// when wipe is set.
func (m Model) activityCommand(wipe bool) tea.Cmd {
	src, ok := m.activity.(maintainer)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		if wipe {
			if err := src.Clear(); err != nil {
				return activityNoteMsg{err: err}
			}
			return activityNoteMsg{text: "Activity cleared"}
		}
		n, err := src.Count()
		if err != nil {
			return activityNoteMsg{err: err}
		}
		return activityNoteMsg{text: fmt.Sprintf("Activity: %d of %d entries", n, src.Limit())}
	}
}

// successMessage is the status line text after op succeeds.
func successMessage(op string, snap browser.Snapshot) string {
	switch op {
	case string(browser.OpNavigate):
		return "Navigated to " + ui.Truncate(snap.CurrentPage.Title, ui.MaxTitleWidth)
	case string(browser.OpBack):
		return server.MsgWentBack
	case string(browser.OpForward):
		return server.MsgWentForward
	case string(browser.OpReset):
		return "Browser reset, all history cleared"
	case opRefresh:
		return "Status refreshed"
	default:
		return server.MsgStatus
	}
}

// failureMessage is the status line text after op fails.
func failureMessage(op string, err error) string {
	switch {
	case errors.Is(err, browser.ErrNoHistory) && op == string(browser.OpForward):
		return server.MsgCannotForward
	case errors.Is(err, browser.ErrNoHistory):
		return server.MsgCannotBack
	case errors.Is(err, browser.ErrInvalidInput):
		return "Please enter a valid URL"
	default:
		return fmt.Sprintf("%s failed: %v", op, err)
	}
}

// executeCommand handles :commands.
func (m Model) executeCommand(line string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return m, nil
	}

	switch parts[0] {
	case "q", "quit":
		return m, tea.Quit
	case "o", "open":
		if len(parts) < 2 {
			m.statusBar.SetError("Usage: :open <url> [title]")
			return m, nil
		}
		return m, m.navigate(parts[1], strings.Join(parts[2:], " "))
	case "b", "back":
		return m, m.back()
	case "f", "forward":
		return m, m.forward()
	case "reset":
		return m, m.reset()
	case "s", "status":
		return m, m.run(string(browser.OpStatus), m.nav.Status)
	case "theme":
		if len(parts) > 1 {
			if !theme.Set(parts[1]) {
				m.statusBar.SetError(fmt.Sprintf("Unknown theme: %s (available: %s)", parts[1], strings.Join(theme.List(), ", ")))
				return m, nil
			}
			m.pageView.Refresh()
			m.statusBar.SetMessage("Theme: " + theme.Current.Name)
			return m, nil
		}
		m.statusBar.SetMessage(fmt.Sprintf("Current: %s | Available: %s", theme.Current.Name, strings.Join(theme.List(), ", ")))
	case "activity":
		wipe := len(parts) > 1 && parts[1] == "clear"
		if len(parts) > 1 && !wipe {
			m.statusBar.SetError("Usage: :activity [clear]")
			return m, nil
		}
		cmd := m.activityCommand(wipe)
		if cmd == nil {
			m.statusBar.SetError("Activity is only kept for a local engine")
		}
		return m, cmd
	case "h", "help":
		m.showHelp()
	default:
		m.statusBar.SetError("Unknown command: " + parts[0])
	}
	return m, nil
}
