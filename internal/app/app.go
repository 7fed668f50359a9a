package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/vidyasagar/stackbrowse/internal/browser"
	"github.com/vidyasagar/stackbrowse/internal/theme"
	"github.com/vidyasagar/stackbrowse/internal/ui"
)

// Mode represents the current input mode.
type Mode int

const (
	ModeNormal  Mode = iota
	ModeInsert       // URL bar focused
	ModeCommand      // command bar active
	ModeStacks       // stacks panel focused
	ModeConfirm      // reset confirmation shown
)

func (m Mode) label() string {
	switch m {
	case ModeInsert:
		return ui.ModeInsert
	case ModeCommand:
		return ui.ModeCommand
	case ModeStacks:
		return ui.ModeStacks
	case ModeConfirm:
		return ui.ModeConfirm
	default:
		return ui.ModeNormal
	}
}

const (
	urlBarHeight   = 3 // border adds height
	statusHeight   = 1
	activityHeight = 7
)

// Options configures a Model.
type Options struct {
	// Activity, when set, feeds the activity panel.
	Activity ActivitySource
	// Logger receives operation logs. Nil discards them.
	Logger *log.Logger
	// StartURL is opened on startup when non-empty.
	StartURL string
	// Remote is the server address shown in the status bar.
	Remote string
}

// Model is the top-level bubbletea model for stackbrowse.
type Model struct {
	// UI components
	urlBar        ui.URLBar
	statusBar     ui.StatusBar
	commandBar    ui.CommandBar
	stackPanel    ui.StackPanel
	activityPanel ui.ActivityPanel
	pageView      ui.PageView
	confirm       ui.Dialog

	nav      Navigator
	activity ActivitySource
	logger   *log.Logger
	keys     KeyMap

	snap        browser.Snapshot
	mode        Mode
	width       int
	height      int
	ready       bool
	lastGKey    bool // for "gg" detection
	showingHelp bool
	pending     int
	startURL    string
}

// New creates a Model driving nav.
func New(nav Navigator, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m := Model{
		urlBar:        ui.NewURLBar(),
		statusBar:     ui.NewStatusBar(),
		commandBar:    ui.NewCommandBar(),
		stackPanel:    ui.NewStackPanel(),
		activityPanel: ui.NewActivityPanel(),
		pageView:      ui.NewPageView(),
		confirm:       ui.NewConfirmDialog("Reset browser", "Are you sure you want to reset all browsing history? This action cannot be undone."),
		nav:           nav,
		activity:      opts.Activity,
		logger:        logger,
		keys:          DefaultKeyMap(),
		mode:          ModeNormal,
		startURL:      strings.TrimSpace(opts.StartURL),
		snap:          browser.Snapshot{CurrentPage: browser.Blank},
	}
	m.statusBar.SetRemote(opts.Remote)
	m.applySnapshot(m.snap)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.startURL != "" {
		return m.navigate(m.startURL, "")
	}
	return m.run(string(browser.OpStatus), m.nav.Status)
}

// Snapshot returns the last state received from the navigator.
func (m Model) Snapshot() browser.Snapshot {
	return m.snap
}

// Mode returns the current input mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case snapshotMsg:
		return m.handleSnapshot(msg)

	case activityMsg:
		if msg.err != nil {
			m.logger.Warn("loading activity", "err", msg.err)
			return m, nil
		}
		m.activityPanel.SetEntries(msg.entries)
		return m, nil

	case activityNoteMsg:
		if m.pending > 0 {
			m.pending--
		}
		m.statusBar.SetBusy(m.pending > 0)
		if msg.err != nil {
			m.logger.Warn("activity command failed", "err", msg.err)
			m.statusBar.SetError(fmt.Sprintf("activity failed: %v", msg.err))
			return m, nil
		}
		m.statusBar.SetMessage(msg.text)
		return m, m.loadActivity()

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	if m.mode == ModeNormal {
		pv, c := m.pageView.Update(msg)
		m.pageView = *pv
		cmd = c
	}
	return m, cmd
}

func (m Model) handleSnapshot(msg snapshotMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	m.statusBar.SetBusy(m.pending > 0)

	if msg.err != nil {
		m.logger.Warn("operation failed", "op", msg.op, "err", msg.err)
		m.statusBar.SetError(failureMessage(msg.op, msg.err))
		return m, m.loadActivity()
	}

	m.logger.Info("operation",
		"op", msg.op,
		"url", msg.snap.CurrentPage.URL,
		"back", msg.snap.BackCount,
		"forward", msg.snap.ForwardCount,
		"visited", msg.snap.TotalVisited,
	)
	m.applySnapshot(msg.snap)
	if msg.op != string(browser.OpStatus) {
		m.statusBar.SetMessage(successMessage(msg.op, msg.snap))
	}
	return m, m.loadActivity()
}

// applySnapshot pushes snap into every component that shows state.
func (m *Model) applySnapshot(snap browser.Snapshot) {
	m.snap = snap
	page := snap.CurrentPage
	m.urlBar.SetPage(page.URL, snap.CanGoBack(), snap.CanGoForward())
	m.statusBar.SetTitle(page.Title)
	m.statusBar.SetCounts(snap.BackCount, snap.ForwardCount, snap.TotalVisited)
	m.stackPanel.SetSnapshot(snap)
	m.showingHelp = false
	m.pageView.SetMarkdown(ui.PageCard(snap))
}

func (m *Model) setMode(mode Mode) {
	m.mode = mode
	m.statusBar.SetMode(mode.label())
}

// dispatch marks an operation in flight.
func (m *Model) dispatch(cmd tea.Cmd) tea.Cmd {
	m.pending++
	m.statusBar.SetBusy(true)
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading stackbrowse..."
	}

	// Layout:
	// [url bar]
	// [stacks panel | page view]
	// [activity panel]
	// [status bar]
	// [command bar] (if active)

	var sections []string
	sections = append(sections, m.urlBar.View())

	body := m.pageView.View()
	if m.stackPanel.IsVisible() {
		divider := lipgloss.NewStyle().
			Foreground(theme.Current.Border).
			Render(strings.TrimSuffix(strings.Repeat("│\n", m.contentHeight()), "\n"))
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.stackPanel.View(), divider, body)
	}
	sections = append(sections, body)

	if m.showActivity() {
		sections = append(sections, m.activityPanel.View())
	}

	sections = append(sections, m.statusBar.View())
	if m.commandBar.IsActive() {
		sections = append(sections, m.commandBar.View())
	}

	result := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.confirm.IsVisible() {
		result = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.confirm.View(),
			lipgloss.WithWhitespaceChars(" "),
			lipgloss.WithWhitespaceForeground(theme.Current.Background),
		)
	}
	return result
}

func (m *Model) showActivity() bool {
	return m.activity != nil && m.height >= 20
}

// contentHeight is the height of the stacks panel and page view row.
func (m *Model) contentHeight() int {
	h := m.height - urlBarHeight - statusHeight
	if m.commandBar.IsActive() {
		h--
	}
	if m.showActivity() {
		h -= activityHeight
	}
	return max(h, 1)
}

// layout recalculates dimensions for all components.
func (m *Model) layout() {
	m.urlBar.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.commandBar.SetWidth(m.width)
	m.activityPanel.SetSize(m.width, activityHeight)

	height := m.contentHeight()
	width := m.width
	if m.stackPanel.IsVisible() {
		panelWidth := max(m.width*35/100, 24)
		m.stackPanel.SetSize(panelWidth, height)
		width = m.width - panelWidth - 1 // -1 for divider
	}
	m.pageView.SetSize(max(width, 1), height)
}

// handleKeyMsg processes key events based on current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeInsert:
		return m.handleInsertMode(msg)
	case ModeCommand:
		return m.handleCommandMode(msg)
	case ModeStacks:
		return m.handleStacksMode(msg)
	case ModeConfirm:
		return m.handleConfirmMode(msg)
	default:
		return m.handleNormalMode(msg)
	}
}

// handleNormalMode processes keys in normal mode.
func (m Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() != "g" {
		m.lastGKey = false
	}
	m.statusBar.ClearMessage()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.GotoTop):
		if m.lastGKey {
			m.lastGKey = false
			m.pageView.GotoTop()
			return m, nil
		}
		m.lastGKey = true
		return m, nil

	case key.Matches(msg, m.keys.GotoBottom):
		m.pageView.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.pageView.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.pageView.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keys.OpenURL):
		m.setMode(ModeInsert)
		return m, m.urlBar.Focus()

	case key.Matches(msg, m.keys.Back):
		return m, m.dispatch(m.back())

	case key.Matches(msg, m.keys.Forward):
		return m, m.dispatch(m.forward())

	case key.Matches(msg, m.keys.Refresh):
		return m, m.dispatch(m.refresh())

	case key.Matches(msg, m.keys.Reset):
		m.confirm.Show()
		m.setMode(ModeConfirm)
		return m, nil

	case key.Matches(msg, m.keys.Stacks):
		m.stackPanel.Show()
		m.stackPanel.SetSnapshot(m.snap)
		m.setMode(ModeStacks)
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.CommandMode):
		m.setMode(ModeCommand)
		cmd := m.commandBar.Open()
		m.layout()
		return m, cmd

	case key.Matches(msg, m.keys.Theme):
		name := theme.Cycle()
		m.pageView.Refresh()
		m.statusBar.SetMessage("Theme: " + name)
		return m, nil

	case key.Matches(msg, m.keys.Help):
		if m.showingHelp {
			m.closeHelp()
		} else {
			m.showHelp()
		}
		return m, nil

	case key.Matches(msg, m.keys.Close):
		if m.showingHelp {
			m.closeHelp()
		}
		return m, nil
	}

	return m, nil
}

// handleInsertMode processes keys while the URL bar is focused.
func (m Model) handleInsertMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.urlBar.Blur()
		m.setMode(ModeNormal)
		return m, nil

	case tea.KeyEnter:
		url := strings.TrimSpace(m.urlBar.Value())
		m.urlBar.Blur()
		m.setMode(ModeNormal)
		// An empty URL still goes to the navigator so the failure is logged.
		return m, m.dispatch(m.navigate(url, ""))
	}

	ub, cmd := m.urlBar.Update(msg)
	m.urlBar = *ub
	return m, cmd
}

// handleCommandMode processes keys while the command bar is open.
func (m Model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.commandBar.Close()
		m.setMode(ModeNormal)
		m.layout()
		return m, nil

	case tea.KeyEnter:
		line := m.commandBar.Submit()
		m.setMode(ModeNormal)
		m.layout()
		next, cmd := m.executeCommand(line)
		if cmd != nil {
			nm := next.(Model)
			// :quit returns tea.Quit, which is not an operation.
			if isQuit(line) {
				return nm, cmd
			}
			return nm, nm.dispatch(cmd)
		}
		return next, nil
	}

	cb, cmd := m.commandBar.Update(msg)
	m.commandBar = *cb
	return m, cmd
}

func isQuit(line string) bool {
	f := strings.Fields(line)
	return len(f) > 0 && (f[0] == "q" || f[0] == "quit")
}

// handleStacksMode processes keys while the stacks panel is focused.
func (m Model) handleStacksMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() != "g" {
		m.stackPanel.ResetGKey()
	}

	switch {
	case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.Stacks), msg.String() == "q":
		m.stackPanel.Hide()
		m.setMode(ModeNormal)
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.stackPanel.CursorDown()

	case key.Matches(msg, m.keys.ScrollUp):
		m.stackPanel.CursorUp()

	case key.Matches(msg, m.keys.GotoTop):
		m.stackPanel.HandleGKey()

	case key.Matches(msg, m.keys.GotoBottom):
		m.stackPanel.GotoBottom()

	case key.Matches(msg, m.keys.Back):
		return m, m.dispatch(m.back())

	case key.Matches(msg, m.keys.Forward):
		return m, m.dispatch(m.forward())

	case key.Matches(msg, m.keys.Jump):
		row, ok := m.stackPanel.Selected()
		if !ok {
			return m, nil
		}
		return m, m.dispatch(m.jump(row.Dir, row.Steps))
	}
	return m, nil
}

// handleConfirmMode processes the reset confirmation.
func (m Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		m.confirm.Hide()
		m.setMode(ModeNormal)
		return m, m.dispatch(m.reset())
	case "n", "esc", "q":
		m.confirm.Hide()
		m.setMode(ModeNormal)
		m.statusBar.SetMessage("Reset cancelled")
	}
	return m, nil
}

func (m *Model) showHelp() {
	m.showingHelp = true
	m.pageView.SetMarkdown(m.keys.helpMarkdown())
}

func (m *Model) closeHelp() {
	m.showingHelp = false
	m.pageView.SetMarkdown(ui.PageCard(m.snap))
}
