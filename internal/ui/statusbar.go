package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/stackbrowse/internal/theme"
)

// Mode names shown in the status bar.
const (
	ModeNormal  = "NORMAL"
	ModeInsert  = "INSERT"
	ModeCommand = "COMMAND"
	ModeStacks  = "STACKS"
	ModeConfirm = "CONFIRM"
)

// StatusBar shows the mode, the current title and the stack counters.
type StatusBar struct {
	mode         string
	title        string
	message      string
	isError      bool
	busy         bool
	backCount    int
	forwardCount int
	totalVisited int
	remote       string
	width        int
}

// NewStatusBar creates a new status bar.
func NewStatusBar() StatusBar {
	return StatusBar{mode: ModeNormal}
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// SetMode sets the current mode indicator.
func (s *StatusBar) SetMode(mode string) {
	s.mode = mode
}

// Mode returns the current mode indicator.
func (s *StatusBar) Mode() string {
	return s.mode
}

// SetTitle updates the page title.
func (s *StatusBar) SetTitle(title string) {
	s.title = title
}

// SetCounts updates the back, forward and visited counters.
func (s *StatusBar) SetCounts(back, forward, total int) {
	s.backCount = back
	s.forwardCount = forward
	s.totalVisited = total
}

// SetRemote marks the bar as driving the server at addr. Empty means local.
func (s *StatusBar) SetRemote(addr string) {
	s.remote = addr
}

// SetBusy shows a pending indicator while an operation is in flight.
func (s *StatusBar) SetBusy(busy bool) {
	s.busy = busy
}

// SetMessage sets a temporary status message.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
	s.isError = false
}

// SetError sets a temporary error message.
func (s *StatusBar) SetError(msg string) {
	s.message = msg
	s.isError = true
}

// Message returns the temporary message, if any.
func (s *StatusBar) Message() string {
	return s.message
}

// ClearMessage drops the temporary message.
func (s *StatusBar) ClearMessage() {
	s.message = ""
	s.isError = false
}

func (s *StatusBar) modeStyle() lipgloss.Style {
	t := theme.Current
	st := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(t.Background)

	switch s.mode {
	case ModeNormal:
		return st.Background(t.Primary)
	case ModeInsert:
		return st.Background(t.Success)
	case ModeCommand:
		return st.Background(t.Accent)
	case ModeStacks:
		return st.Background(t.Secondary)
	case ModeConfirm:
		return st.Background(t.Warning)
	default:
		return st.Background(t.Secondary)
	}
}

// Counters renders the right-hand counter text.
func (s *StatusBar) Counters() string {
	return fmt.Sprintf("← %d  → %d  %s", s.backCount, s.forwardCount, Plural(s.totalVisited, "visit"))
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := theme.Current

	mode := s.modeStyle().Render(s.mode)

	var left string
	switch {
	case s.busy:
		left = lipgloss.NewStyle().
			Foreground(t.Warning).
			Background(t.Surface).
			Bold(true).
			Padding(0, 1).
			Render("working...")
	case s.message != "":
		fg := t.Info
		if s.isError {
			fg = t.Error
		}
		left = lipgloss.NewStyle().
			Foreground(fg).
			Background(t.Surface).
			Padding(0, 1).
			Render(s.message)
	case s.title != "":
		left = lipgloss.NewStyle().
			Foreground(t.Text).
			Background(t.Surface).
			Padding(0, 1).
			Render(Truncate(s.title, MaxTitleWidth))
	}

	rightStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface).
		Padding(0, 1)

	right := ""
	if s.remote != "" {
		right += rightStyle.Foreground(t.Accent).Render("⇄ " + s.remote)
	}
	right += rightStyle.Bold(true).Foreground(t.Secondary).Render(s.Counters())

	spacerWidth := s.width - lipgloss.Width(mode) - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 0 {
		spacerWidth = 0
	}
	spacer := lipgloss.NewStyle().
		Background(t.Surface).
		Render(strings.Repeat(" ", spacerWidth))

	return lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface).
		Render(mode + left + spacer + right)
}
