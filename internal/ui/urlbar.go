package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/stackbrowse/internal/theme"
)

// URLBar is the address input at the top of the screen. When idle it shows
// the current page URL.
type URLBar struct {
	input  textinput.Model
	active bool
	width  int
	url    string
	canBk  bool
	canFwd bool
}

// NewURLBar creates a new URL bar.
func NewURLBar() URLBar {
	ti := textinput.New()
	ti.Placeholder = "Enter a URL, e.g. https://go.dev"
	ti.CharLimit = 2048
	ti.Width = 60
	ti.Prompt = ""

	return URLBar{
		input: ti,
	}
}

// SetWidth updates the URL bar width.
func (u *URLBar) SetWidth(w int) {
	u.width = w
	u.input.Width = w - 14 // prompt, arrows and padding
}

// SetPage shows url as the idle address and updates the arrow hints.
func (u *URLBar) SetPage(url string, canGoBack, canGoForward bool) {
	u.url = url
	u.canBk = canGoBack
	u.canFwd = canGoForward
}

// Focus activates the URL bar for input.
func (u *URLBar) Focus() tea.Cmd {
	u.active = true
	u.input.Reset()
	return u.input.Focus()
}

// Blur deactivates the URL bar.
func (u *URLBar) Blur() {
	u.active = false
	u.input.Blur()
}

// IsActive reports whether the URL bar is focused.
func (u *URLBar) IsActive() bool {
	return u.active
}

// Value returns the current input text.
func (u *URLBar) Value() string {
	return u.input.Value()
}

// SetValue sets the input text.
func (u *URLBar) SetValue(s string) {
	u.input.SetValue(s)
}

// Update handles messages for the URL bar.
func (u *URLBar) Update(msg tea.Msg) (*URLBar, tea.Cmd) {
	if !u.active {
		return u, nil
	}
	var cmd tea.Cmd
	u.input, cmd = u.input.Update(msg)
	return u, cmd
}

// View renders the URL bar.
func (u *URLBar) View() string {
	t := theme.Current

	border := t.Border
	fg := t.TextDim
	if u.active {
		border = t.BorderFocus
		fg = t.Text
	}

	barStyle := lipgloss.NewStyle().
		Foreground(fg).
		Background(t.Surface).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(u.width - 2)

	enabled := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	disabled := lipgloss.NewStyle().Foreground(t.Border)

	back, fwd := disabled.Render("←"), disabled.Render("→")
	if u.canBk {
		back = enabled.Render("←")
	}
	if u.canFwd {
		fwd = enabled.Render("→")
	}

	var field string
	if u.active {
		field = u.input.View()
	} else {
		field = lipgloss.NewStyle().Foreground(t.Link).Render(Truncate(u.url, max(u.width-14, 1)))
	}

	return barStyle.Render(back + " " + fwd + "  " + field)
}
