package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/stackbrowse/internal/browser"
	"github.com/vidyasagar/stackbrowse/internal/theme"
)

// Direction tells which stack a panel row belongs to.
type Direction int

const (
	DirBack Direction = iota
	DirForward
)

func (d Direction) String() string {
	if d == DirForward {
		return "forward"
	}
	return "back"
}

// StackRow is one selectable page in the stacks panel. Steps is how many
// Back or Forward operations reach it.
type StackRow struct {
	Page  browser.Page
	Dir   Direction
	Steps int
}

// StackPanel lists the back and forward stacks with vim-style navigation.
// Forward rows come first, then back rows, each most-recent-first.
type StackPanel struct {
	rows     []StackRow
	nForward int
	current  browser.Page
	cursor   int
	offset   int
	width    int
	height   int
	visible  bool
	lastGKey bool
}

// NewStackPanel creates a new stacks panel.
func NewStackPanel() StackPanel {
	return StackPanel{current: browser.Blank}
}

// SetSnapshot replaces the panel rows with the stacks in snap. The cursor is
// kept in range.
func (sp *StackPanel) SetSnapshot(snap browser.Snapshot) {
	sp.current = snap.CurrentPage
	sp.rows = make([]StackRow, 0, len(snap.ForwardStack)+len(snap.BackStack))
	for i, p := range snap.ForwardStack {
		sp.rows = append(sp.rows, StackRow{Page: p, Dir: DirForward, Steps: i + 1})
	}
	sp.nForward = len(snap.ForwardStack)
	for i, p := range snap.BackStack {
		sp.rows = append(sp.rows, StackRow{Page: p, Dir: DirBack, Steps: i + 1})
	}

	if sp.cursor >= len(sp.rows) {
		sp.cursor = max(len(sp.rows)-1, 0)
	}
	sp.ensureVisible()
}

// Rows returns the panel rows in display order.
func (sp *StackPanel) Rows() []StackRow {
	return sp.rows
}

// SetSize updates the panel dimensions.
func (sp *StackPanel) SetSize(w, h int) {
	sp.width = w
	sp.height = h
	sp.ensureVisible()
}

// Show makes the panel visible.
func (sp *StackPanel) Show() {
	sp.visible = true
	sp.cursor = 0
	sp.offset = 0
	sp.lastGKey = false
}

// Hide closes the panel.
func (sp *StackPanel) Hide() {
	sp.visible = false
	sp.lastGKey = false
}

// IsVisible reports whether the panel is shown.
func (sp *StackPanel) IsVisible() bool {
	return sp.visible
}

// Toggle switches visibility.
func (sp *StackPanel) Toggle() {
	if sp.visible {
		sp.Hide()
	} else {
		sp.Show()
	}
}

// CursorUp moves the cursor up one row.
func (sp *StackPanel) CursorUp() {
	sp.lastGKey = false
	if sp.cursor > 0 {
		sp.cursor--
		sp.ensureVisible()
	}
}

// CursorDown moves the cursor down one row.
func (sp *StackPanel) CursorDown() {
	sp.lastGKey = false
	if sp.cursor < len(sp.rows)-1 {
		sp.cursor++
		sp.ensureVisible()
	}
}

// GotoTop moves to the first row.
func (sp *StackPanel) GotoTop() {
	sp.lastGKey = false
	sp.cursor = 0
	sp.offset = 0
}

// GotoBottom moves to the last row.
func (sp *StackPanel) GotoBottom() {
	sp.lastGKey = false
	if len(sp.rows) > 0 {
		sp.cursor = len(sp.rows) - 1
		sp.ensureVisible()
	}
}

// HandleGKey handles "g". It returns true when "gg" completes.
func (sp *StackPanel) HandleGKey() bool {
	if sp.lastGKey {
		sp.GotoTop()
		return true
	}
	sp.lastGKey = true
	return false
}

// ResetGKey clears a pending "g".
func (sp *StackPanel) ResetGKey() {
	sp.lastGKey = false
}

// Selected returns the row under the cursor.
func (sp *StackPanel) Selected() (StackRow, bool) {
	if sp.cursor < 0 || sp.cursor >= len(sp.rows) {
		return StackRow{}, false
	}
	return sp.rows[sp.cursor], true
}

// Cursor returns the cursor index.
func (sp *StackPanel) Cursor() int {
	return sp.cursor
}

// visibleCount is how many rows fit. Each row takes two lines and the
// three section headers plus the current line take five.
func (sp *StackPanel) visibleCount() int {
	return max((sp.height-5)/2, 1)
}

func (sp *StackPanel) ensureVisible() {
	visible := sp.visibleCount()
	if sp.cursor < sp.offset {
		sp.offset = sp.cursor
	}
	if sp.cursor >= sp.offset+visible {
		sp.offset = sp.cursor - visible + 1
	}
	if sp.offset < 0 {
		sp.offset = 0
	}
}

// View renders the panel.
func (sp *StackPanel) View() string {
	if !sp.visible {
		return ""
	}

	t := theme.Current

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Background(t.Surface).
		Width(sp.width).
		Padding(0, 1)
	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Padding(0, 1)
	currentStyle := lipgloss.NewStyle().
		Foreground(t.TextBright).
		Bold(true).
		Width(sp.width).
		Padding(0, 1)

	var sb strings.Builder

	sb.WriteString(headerStyle.Foreground(t.ForwardStack).Render(fmt.Sprintf("→ Forward (%d)", sp.nForward)))
	sb.WriteString("\n")

	visible := sp.visibleCount()
	end := min(sp.offset+visible, len(sp.rows))

	if sp.nForward == 0 {
		sb.WriteString(dimStyle.Render("empty"))
		sb.WriteString("\n")
	}
	for i := sp.offset; i < end && i < sp.nForward; i++ {
		sb.WriteString(sp.renderRow(i))
	}

	sb.WriteString(currentStyle.Render("● " + Truncate(sp.current.Title, MaxTitleWidth)))
	sb.WriteString("\n")

	sb.WriteString(headerStyle.Foreground(t.BackStack).Render(fmt.Sprintf("← Back (%d)", len(sp.rows)-sp.nForward)))
	sb.WriteString("\n")
	if len(sp.rows) == sp.nForward {
		sb.WriteString(dimStyle.Render("empty"))
		sb.WriteString("\n")
	}
	for i := max(sp.offset, sp.nForward); i < end; i++ {
		sb.WriteString(sp.renderRow(i))
	}

	hint := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Italic(true).
		Padding(0, 1).
		Render("j/k:move  Enter:jump  Esc:close")
	sb.WriteString("\n")
	sb.WriteString(hint)

	return lipgloss.NewStyle().
		Width(sp.width).
		Height(sp.height).
		Background(t.Background).
		Render(sb.String())
}

func (sp *StackPanel) renderRow(i int) string {
	t := theme.Current
	row := sp.rows[i]

	titleStyle := lipgloss.NewStyle().Foreground(t.Text).Width(sp.width).Padding(0, 1)
	urlStyle := lipgloss.NewStyle().Foreground(t.TextDim).Width(sp.width).Padding(0, 1)
	marker := "  "
	if i == sp.cursor {
		titleStyle = titleStyle.Foreground(t.TextBright).Background(t.Selected).Bold(true)
		urlStyle = urlStyle.Foreground(t.Link).Background(t.Selected)
		marker = "▸ "
	}

	title := Truncate(row.Page.Title, MaxTitleWidth)
	url := Truncate(row.Page.URL, MaxURLWidth)
	return titleStyle.Render(marker+title) + "\n" +
		urlStyle.Render(fmt.Sprintf("  %s  %s %d", url, row.Dir, row.Steps)) + "\n"
}
