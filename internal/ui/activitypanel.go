package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/stackbrowse/internal/storage"
	"github.com/vidyasagar/stackbrowse/internal/theme"
)

// ActivityPanel lists recent activity, newest first.
type ActivityPanel struct {
	entries []storage.Entry
	width   int
	height  int
}

// NewActivityPanel creates an empty activity panel.
func NewActivityPanel() ActivityPanel {
	return ActivityPanel{}
}

// SetEntries replaces the listed entries.
func (ap *ActivityPanel) SetEntries(entries []storage.Entry) {
	ap.entries = entries
}

// Entries returns the listed entries.
func (ap *ActivityPanel) Entries() []storage.Entry {
	return ap.entries
}

// SetSize updates the panel dimensions.
func (ap *ActivityPanel) SetSize(w, h int) {
	ap.width = w
	ap.height = h
}

// Icon returns the marker shown for an entry.
func Icon(e storage.Entry) string {
	switch {
	case !e.OK:
		return "✗"
	case e.Op == "back":
		return "←"
	case e.Op == "forward":
		return "→"
	default:
		return "✓"
	}
}

// View renders the panel.
func (ap *ActivityPanel) View() string {
	t := theme.Current

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		Background(t.Surface).
		Width(ap.width).
		Padding(0, 1).
		Render("Activity")

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n")

	if len(ap.entries) == 0 {
		sb.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Padding(0, 1).Render("No activity yet."))
		return sb.String()
	}

	lines := max(ap.height-1, 1)
	msgWidth := max(ap.width-4, 10)
	for i, e := range ap.entries {
		if i >= lines {
			break
		}
		iconStyle := lipgloss.NewStyle().Foreground(t.Success)
		if !e.OK {
			iconStyle = iconStyle.Foreground(t.Error)
		} else if e.Op == "reset" {
			iconStyle = iconStyle.Foreground(t.Warning)
		}
		ago := lipgloss.NewStyle().Foreground(t.TextDim).Render(e.Ago())
		msg := lipgloss.NewStyle().Foreground(t.Text).Render(Truncate(e.Message, msgWidth-lipgloss.Width(ago)-1))

		sb.WriteString(" ")
		sb.WriteString(iconStyle.Render(Icon(e)))
		sb.WriteString(" ")
		sb.WriteString(msg)
		sb.WriteString(" ")
		sb.WriteString(ago)
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}
