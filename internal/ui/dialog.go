package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vidyasagar/stackbrowse/internal/theme"
)

// DialogChoice is one key a dialog accepts.
type DialogChoice struct {
	Key  string
	Desc string
}

// Dialog is a centered confirmation popup.
type Dialog struct {
	visible bool
	title   string
	body    string
	choices []DialogChoice
}

// NewConfirmDialog creates a yes/no dialog.
func NewConfirmDialog(title, body string) Dialog {
	return Dialog{
		title: title,
		body:  body,
		choices: []DialogChoice{
			{Key: "y", Desc: "Yes"},
			{Key: "n", Desc: "No"},
		},
	}
}

// Show makes the dialog visible.
func (d *Dialog) Show() {
	d.visible = true
}

// Hide closes the dialog.
func (d *Dialog) Hide() {
	d.visible = false
}

// IsVisible reports whether the dialog is shown.
func (d *Dialog) IsVisible() bool {
	return d.visible
}

// View renders the dialog box. Callers place it over the screen.
func (d *Dialog) View() string {
	if !d.visible {
		return ""
	}

	t := theme.Current

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Warning)

	bodyStyle := lipgloss.NewStyle().
		Foreground(t.Text).
		Width(44)

	keyBadgeStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Background).
		Background(t.Secondary).
		Padding(0, 1)

	descStyle := lipgloss.NewStyle().
		Foreground(t.Text)

	separatorStyle := lipgloss.NewStyle().
		Foreground(t.Border)

	var choices []string
	for _, c := range d.choices {
		choices = append(choices, keyBadgeStyle.Render(c.Key)+descStyle.Render(" "+c.Desc))
	}

	body := bodyStyle.Render(d.body)
	rule := separatorStyle.Render(strings.Repeat("─", lipgloss.Width(body)))

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(d.title),
		rule,
		"",
		body,
		"",
		strings.Join(choices, "   "),
	)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Warning).
		Padding(1, 2)

	return boxStyle.Render(content)
}
