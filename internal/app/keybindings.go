package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for stackbrowse.
type KeyMap struct {
	// Scrolling
	ScrollDown key.Binding
	ScrollUp   key.Binding
	GotoTop    key.Binding
	GotoBottom key.Binding

	// History
	OpenURL key.Binding
	Back    key.Binding
	Forward key.Binding
	Refresh key.Binding
	Reset   key.Binding
	Stacks  key.Binding
	Jump    key.Binding

	// Modes
	CommandMode key.Binding
	Close       key.Binding

	// Actions
	Theme key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the default vim-style keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "scroll down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "scroll up"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("gg", "go to top"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "go to bottom"),
		),
		OpenURL: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open URL"),
		),
		Back: key.NewBinding(
			key.WithKeys("H", "left"),
			key.WithHelp("H", "go back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("L", "right"),
			key.WithHelp("L", "go forward"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh status"),
		),
		Reset: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "reset history"),
		),
		Stacks: key.NewBinding(
			key.WithKeys("a", "ctrl+h"),
			key.WithHelp("a/Ctrl+h", "toggle stacks panel"),
		),
		Jump: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "jump to page"),
		),
		CommandMode: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command mode"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close"),
		),
		Theme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "cycle theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// commandHelp lists the : commands for the help page.
var commandHelp = []struct{ cmd, desc string }{
	{":open <url> [title]", "Navigate to a URL"},
	{":back", "Go back"},
	{":forward", "Go forward"},
	{":reset", "Clear all history"},
	{":status", "Refresh the current state"},
	{":theme [name]", "Show or change the theme"},
	{":activity [clear]", "Show the activity log size, or empty it"},
	{":help", "Show this help"},
	{":quit", "Quit"},
}

// helpMarkdown renders the keymap as a markdown page.
func (k KeyMap) helpMarkdown() string {
	var md strings.Builder
	md.WriteString("# stackbrowse keybindings\n\n")

	sections := []struct {
		name     string
		bindings []key.Binding
	}{
		{"History", []key.Binding{k.OpenURL, k.Back, k.Forward, k.Refresh, k.Reset, k.Stacks}},
		{"Scrolling", []key.Binding{k.ScrollDown, k.ScrollUp, k.GotoTop, k.GotoBottom}},
		{"Stacks panel", []key.Binding{k.Jump, k.Close}},
		{"Other", []key.Binding{k.CommandMode, k.Theme, k.Help, k.Quit}},
	}

	for _, s := range sections {
		md.WriteString("## " + s.name + "\n\n")
		md.WriteString("| Key | Action |\n|---|---|\n")
		for _, b := range s.bindings {
			h := b.Help()
			fmt.Fprintf(&md, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		md.WriteString("\n")
	}

	md.WriteString("## Commands\n\n| Command | Action |\n|---|---|\n")
	for _, c := range commandHelp {
		fmt.Fprintf(&md, "| `%s` | %s |\n", c.cmd, c.desc)
	}
	md.WriteString("\nPress `?` or `Esc` to return to the page.\n")
	return md.String()
}
