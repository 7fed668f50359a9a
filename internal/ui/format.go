package ui

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"
)

// Display limits for stack entries.
const (
	MaxTitleWidth = 40
	MaxURLWidth   = 50
)

// Truncate shortens s to n cells, marking the cut with "...".
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= n {
		return s
	}
	return ansi.Truncate(s, n, "...")
}

// Plural formats a count with its noun, e.g. "1 page", "3 pages".
func Plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
