package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/vidyasagar/stackbrowse/internal/browser"
	"github.com/vidyasagar/stackbrowse/internal/theme"
)

// Cached glamour renderer, rebuilt when the width or style changes.
var (
	cachedRenderer      *glamour.TermRenderer
	cachedRendererWidth int
	cachedRendererStyle string
	rendererMu          sync.Mutex
)

// RenderMarkdown renders md for the terminal at the given wrap width using
// the current theme's glamour style.
func RenderMarkdown(md string, width int) (string, error) {
	rendererMu.Lock()
	defer rendererMu.Unlock()

	style := theme.Current.Glamour
	if style == "" {
		style = "dark"
	}

	if cachedRenderer == nil || cachedRendererWidth != width || cachedRendererStyle != style {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
		cachedRenderer = r
		cachedRendererWidth = width
		cachedRendererStyle = style
	}

	return cachedRenderer.Render(md)
}

// PageCard describes the current page of snap as markdown.
func PageCard(snap browser.Snapshot) string {
	var md strings.Builder
	page := snap.CurrentPage

	if page.IsBlank() {
		md.WriteString("# " + page.Title + "\n\n")
		md.WriteString("Nothing open yet. Press `o` to open a URL.\n\n")
	} else {
		md.WriteString("# " + page.Title + "\n\n")
		md.WriteString("`" + page.URL + "`\n\n")
	}

	md.WriteString("---\n\n")
	fmt.Fprintf(&md, "- **Back:** %s\n", Plural(snap.BackCount, "page"))
	fmt.Fprintf(&md, "- **Forward:** %s\n", Plural(snap.ForwardCount, "page"))
	fmt.Fprintf(&md, "- **Visited:** %s\n\n", Plural(snap.TotalVisited, "page"))

	if prev, ok := first(snap.BackStack); ok {
		fmt.Fprintf(&md, "`H` goes back to *%s*\n\n", Truncate(prev.Title, MaxTitleWidth))
	}
	if next, ok := first(snap.ForwardStack); ok {
		fmt.Fprintf(&md, "`L` goes forward to *%s*\n\n", Truncate(next.Title, MaxTitleWidth))
	}
	return md.String()
}

func first(pages []browser.Page) (browser.Page, bool) {
	if len(pages) == 0 {
		return browser.Page{}, false
	}
	return pages[0], true
}

// PageView is a scrollable area showing rendered markdown.
type PageView struct {
	viewport viewport.Model
	ready    bool
	markdown string
}

// NewPageView creates a page view. Dimensions are set on the first
// WindowSizeMsg.
func NewPageView() PageView {
	return PageView{}
}

// SetSize updates the view dimensions and re-renders the content.
func (pv *PageView) SetSize(width, height int) {
	if !pv.ready {
		pv.viewport = viewport.New(width, height)
		pv.viewport.MouseWheelEnabled = true
		pv.viewport.MouseWheelDelta = 3
		pv.ready = true
	} else {
		pv.viewport.Width = width
		pv.viewport.Height = height
	}
	if pv.markdown != "" {
		pv.render()
	}
}

// SetMarkdown replaces the content and scrolls to the top.
func (pv *PageView) SetMarkdown(md string) {
	pv.markdown = md
	if !pv.ready {
		return
	}
	pv.render()
	pv.viewport.GotoTop()
}

// Markdown returns the unrendered content.
func (pv *PageView) Markdown() string {
	return pv.markdown
}

// Refresh re-renders the content, e.g. after a theme change.
func (pv *PageView) Refresh() {
	if pv.ready && pv.markdown != "" {
		pv.render()
	}
}

func (pv *PageView) render() {
	width := min(max(pv.viewport.Width-4, 20), 100)
	out, err := RenderMarkdown(pv.markdown, width)
	if err != nil {
		out = pv.markdown
	}
	pv.viewport.SetContent(out)
}

// Update forwards messages to the viewport.
func (pv *PageView) Update(msg tea.Msg) (*PageView, tea.Cmd) {
	if !pv.ready {
		return pv, nil
	}
	var cmd tea.Cmd
	pv.viewport, cmd = pv.viewport.Update(msg)
	return pv, cmd
}

// View renders the viewport.
func (pv *PageView) View() string {
	if !pv.ready {
		return "\n  Initializing..."
	}
	return pv.viewport.View()
}

// LineDown scrolls down n lines.
func (pv *PageView) LineDown(n int) {
	if pv.ready {
		pv.viewport.LineDown(n)
	}
}

// LineUp scrolls up n lines.
func (pv *PageView) LineUp(n int) {
	if pv.ready {
		pv.viewport.LineUp(n)
	}
}

// GotoTop scrolls to the top.
func (pv *PageView) GotoTop() {
	if pv.ready {
		pv.viewport.GotoTop()
	}
}

// GotoBottom scrolls to the bottom.
func (pv *PageView) GotoBottom() {
	if pv.ready {
		pv.viewport.GotoBottom()
	}
}

// Ready reports whether the view has been sized.
func (pv *PageView) Ready() bool {
	return pv.ready
}
