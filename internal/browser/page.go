package browser

// Page is a visited location. Pages compare by value: two pages with the same
// URL and title are the same page.
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Blank is the page shown by a fresh or reset engine.
var Blank = Page{URL: "about:blank", Title: "New Tab"}

// IsBlank reports whether p shows the blank URL, whatever its title.
func (p Page) IsBlank() bool {
	return p.URL == Blank.URL
}

// Snapshot is the full observable state of an engine at one instant.
// Stacks are most-recent-first and owned by the caller.
type Snapshot struct {
	CurrentPage  Page   `json:"currentPage"`
	BackStack    []Page `json:"backStack"`
	ForwardStack []Page `json:"forwardStack"`
	BackCount    int    `json:"backCount"`
	ForwardCount int    `json:"forwardCount"`
	TotalVisited int    `json:"totalVisited"`
}

// CanGoBack reports whether the snapshot has back history.
func (s Snapshot) CanGoBack() bool {
	return s.BackCount > 0
}

// CanGoForward reports whether the snapshot has forward history.
func (s Snapshot) CanGoForward() bool {
	return s.ForwardCount > 0
}
