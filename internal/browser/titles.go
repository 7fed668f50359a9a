package browser

import (
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultTitleCacheSize = 256

// Titles remembers the last explicit title given for each URL, so a later
// visit without a title reuses it. Safe for concurrent use.
type Titles struct {
	cache *lru.Cache[string, string]
}

// NewTitles creates a title memory holding up to size URLs.
func NewTitles(size int) *Titles {
	if size <= 0 {
		size = defaultTitleCacheSize
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, string](size)
	return &Titles{cache: cache}
}

// Remember records title for rawURL. Empty titles are ignored.
func (t *Titles) Remember(rawURL, title string) {
	if t == nil || title == "" {
		return
	}
	t.cache.Add(rawURL, title)
}

// Lookup returns the remembered title for rawURL.
func (t *Titles) Lookup(rawURL string) (string, bool) {
	if t == nil {
		return "", false
	}
	return t.cache.Get(rawURL)
}

// Resolve returns title when set, else the remembered title, else one
// derived from the URL.
func (t *Titles) Resolve(rawURL, title string) string {
	if title != "" {
		t.Remember(rawURL, title)
		return title
	}
	if remembered, ok := t.Lookup(rawURL); ok {
		return remembered
	}
	return DeriveTitle(rawURL)
}

// DeriveTitle builds a display title from a URL: the host name when the URL
// carries a scheme, otherwise the URL itself.
func DeriveTitle(rawURL string) string {
	if !strings.Contains(rawURL, "://") {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
