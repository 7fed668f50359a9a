// Package client drives a remote stackbrowse server over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vidyasagar/stackbrowse/internal/browser"
	"github.com/vidyasagar/stackbrowse/internal/server"
)

const (
	defaultTimeout   = 10 * time.Second
	maxBodySize      = 1 << 20
	defaultUserAgent = "stackbrowse/0.1"
)

// SharedTransport is a tuned HTTP transport shared by all clients.
var SharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:          20,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	ResponseHeaderTimeout: 10 * time.Second,
}

// APIError is a failure reported by the server.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func (e *APIError) Error() string {
	if e.kind != nil {
		return fmt.Sprintf("%s (%d): %v", e.Message, e.StatusCode, e.kind)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

// Unwrap lets errors.Is match browser.ErrNoHistory and
// browser.ErrInvalidInput.
func (e *APIError) Unwrap() error {
	return e.kind
}

// Client talks to one server.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
}

// New creates a client for the server at baseURL, e.g.
// "http://127.0.0.1:8000". A nil httpClient selects a default one using
// SharedTransport.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server url %q has no host", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: SharedTransport, Timeout: defaultTimeout}
	}
	return &Client{base: u, http: httpClient, userAgent: defaultUserAgent}, nil
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Navigate asks the server to navigate to rawURL.
func (c *Client) Navigate(ctx context.Context, rawURL, title string) (browser.Snapshot, error) {
	return c.snapshot(ctx, http.MethodPost, "/api/navigate", server.NavigateRequest{URL: rawURL, Title: title})
}

// Back asks the server to step back.
func (c *Client) Back(ctx context.Context) (browser.Snapshot, error) {
	return c.snapshot(ctx, http.MethodPost, "/api/back", nil)
}

// Forward asks the server to step forward.
func (c *Client) Forward(ctx context.Context) (browser.Snapshot, error) {
	return c.snapshot(ctx, http.MethodPost, "/api/forward", nil)
}

// Reset asks the server to clear its history.
func (c *Client) Reset(ctx context.Context) (browser.Snapshot, error) {
	return c.snapshot(ctx, http.MethodPost, "/api/reset", nil)
}

// Status fetches the server state.
func (c *Client) Status(ctx context.Context) (browser.Snapshot, error) {
	return c.snapshot(ctx, http.MethodGet, "/api/status", nil)
}

// Activity fetches up to limit activity entries, newest first.
func (c *Client) Activity(ctx context.Context, limit int) ([]server.ActivityItem, error) {
	path := "/api/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return resp.Activity, nil
}

func (c *Client) snapshot(ctx context.Context, method, path string, body any) (browser.Snapshot, error) {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return browser.Snapshot{}, err
	}
	if resp.Snapshot == nil {
		return browser.Snapshot{}, fmt.Errorf("%s %s: response has no snapshot", method, path)
	}
	return *resp.Snapshot, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*server.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	var resp server.Response
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBodySize)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding %s response (%d): %w", path, res.StatusCode, err)
	}

	if res.StatusCode != http.StatusOK || resp.Status != server.StatusSuccess {
		return nil, &APIError{StatusCode: res.StatusCode, Message: resp.Message, kind: kindFor(res.StatusCode)}
	}
	return &resp, nil
}

func kindFor(code int) error {
	switch code {
	case http.StatusBadRequest:
		return browser.ErrInvalidInput
	case http.StatusConflict:
		return browser.ErrNoHistory
	default:
		return nil
	}
}
