package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidyasagar/stackbrowse/internal/browser"
	"github.com/vidyasagar/stackbrowse/internal/storage"
)

func do(t *testing.T, h http.Handler, method, path, body string) (int, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp Response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec.Code, resp
}

func TestNavigateBackForwardOverHTTP(t *testing.T) {
	h := New(browser.NewEngine()).Handler()

	code, resp := do(t, h, http.MethodPost, "/api/navigate", `{"url":"a.com","title":"A"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, MsgNavigated, resp.Message)
	require.NotNil(t, resp.Snapshot)
	assert.Equal(t, browser.Page{URL: "a.com", Title: "A"}, resp.CurrentPage)
	assert.Equal(t, 1, resp.TotalVisited)

	do(t, h, http.MethodPost, "/api/navigate", `{"url":"b.com","title":"B"}`)

	code, resp = do(t, h, http.MethodPost, "/api/back", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, MsgWentBack, resp.Message)
	assert.Equal(t, "a.com", resp.CurrentPage.URL)
	assert.Equal(t, 0, resp.BackCount)
	assert.Equal(t, 1, resp.ForwardCount)
	assert.Equal(t, []browser.Page{{URL: "b.com", Title: "B"}}, resp.ForwardStack)

	code, resp = do(t, h, http.MethodPost, "/api/forward", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, MsgWentForward, resp.Message)
	assert.Equal(t, "b.com", resp.CurrentPage.URL)
	assert.Equal(t, 1, resp.BackCount)
	assert.Equal(t, 0, resp.ForwardCount)
}

func TestErrorsAreReportedDistinctly(t *testing.T) {
	h := New(browser.NewEngine()).Handler()

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		code    int
		message string
	}{
		{"back on fresh engine", http.MethodPost, "/api/back", "", http.StatusConflict, MsgCannotBack},
		{"forward on fresh engine", http.MethodPost, "/api/forward", "", http.StatusConflict, MsgCannotForward},
		{"empty url", http.MethodPost, "/api/navigate", `{"url":"","title":"x"}`, http.StatusBadRequest, MsgInvalidInput},
		{"missing body", http.MethodPost, "/api/navigate", "", http.StatusBadRequest, MsgInvalidInput},
		{"malformed body", http.MethodPost, "/api/navigate", `{"url":`, http.StatusBadRequest, MsgMalformed},
		{"unknown route", http.MethodGet, "/api/teleport", "", http.StatusNotFound, MsgNotFound},
		{"wrong method", http.MethodGet, "/api/back", "", http.StatusMethodNotAllowed, MsgNoMethod},
		{"activity disabled", http.MethodGet, "/api/activity", "", http.StatusNotFound, MsgNoActivity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.message, resp.Message)
			assert.Nil(t, resp.Snapshot)
		})
	}

	// Failures leave the state retrievable through status.
	code, resp := do(t, h, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, browser.Blank, resp.CurrentPage)
	assert.Equal(t, 0, resp.TotalVisited)
}

func TestStatusAcceptsPost(t *testing.T) {
	h := New(browser.NewEngine()).Handler()
	code, resp := do(t, h, http.MethodPost, "/api/status", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, MsgStatus, resp.Message)
}

func TestResetOverHTTP(t *testing.T) {
	engine := browser.NewEngine()
	h := New(engine).Handler()
	for _, u := range []string{"a.com", "b.com", "c.com"} {
		do(t, h, http.MethodPost, "/api/navigate", `{"url":"`+u+`"}`)
	}

	code, resp := do(t, h, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, MsgReset, resp.Message)
	assert.Equal(t, browser.Blank, resp.CurrentPage)
	assert.Equal(t, 0, resp.BackCount)
	assert.Equal(t, 0, resp.ForwardCount)
	assert.Equal(t, 3, resp.TotalVisited)
	assert.Equal(t, engine.Status(), *resp.Snapshot)
}

func TestSnapshotJSONShape(t *testing.T) {
	h := New(browser.NewEngine()).Handler()
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"status", "message", "currentPage", "backStack", "forwardStack", "backCount", "forwardCount", "totalVisited"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, []any{}, raw["backStack"])
	assert.Equal(t, map[string]any{"url": "about:blank", "title": "New Tab"}, raw["currentPage"])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestCORS(t *testing.T) {
	h := New(browser.NewEngine()).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/navigate", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))

	h = New(browser.NewEngine(), WithCORS(false)).Handler()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestActivityEndpoint(t *testing.T) {
	db, err := storage.OpenDB("")
	require.NoError(t, err)
	defer db.Close()
	activity := storage.NewActivityLog(db, 10)

	engine := browser.NewEngine(browser.WithObserver(activity.Observer(nil)))
	h := New(engine, WithActivity(activity)).Handler()

	do(t, h, http.MethodPost, "/api/navigate", `{"url":"https://go.dev"}`)
	do(t, h, http.MethodPost, "/api/forward", "")

	code, resp := do(t, h, http.MethodGet, "/api/activity", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, MsgActivity, resp.Message)
	require.Len(t, resp.Activity, 2)
	assert.Equal(t, "forward", resp.Activity[0].Op)
	assert.False(t, resp.Activity[0].OK)
	assert.Equal(t, "navigate", resp.Activity[1].Op)
	assert.Equal(t, "go.dev", resp.Activity[1].Title)
	assert.NotEmpty(t, resp.Activity[1].Ago)

	_, resp = do(t, h, http.MethodGet, "/api/activity?limit=1", "")
	assert.Len(t, resp.Activity, 1)

	code, _ = do(t, h, http.MethodGet, "/api/activity?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRequestsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	h := New(browser.NewEngine(), WithLogger(logger)).Handler()

	do(t, h, http.MethodPost, "/api/back", "")
	out := buf.String()
	assert.Contains(t, out, "request")
	assert.Contains(t, out, "/api/back")
	assert.Contains(t, out, "409")
}

func TestRecovererReturns500(t *testing.T) {
	s := New(browser.NewEngine())
	h := s.recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	code, resp := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, MsgInternal, resp.Message)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(browser.NewEngine())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
