// Package server exposes a browser.Engine as an HTTP JSON API.
//
// Every request maps to exactly one engine operation. Successful responses
// carry "status":"success", a message and the resulting snapshot; failures
// carry "status":"error" and a message naming the failure.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vidyasagar/stackbrowse/internal/browser"
	"github.com/vidyasagar/stackbrowse/internal/storage"
)

const (
	maxBodySize     = 8 * 1024
	shutdownTimeout = 5 * time.Second
)

// Response messages. Clients may rely on them.
const (
	MsgNavigated     = "Navigated successfully"
	MsgWentBack      = "Went back"
	MsgWentForward   = "Went forward"
	MsgStatus        = "Status retrieved"
	MsgReset         = "Browser reset successfully"
	MsgActivity      = "Activity retrieved"
	MsgInvalidInput  = "Invalid URL or title"
	MsgCannotBack    = "Cannot go back"
	MsgCannotForward = "Cannot go forward"
	MsgMalformed     = "Malformed request body"
	MsgNotFound      = "Not found"
	MsgNoMethod      = "Method not allowed"
	MsgNoActivity    = "Activity log disabled"
	MsgInternal      = "Internal server error"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope of every API reply.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	*browser.Snapshot
	Activity []ActivityItem `json:"activity,omitempty"`
}

// ActivityItem is an activity log entry as served by /api/activity.
type ActivityItem struct {
	storage.Entry
	Ago string `json:"ago"`
}

// NavigateRequest is the body of /api/navigate.
type NavigateRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Server serves one engine. It holds no global state; run several for
// several sessions.
type Server struct {
	engine   *browser.Engine
	activity *storage.ActivityLog
	logger   *log.Logger
	addr     string
	cors     bool
	handler  http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithActivity serves the given activity log at /api/activity.
func WithActivity(a *storage.ActivityLog) Option {
	return func(s *Server) { s.activity = a }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithCORS toggles permissive CORS headers for browser front ends.
func WithCORS(enabled bool) Option {
	return func(s *Server) { s.cors = enabled }
}

// New creates a server for engine.
func New(engine *browser.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: log.New(io.Discard),
		addr:   "127.0.0.1:8000",
		cors:   true,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/navigate", s.handleNavigate)
	mux.HandleFunc("/api/back", s.handleBack)
	mux.HandleFunc("/api/forward", s.handleForward)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/activity", s.handleActivity)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, MsgNotFound)
	})

	s.handler = s.recoverer(s.logRequests(s.withCORS(mux)))
	return s
}

// Handler returns the HTTP handler, for tests or embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req NavigateRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, MsgMalformed)
		return
	}

	snap, err := s.engine.Navigate(req.URL, req.Title)
	if err != nil {
		writeError(w, errorStatus(err), MsgInvalidInput)
		return
	}
	writeSnapshot(w, MsgNavigated, snap)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	snap, err := s.engine.Back()
	if err != nil {
		writeError(w, errorStatus(err), MsgCannotBack)
		return
	}
	writeSnapshot(w, MsgWentBack, snap)
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	snap, err := s.engine.Forward()
	if err != nil {
		writeError(w, errorStatus(err), MsgCannotForward)
		return
	}
	writeSnapshot(w, MsgWentForward, snap)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	writeSnapshot(w, MsgReset, s.engine.Reset())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	writeSnapshot(w, MsgStatus, s.engine.Status())
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	if s.activity == nil {
		writeError(w, http.StatusNotFound, MsgNoActivity)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.activity.Recent(limit)
	if err != nil {
		s.logger.Error("reading activity", "err", err)
		writeError(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	items := make([]ActivityItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, ActivityItem{Entry: e, Ago: e.Ago()})
	}
	writeJSON(w, http.StatusOK, Response{Status: StatusSuccess, Message: MsgActivity, Activity: items})
}

// errorStatus maps engine errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, browser.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, browser.ErrNoHistory):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	writeError(w, http.StatusMethodNotAllowed, MsgNoMethod)
	return false
}

func writeSnapshot(w http.ResponseWriter, message string, snap browser.Snapshot) {
	writeJSON(w, http.StatusOK, Response{Status: StatusSuccess, Message: message, Snapshot: &snap})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, Response{Status: StatusError, Message: message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
