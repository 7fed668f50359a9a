package browser

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrInvalidInput is returned when a navigation target is empty.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoHistory is returned by Back or Forward when there is nowhere to go.
	ErrNoHistory = errors.New("no history")
)

// DefaultMaxDepth is the stack depth used by callers that do not configure one.
const DefaultMaxDepth = 100

// Op names an engine operation.
type Op string

const (
	OpNavigate Op = "navigate"
	OpBack     Op = "back"
	OpForward  Op = "forward"
	OpReset    Op = "reset"
	OpStatus   Op = "status" // read-only, never sent to observers
)

// Event describes a completed mutating operation. Err is set when the
// operation failed, in which case Snapshot is the unchanged state.
//
// Seq numbers events in the order the engine applied them, starting at 1.
// Observers of an engine shared between goroutines may be called out of
// that order and should sort by Seq when order matters.
type Event struct {
	Seq      uint64
	Op       Op
	Page     Page // the current page after the operation
	Snapshot Snapshot
	Err      error
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth caps both history stacks at n pages. Zero means unbounded.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n < 0 {
			n = 0
		}
		e.back.limit = n
		e.forward.limit = n
	}
}

// WithTitles attaches a title memory used when Navigate gets no title.
func WithTitles(t *Titles) Option {
	return func(e *Engine) {
		e.titles = t
	}
}

// WithObserver registers fn to be called after every mutating operation.
func WithObserver(fn func(Event)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

// Engine manages a current page and its back/forward navigation stacks.
// All methods are safe for concurrent use; each one is atomic.
type Engine struct {
	mu           sync.Mutex
	current      Page
	back         stack
	forward      stack
	totalVisited int
	seq          uint64

	titles    *Titles
	observers []func(Event)
}

// NewEngine creates an engine showing the blank page with empty history.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{current: Blank}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Navigate makes {url, title} the current page. The previous page goes on
// the back stack unless it is the blank page, and forward history is
// discarded. An empty title is resolved from the URL.
func (e *Engine) Navigate(url, title string) (Snapshot, error) {
	url = strings.TrimSpace(url)
	title = strings.TrimSpace(title)

	e.mu.Lock()
	if url == "" {
		snap, seq := e.snapshotLocked(), e.nextSeqLocked()
		e.mu.Unlock()
		err := fmt.Errorf("%w: empty url", ErrInvalidInput)
		e.notify(Event{Seq: seq, Op: OpNavigate, Page: snap.CurrentPage, Snapshot: snap, Err: err})
		return snap, err
	}

	if e.titles != nil {
		title = e.titles.Resolve(url, title)
	} else if title == "" {
		title = DeriveTitle(url)
	}

	if !e.current.IsBlank() {
		e.back.push(e.current)
	}
	e.current = Page{URL: url, Title: title}
	e.forward.clear()
	e.totalVisited++
	snap, seq := e.snapshotLocked(), e.nextSeqLocked()
	e.mu.Unlock()

	e.notify(Event{Seq: seq, Op: OpNavigate, Page: snap.CurrentPage, Snapshot: snap})
	return snap, nil
}

// Back moves to the most recent page on the back stack.
func (e *Engine) Back() (Snapshot, error) {
	return e.step(OpBack, &e.back, &e.forward)
}

// Forward moves to the most recent page on the forward stack.
func (e *Engine) Forward() (Snapshot, error) {
	return e.step(OpForward, &e.forward, &e.back)
}

// step pops from src, pushes the current page onto dst and makes the popped
// page current. Back and Forward are the same transition with the stacks
// swapped.
func (e *Engine) step(op Op, src, dst *stack) (Snapshot, error) {
	e.mu.Lock()
	if src.empty() {
		snap, seq := e.snapshotLocked(), e.nextSeqLocked()
		e.mu.Unlock()
		err := fmt.Errorf("%w: cannot go %s", ErrNoHistory, op)
		e.notify(Event{Seq: seq, Op: op, Page: snap.CurrentPage, Snapshot: snap, Err: err})
		return snap, err
	}

	dst.push(e.current)
	e.current = src.pop()
	snap, seq := e.snapshotLocked(), e.nextSeqLocked()
	e.mu.Unlock()

	e.notify(Event{Seq: seq, Op: op, Page: snap.CurrentPage, Snapshot: snap})
	return snap, nil
}

// Reset clears both stacks and returns to the blank page. The visit counter
// is a session total and survives a reset.
func (e *Engine) Reset() Snapshot {
	e.mu.Lock()
	e.back.clear()
	e.forward.clear()
	e.current = Blank
	snap, seq := e.snapshotLocked(), e.nextSeqLocked()
	e.mu.Unlock()

	e.notify(Event{Seq: seq, Op: OpReset, Page: snap.CurrentPage, Snapshot: snap})
	return snap
}

// Status returns the current state without changing it.
func (e *Engine) Status() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		CurrentPage:  e.current,
		BackStack:    e.back.list(),
		ForwardStack: e.forward.list(),
		BackCount:    e.back.len(),
		ForwardCount: e.forward.len(),
		TotalVisited: e.totalVisited,
	}
}

func (e *Engine) nextSeqLocked() uint64 {
	e.seq++
	return e.seq
}

// notify runs observers outside the lock so they may call back into the
// engine. Concurrent operations may therefore notify out of Seq order.
func (e *Engine) notify(ev Event) {
	for _, fn := range e.observers {
		fn(ev)
	}
}
