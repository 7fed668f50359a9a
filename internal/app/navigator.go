package app

import (
	"context"

	"github.com/vidyasagar/stackbrowse/internal/browser"
	"github.com/vidyasagar/stackbrowse/internal/client"
	"github.com/vidyasagar/stackbrowse/internal/storage"
)

// Navigator runs history operations against a local engine or a remote
// server. *client.Client satisfies it directly.
type Navigator interface {
	Navigate(ctx context.Context, url, title string) (browser.Snapshot, error)
	Back(ctx context.Context) (browser.Snapshot, error)
	Forward(ctx context.Context) (browser.Snapshot, error)
	Reset(ctx context.Context) (browser.Snapshot, error)
	Status(ctx context.Context) (browser.Snapshot, error)
}

// ActivitySource lists recent activity, newest first.
type ActivitySource interface {
	Recent(ctx context.Context, n int) ([]storage.Entry, error)
}

// recorder is implemented by sources that accept entries written by the
// front end itself.
type recorder interface {
	Record(e storage.Entry) error
}

// maintainer is implemented by sources that can report and drop their
// stored entries.
type maintainer interface {
	Count() (int, error)
	Limit() int
	Clear() error
}

var _ Navigator = (*client.Client)(nil)

// LocalNavigator adapts an in-process engine.
type LocalNavigator struct {
	engine *browser.Engine
}

// Local wraps e as a Navigator.
func Local(e *browser.Engine) *LocalNavigator {
	return &LocalNavigator{engine: e}
}

func (l *LocalNavigator) Navigate(ctx context.Context, url, title string) (browser.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return browser.Snapshot{}, err
	}
	return l.engine.Navigate(url, title)
}

func (l *LocalNavigator) Back(ctx context.Context) (browser.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return browser.Snapshot{}, err
	}
	return l.engine.Back()
}

func (l *LocalNavigator) Forward(ctx context.Context) (browser.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return browser.Snapshot{}, err
	}
	return l.engine.Forward()
}

func (l *LocalNavigator) Reset(ctx context.Context) (browser.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return browser.Snapshot{}, err
	}
	return l.engine.Reset(), nil
}

func (l *LocalNavigator) Status(ctx context.Context) (browser.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return browser.Snapshot{}, err
	}
	return l.engine.Status(), nil
}

// LocalActivity reads an in-process activity log.
type LocalActivity struct {
	log *storage.ActivityLog
}

// NewLocalActivity wraps log as an ActivitySource.
func NewLocalActivity(log *storage.ActivityLog) *LocalActivity {
	return &LocalActivity{log: log}
}

func (a *LocalActivity) Recent(_ context.Context, n int) ([]storage.Entry, error) {
	return a.log.Recent(n)
}

func (a *LocalActivity) Record(e storage.Entry) error {
	return a.log.Record(e)
}

func (a *LocalActivity) Count() (int, error) {
	return a.log.Count()
}

func (a *LocalActivity) Limit() int {
	return a.log.Limit()
}

func (a *LocalActivity) Clear() error {
	return a.log.Clear()
}

// RemoteActivity reads the activity log of a server.
type RemoteActivity struct {
	client *client.Client
}

// NewRemoteActivity wraps c as an ActivitySource.
func NewRemoteActivity(c *client.Client) *RemoteActivity {
	return &RemoteActivity{client: c}
}

func (a *RemoteActivity) Recent(ctx context.Context, n int) ([]storage.Entry, error) {
	items, err := a.client.Activity(ctx, n)
	if err != nil {
		return nil, err
	}
	entries := make([]storage.Entry, 0, len(items))
	for _, it := range items {
		entries = append(entries, it.Entry)
	}
	return entries, nil
}
