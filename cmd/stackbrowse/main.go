package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/vidyasagar/stackbrowse/internal/app"
	"github.com/vidyasagar/stackbrowse/internal/browser"
	"github.com/vidyasagar/stackbrowse/internal/client"
	"github.com/vidyasagar/stackbrowse/internal/server"
	"github.com/vidyasagar/stackbrowse/internal/storage"
	"github.com/vidyasagar/stackbrowse/internal/theme"
)

var (
	version = "0.1.0"
)

func main() {
	var (
		configPath  string
		themeName   string
		addr        string
		remote      string
		initConfig  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "config file (default: search "+strings.Join(storage.ConfigPaths(), ", ")+")")
	flag.StringVar(&themeName, "theme", "", "color theme ("+strings.Join(theme.List(), ", ")+")")
	flag.StringVar(&addr, "addr", "", "listen address for serve (overrides server.addr)")
	flag.StringVar(&remote, "remote", "", "drive the server at this address instead of a local engine")
	flag.StringVar(&initConfig, "init-config", "", "write a default config file to this path and exit")
	flag.BoolVar(&showVersion, "version", false, "show version")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "stackbrowse - browser-style back/forward history on two stacks\n\n")
		fmt.Fprintf(os.Stderr, "Usage: stackbrowse [flags] [url]\n")
		fmt.Fprintf(os.Stderr, "       stackbrowse [flags] serve\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  stackbrowse                               # terminal UI on a local engine\n")
		fmt.Fprintf(os.Stderr, "  stackbrowse https://go.dev                # open a URL on startup\n")
		fmt.Fprintf(os.Stderr, "  stackbrowse serve                         # JSON API on 127.0.0.1:8000\n")
		fmt.Fprintf(os.Stderr, "  stackbrowse -addr :9000 serve             # JSON API on port 9000\n")
		fmt.Fprintf(os.Stderr, "  stackbrowse -remote 127.0.0.1:8000        # terminal UI driving a server\n")
		fmt.Fprintf(os.Stderr, "  stackbrowse -init-config ~/.config/stackbrowse/config.toml\n")
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("stackbrowse %s\n", version)
		os.Exit(0)
	}

	if initConfig != "" {
		if err := storage.WriteDefault(initConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", initConfig)
		os.Exit(0)
	}

	cfg, err := storage.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if themeName != "" {
		cfg.Theme = themeName
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if remote != "" {
		cfg.Remote = strings.TrimSuffix(remote, "/")
	}

	if !theme.Set(cfg.Theme) {
		fmt.Fprintf(os.Stderr, "Unknown theme: %s\nAvailable: %s\n", cfg.Theme, strings.Join(theme.List(), ", "))
		os.Exit(1)
	}

	if flag.Arg(0) == "serve" {
		err = runServe(cfg)
	} else {
		err = runTUI(cfg, flag.Arg(0))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "stackbrowse",
		ReportTimestamp: true,
	})
}

// localEngine builds an engine whose operations are recorded in the
// configured activity log.
func localEngine(cfg *storage.Config, logger *log.Logger) (*browser.Engine, *storage.ActivityLog, *storage.DB, error) {
	db, err := storage.OpenDB(cfg.ActivityDB)
	if err != nil {
		return nil, nil, nil, err
	}
	activity := storage.NewActivityLog(db, cfg.ActivityLimit)
	logger.Info("opened activity store", "path", db.Path(), "limit", activity.Limit())
	engine := browser.NewEngine(
		browser.WithMaxDepth(cfg.MaxDepth),
		browser.WithTitles(browser.NewTitles(cfg.TitleCacheSize)),
		browser.WithObserver(activity.Observer(func(err error) {
			logger.Warn("recording activity", "err", err)
		})),
	)
	return engine, activity, db, nil
}

func runServe(cfg *storage.Config) error {
	logger := newLogger(os.Stderr, cfg.LogLevel)
	if p := cfg.Path(); p != "" {
		logger.Info("loaded config", "path", p)
	}

	engine, activity, db, err := localEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(engine,
		server.WithActivity(activity),
		server.WithLogger(logger),
		server.WithAddr(cfg.Server.Addr),
		server.WithCORS(cfg.Server.CORS),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}

func runTUI(cfg *storage.Config, startURL string) error {
	logOut := io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut, cfg.LogLevel)

	opts := app.Options{Logger: logger, StartURL: startURL}
	var nav app.Navigator

	if cfg.Remote != "" {
		c, err := client.New(cfg.Remote, nil)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), client.SharedTransport.ResponseHeaderTimeout)
		_, err = c.Status(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("reaching %s: %w", c.BaseURL(), err)
		}
		nav = c
		opts.Activity = app.NewRemoteActivity(c)
		opts.Remote = c.BaseURL()
		logger.Info("driving remote server", "url", c.BaseURL())
	} else {
		engine, activity, db, err := localEngine(cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		nav = app.Local(engine)
		opts.Activity = app.NewLocalActivity(activity)
	}

	p := tea.NewProgram(app.New(nav, opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
