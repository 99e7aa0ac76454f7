package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/scout/internal/backend"
	"github.com/mmcdole/scout/internal/config"
	"github.com/mmcdole/scout/internal/domain"
	"github.com/mmcdole/scout/internal/history"
	"github.com/mmcdole/scout/internal/images"
	"github.com/mmcdole/scout/internal/log"
	"github.com/mmcdole/scout/internal/session"
	"github.com/mmcdole/scout/internal/tui"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

type options struct {
	configPath string
	backendURL string
	query      string
	page       int
	noHistory  bool
}

func main() {
	var opts options
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&opts.configPath, "config", "", "path to config file")
	flag.StringVar(&opts.backendURL, "url", "", "search backend URL (overrides config)")
	flag.StringVar(&opts.query, "q", "", "run a single search and print the results")
	flag.IntVar(&opts.page, "page", 0, "result page for -q (0-based)")
	flag.BoolVar(&opts.noHistory, "no-history", false, "do not read or record query history")
	flag.Parse()

	if showVersion {
		fmt.Printf("scout %s\n", Version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.backendURL != "" {
		cfg.Backend.URL = opts.backendURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, logFile, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	} else {
		defer logFile.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting scout", "version", Version, "backend", cfg.Backend.URL)

	client, err := backend.NewClient(backend.Options{
		BaseURL: cfg.Backend.URL,
		Path:    cfg.Backend.Path,
		Token:   cfg.Backend.Token,
		Timeout: cfg.Backend.Timeout,
		Images:  images.NewAllowlist(cfg.Images.AllowedHosts),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create search client: %w", err)
	}

	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithCacheSize(cfg.Cache.Capacity),
		session.WithCacheTTL(cfg.Cache.TTL),
	}

	var hist domain.HistoryStore
	if cfg.History.Enabled && !opts.noHistory {
		store, err := history.NewStore(cfg.History.File, cfg.History.MaxEntries)
		if err != nil {
			logger.Warn("history unavailable", "error", err)
		} else {
			defer store.Close()
			hist = store
			sessionOpts = append(sessionOpts, session.WithHistory(store))
		}
	}

	orch, err := session.New(client, sessionOpts...)
	if err != nil {
		return fmt.Errorf("failed to create search session: %w", err)
	}
	defer orch.Dispose()

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if opts.query != "" || !interactive {
		if opts.query == "" {
			return errors.New("no terminal attached; pass a query with -q")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return searchOnce(ctx, orch, domain.NewQuery(opts.query, opts.page, cfg.Search.PageSize), cfg.Backend.Timeout, os.Stdout)
	}

	model := tui.NewModel(orch, tui.Options{
		History:  hist,
		PageSize: cfg.Search.PageSize,
		Debounce: cfg.Search.Debounce,
		Logger:   logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down", "stats", fmt.Sprintf("%+v", orch.Stats()))
	return nil
}

// searchOnce submits q, waits for it to settle and prints the results
func searchOnce(ctx context.Context, orch *session.Orchestrator, q domain.Query, timeout time.Duration, out io.Writer) error {
	if err := orch.Submit(q); err != nil {
		return err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		// Leave the transport room to report its own timeout first
		ctx, cancel = context.WithTimeout(ctx, timeout+time.Second)
		defer cancel()
	}

	rs, err := orch.Read(ctx)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if rs.IsEmpty() {
		fmt.Fprintf(out, "No results for %q\n", q.Text)
		return nil
	}

	for _, item := range rs.Items {
		fmt.Fprintf(out, "%s\t%s\n", item.ID, item.Title)
		if item.Description != "" {
			fmt.Fprintf(out, "\t%s\n", item.Description)
		}
	}
	fmt.Fprintf(out, "-- page %d, %d of %d results\n", rs.Query.Page+1, len(rs.Items), rs.TotalCount)
	return nil
}
