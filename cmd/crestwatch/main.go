package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/crestwatch"
	"github.com/fwojciec/crestwatch/fs"
	"github.com/fwojciec/crestwatch/goquery"
	cwhttp "github.com/fwojciec/crestwatch/http"
	"github.com/fwojciec/crestwatch/msteams"
	"github.com/fwojciec/crestwatch/rod"
	"github.com/fwojciec/crestwatch/slack"
	cwslog "github.com/fwojciec/crestwatch/slog"
	"github.com/fwojciec/crestwatch/sqlite"
	"github.com/fwojciec/crestwatch/watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Services for end-to-end testing. When nil, real implementations are used.
	Fetcher    crestwatch.Fetcher
	Dispatcher crestwatch.Dispatcher

	// RetryDelays overrides the fetch backoff. Nil uses the default.
	RetryDelays []time.Duration
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("crestwatch"),
		kong.Description("Watch Crestron's firmware and software listing and notify Slack or Teams of changes"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Vars{"default_url": DefaultSourceURL},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 1 && (args[0] == "help" || args[0] == "--help" || args[0] == "-h") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, cli.Verbose)
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
	}

	// Validate the run configuration before any I/O.
	var cfg Config
	isRun := kongCtx.Command() == "run"
	if isRun {
		cfg, err = cli.Run.Config()
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", crestwatch.ErrorMessage(err))
			return err
		}
	}

	store, closeStore, err := openStore(cli, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	deps.Store = cwslog.NewLoggingSnapshotStore(store, logger)

	if isRun {
		fetcher, err := m.fetcher(cfg)
		if err != nil {
			return err
		}
		defer fetcher.Close()

		deps.Watcher, err = m.watcher(cfg, fetcher, deps.Store, logger)
		if err != nil {
			return err
		}
	}

	return kongCtx.Run(deps)
}

// fetcher returns the configured page fetcher wrapped with logging.
func (m *Main) fetcher(cfg Config) (crestwatch.Fetcher, error) {
	var fetcher crestwatch.Fetcher
	switch {
	case m.Fetcher != nil:
		fetcher = m.Fetcher
	case cfg.Browser:
		opts := []rod.Option{rod.WithFetchTimeout(cfg.Timeout)}
		if cfg.WaitSelector != "" {
			opts = append(opts, rod.WithWaitSelector(cfg.WaitSelector))
		}
		f, err := rod.NewFetcher(opts...)
		if err != nil {
			return nil, crestwatch.Errorf(crestwatch.ECONFIG, "failed to start browser (Chrome or Chromium must be installed): %v", err)
		}
		fetcher = f
	default:
		fetcher = cwhttp.NewFetcher(cwhttp.WithTimeout(cfg.Timeout))
	}
	return fetcher, nil
}

// watcher wires a Watcher for cfg.
func (m *Main) watcher(cfg Config, fetcher crestwatch.Fetcher, store crestwatch.SnapshotStore, logger *slog.Logger) (*watch.Watcher, error) {
	extractor, err := goquery.NewExtractor(cfg.BaseURL())
	if err != nil {
		return nil, err
	}

	formatters := crestwatch.NewFormatterRegistry()
	formatters.Register(crestwatch.ChannelSlack, slack.NewFormatter(
		slack.WithSourceURL(cfg.SourceURL),
		slack.WithStrictKinds(cfg.StrictKinds),
	))
	formatters.Register(crestwatch.ChannelTeams, msteams.NewFormatter(
		msteams.WithStrictKinds(cfg.StrictKinds),
	))

	dispatcher := m.Dispatcher
	if dispatcher == nil {
		dispatcher = cwhttp.NewDispatcher(
			cwhttp.WithDispatchTimeout(cfg.Timeout),
			cwhttp.WithRateLimiter(watch.NewHostLimiter(cfg.WebhookRPS)),
		)
	}

	return &watch.Watcher{
		SourceURL:   cfg.SourceURL,
		Fetcher:     cwslog.NewLoggingFetcher(fetcher, logger),
		Extractor:   extractor,
		Store:       store,
		Formatters:  formatters,
		Dispatcher:  cwslog.NewLoggingDispatcher(dispatcher, logger),
		Channels:    cfg.Channels,
		Concurrency: cfg.Concurrency,
		RetryDelays: m.RetryDelays,
		DryRun:      cfg.DryRun,
		Logger:      logger,
	}, nil
}

// openStore opens the configured snapshot backend. The returned close
// function is always safe to call.
func openStore(cli *CLI, logger *slog.Logger) (crestwatch.SnapshotStore, func(), error) {
	switch cli.Store {
	case "sqlite":
		path := cli.Snapshot
		if path == "" {
			path = defaultSQLitePath
		}
		db := sqlite.NewDB(path)
		if err := db.Open(); err != nil {
			return nil, func() {}, crestwatch.Errorf(crestwatch.EPERSIST, "failed to open snapshot database at %q: %v", path, err)
		}
		return sqlite.NewSnapshotStore(db, logger), func() { _ = db.Close() }, nil
	default:
		path := cli.Snapshot
		if path == "" {
			path = fs.DefaultSnapshotPath
		}
		return fs.NewSnapshotStore(path, fs.WithLogger(logger)), func() {}, nil
	}
}

const defaultSQLitePath = "previous-results.db"

// newLogger returns a text logger on w. Only warnings and errors are shown
// unless verbose is set, so an unchanged run prints nothing.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
