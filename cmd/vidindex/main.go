package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mantonx/vidindex/internal/catalog"
	"github.com/mantonx/vidindex/internal/config"
	"github.com/mantonx/vidindex/internal/database"
	"github.com/mantonx/vidindex/internal/indexer"
	"github.com/mantonx/vidindex/internal/logger"
	"github.com/mantonx/vidindex/internal/scanner"
	"github.com/mantonx/vidindex/internal/server"
	"github.com/mantonx/vidindex/internal/server/handlers"
	"github.com/mantonx/vidindex/internal/watcher"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.App {
	return &cli.App{
		Name:   "vidindex",
		Usage:  "keep a video catalog in sync with a media directory",
		Writer: stdout,
		Flags:  globalFlags(),
		Action: func(c *cli.Context) error { return runSync(c, stdout) },
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "synchronize the catalog with the media root once",
				Flags:  globalFlags(),
				Action: func(c *cli.Context) error { return runSync(c, stdout) },
			},
			{
				Name:   "serve",
				Usage:  "serve the catalog HTTP API",
				Flags:  globalFlags(),
				Action: func(c *cli.Context) error { return runServe(c) },
			},
			{
				Name:   "watch",
				Usage:  "synchronize, then re-synchronize whenever the media tree changes",
				Flags:  globalFlags(),
				Action: func(c *cli.Context) error { return runWatch(c, stdout) },
			},
		},
	}
}

// globalFlags returns fresh flag definitions. They are attached to the app
// and to every command so they may be given before or after the command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a YAML or JSON config file",
			EnvVars: []string{"VIDINDEX_CONFIG"},
			Value:   "vidindex.yaml",
		},
		&cli.StringFlag{
			Name:  "media-root",
			Usage: "directory tree to index (overrides media.root)",
		},
		&cli.StringFlag{
			Name:  "database",
			Usage: "SQLite database file (overrides database.path)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "report the changes without writing them",
		},
		&cli.BoolFlag{
			Name:  "single-transaction",
			Usage: "apply additions and removals in one transaction",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "trace, debug, info, warn or error (overrides logging.level)",
		},
	}
}

// app is the wired object graph for one invocation.
type app struct {
	cfg   *config.Config
	conn  *database.Connection
	store *catalog.Store
	sync  *indexer.Orchestrator
	filt  *scanner.PathFilter
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(flagString(c, "config"))
	if err != nil {
		return nil, err
	}

	if v := flagString(c, "media-root"); v != "" {
		cfg.Media.Root = v
	}
	if v := flagString(c, "database"); v != "" {
		cfg.Database.Type = "sqlite"
		cfg.Database.Path = v
	}
	if flagBool(c, "dry-run") {
		cfg.Sync.DryRun = true
	}
	if flagBool(c, "single-transaction") {
		cfg.Sync.SingleTransaction = true
	}
	if v := flagString(c, "log-level"); v != "" {
		cfg.Logging.Level = v
	}

	logger.Configure(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	return cfg, nil
}

// flagString returns the innermost explicitly set value of a flag, falling
// back to its default.
func flagString(c *cli.Context, name string) string {
	for _, lc := range c.Lineage() {
		if lc.IsSet(name) {
			return lc.String(name)
		}
	}
	return c.String(name)
}

func flagBool(c *cli.Context, name string) bool {
	for _, lc := range c.Lineage() {
		if lc.IsSet(name) {
			return lc.Bool(name)
		}
	}
	return c.Bool(name)
}

func bootstrap(cfg *config.Config) (*app, error) {
	conn, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	filter := scanner.NewPathFilter(cfg.Scanner)
	store := catalog.NewStore(conn.DB, cfg.Sync.BatchSize)
	orchestrator := indexer.NewOrchestrator(
		store,
		scanner.NewFileSystemScanner(filter),
		cfg.Media.Root,
		syncOptions(cfg),
	)

	return &app{
		cfg:   cfg,
		conn:  conn,
		store: store,
		sync:  orchestrator,
		filt:  filter,
	}, nil
}

func syncOptions(cfg *config.Config) indexer.Options {
	return indexer.Options{
		SingleTransaction: cfg.Sync.SingleTransaction,
		DryRun:            cfg.Sync.DryRun,
	}
}

// requireMediaRoot fails before any database work when the media root is
// not a directory.
func requireMediaRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: media directory not found: %s", scanner.ErrRootNotFound, root)
	}
	return nil
}

func runSync(c *cli.Context, stdout io.Writer) error {
	fmt.Fprintln(stdout, "Starting Video Library Indexer...")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := requireMediaRoot(cfg.Media.Root); err != nil {
		return err
	}

	a, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer a.conn.Close()

	report, err := a.sync.Run(c.Context)
	if err != nil {
		return err
	}
	return report.WriteSummary(stdout)
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	a, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer a.conn.Close()

	h := handlers.NewHandler(a.store, a.sync, cfg.Media.Root, syncOptions(cfg))
	return server.New(cfg.Server, h).Run(c.Context)
}

func runWatch(c *cli.Context, stdout io.Writer) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := requireMediaRoot(cfg.Media.Root); err != nil {
		return err
	}

	a, err := bootstrap(cfg)
	if err != nil {
		return err
	}
	defer a.conn.Close()

	report, err := a.sync.Run(c.Context)
	if err != nil {
		return err
	}
	if err := report.WriteSummary(stdout); err != nil {
		return err
	}

	w, err := watcher.New(cfg.Media.Root, a.filt, a.sync, cfg.Sync.WatchDebounce)
	if err != nil {
		return err
	}
	w.OnReport = func(r *indexer.Report) {
		r.WriteSummary(stdout)
	}
	return w.Run(c.Context)
}
