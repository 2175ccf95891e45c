package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/nwops/dnsaudit/internal/api"
	"github.com/nwops/dnsaudit/internal/audit"
	"github.com/nwops/dnsaudit/internal/config"
	"github.com/nwops/dnsaudit/internal/database"
	"github.com/nwops/dnsaudit/internal/logging"
	"github.com/nwops/dnsaudit/internal/netset"
	"github.com/nwops/dnsaudit/internal/records"
	"github.com/nwops/dnsaudit/internal/report"
	"github.com/nwops/dnsaudit/internal/source"
)

const version = "1.0.0"

func main() {
	config.LoadDotEnv()

	app := &cli.App{
		Name:    "dnsaudit",
		Usage:   "Audit A and CNAME records against an allowed-network list",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file (or set DNSAUDIT_CONFIG)",
			},
			&cli.BoolFlag{
				Name:  "json-logs",
				Usage: "Enable JSON structured logging",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			auditCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "dnsaudit: %v\n", err)
		os.Exit(1)
	}
}

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:    "audit",
		Aliases: []string{"a", "run"},
		Usage:   "Run one audit pass and print the report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ranges",
				Aliases: []string{"r"},
				Usage:   "Path to the allowed-networks file",
			},
			&cli.StringFlag{
				Name:  "view",
				Usage: "DNS view to audit",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Record source: infoblox or zonefile",
			},
			&cli.StringFlag{
				Name:  "zone-file",
				Usage: "Master file path when source is zonefile",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent chain resolutions (0 = auto)",
			},
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "Report compliant records too",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "no-store",
				Usage: "Skip persisting the run to the history store",
			},
		},
		Action: runAudit,
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serve the results API over the history store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Override API bind host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override API bind port",
			},
		},
		Action: runServe,
	}
}

func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.ResolveConfigPath(c.String("config")))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if c.Bool("json-logs") {
		cfg.Logging.JSON = true
	}
	if c.Bool("debug") {
		cfg.Logging.Level = "DEBUG"
	}

	logger := logging.Configure(logging.Config{
		Level:       cfg.Logging.Level,
		JSON:        cfg.Logging.JSON,
		IncludePID:  cfg.Logging.IncludePID,
		ExtraFields: cfg.Logging.ExtraFields,
	})
	return cfg, logger, nil
}

func buildSource(cfg *config.Config, logger *slog.Logger) (source.Source, error) {
	switch cfg.Audit.Source {
	case "zonefile":
		return source.NewZoneFile(cfg.Audit.ZoneFile, ""), nil
	default:
		if err := cfg.RequireInfoblox(); err != nil {
			return nil, err
		}
		return source.NewInfoblox(cfg.Infoblox, cfg.Audit.View, logger)
	}
}

// auditOnce performs one full pass: fetch, index, resolve, classify. It is
// shared by the audit command and the API trigger.
func auditOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]audit.Finding, database.Run, error) {
	started := time.Now()

	allowed, err := netset.LoadRanges(cfg.Audit.RangesFile)
	if err != nil {
		return nil, database.Run{}, fmt.Errorf("failed to load allowed networks: %w", err)
	}
	logger.Info("allowed networks loaded", "file", cfg.Audit.RangesFile, "ranges", allowed.Len())

	src, err := buildSource(cfg, logger)
	if err != nil {
		return nil, database.Run{}, err
	}

	recs, err := src.Fetch(ctx)
	if err != nil {
		return nil, database.Run{}, fmt.Errorf("failed to fetch records from %s: %w", src.Name(), err)
	}
	logger.Info("records fetched", "source", src.Name(), "count", len(recs))

	idx, err := records.Build(recs)
	if err != nil {
		return nil, database.Run{}, fmt.Errorf("failed to index records: %w", err)
	}

	auditor := audit.New(audit.WithWorkers(cfg.Audit.Workers), audit.WithLogger(logger))
	findings, err := auditor.Run(ctx, idx, allowed)
	if err != nil {
		return nil, database.Run{}, err
	}

	run := database.Run{
		StartedAt:  started,
		FinishedAt: time.Now(),
		View:       cfg.Audit.View,
		Source:     src.Name(),
		Summary:    audit.Summarize(findings),
	}
	return findings, run, nil
}

func runAudit(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}

	if v := c.String("ranges"); v != "" {
		cfg.Audit.RangesFile = v
	}
	if v := c.String("view"); v != "" {
		cfg.Audit.View = v
	}
	if v := c.String("source"); v != "" {
		cfg.Audit.Source = v
	}
	if v := c.String("zone-file"); v != "" {
		cfg.Audit.ZoneFile = v
		cfg.Audit.Source = "zonefile"
	}
	if c.Int("workers") > 0 {
		cfg.Audit.Workers = c.Int("workers")
	}
	if c.Bool("all") {
		cfg.Audit.ShowAll = true
	}
	if c.Bool("no-store") {
		cfg.Store.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	findings, run, err := auditOnce(ctx, cfg, logger)
	if err != nil {
		return err
	}

	console := report.NewConsole(os.Stdout, cfg.Audit.ShowAll, c.Bool("no-color"))
	console.Render(findings)

	if cfg.Store.Enabled {
		db, err := database.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer db.Close()

		id, err := db.SaveRun(run, findings)
		if err != nil {
			return fmt.Errorf("failed to persist run: %w", err)
		}
		logger.Info("run persisted", "id", id, "db", cfg.Store.Path)
	}

	if code := report.ExitStatus(findings); code != 0 {
		return cli.Exit("", code)
	}
	return nil
}

func runServe(c *cli.Context) error {
	cfg, logger, err := loadConfig(c)
	if err != nil {
		return err
	}

	if v := c.String("host"); v != "" {
		cfg.API.Host = v
	}
	if c.Int("port") != 0 {
		cfg.API.Port = c.Int("port")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := database.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer db.Close()

	trigger := func(ctx context.Context) (database.Run, error) {
		findings, run, err := auditOnce(ctx, cfg, logger)
		if err != nil {
			return database.Run{}, err
		}
		run.ID, err = db.SaveRun(run, findings)
		if err != nil {
			return database.Run{}, err
		}
		return run, nil
	}

	server := api.New(cfg, db, logger, trigger)
	logger.Info("results API starting", "addr", server.Addr())

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("results API failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
