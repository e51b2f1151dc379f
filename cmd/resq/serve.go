package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"rapidresq/resq/pkg/cli"
	"rapidresq/resq/pkg/config"
	"rapidresq/resq/pkg/coordinator"
	"rapidresq/resq/pkg/server"
	"rapidresq/resq/pkg/telemetry/health"
	"rapidresq/resq/pkg/telemetry/metrics"
	"rapidresq/resq/pkg/telemetry/tracing"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the emergency API over HTTP",
	Long: `Start the HTTP API with the specified configuration.

Besides the API routes the server exposes Prometheus metrics, liveness and
readiness probes and build information. A background reporter publishes
coordinator snapshots and drains the request queue on the configured
schedule. With --config, the file is watched and reloaded on change.

Examples:
  # Start with defaults on 127.0.0.1:5000
  resq serve

  # Start with a config file and override the listen address
  resq serve --config /etc/resq/resq.yaml --listen 0.0.0.0:8080

  # Validate config without starting the server
  resq serve --config resq.yaml --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", true, "reload the config file when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	logger, err := newLogger(cfg, os.Stdout, serveFlags.logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if serveFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithVersion(Version))
	if err != nil {
		return cli.NewConfigError(cfgFile, fmt.Errorf("tracing: %w", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	opts := appOptions{Tracer: tracer, Logger: logger}
	var sink coordinator.StatsSink
	if collector != nil {
		opts.Observer = collector
		sink = collector
	}
	a := newApp(cfg, opts)
	defer a.Close()

	reporter := coordinator.NewReporter(a.coord, sink, handoffConsumer{logger: logger}, coordinator.ReporterConfig{
		Schedule:   cfg.Concurrency.ReportSchedule,
		DrainBatch: cfg.Concurrency.DrainBatch,
	})
	if err := reporter.Start(ctx); err != nil {
		return cli.NewConfigError(cfgFile, fmt.Errorf("reporter: %w", err))
	}
	defer reporter.Stop()

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	health.RegisterCoordinatorChecks(checker, a.coord)
	checker.RegisterCheck("config", health.ConfigCheck(config.GetConfig))

	if cfgFile != "" && serveFlags.watch {
		if err := startWatcher(ctx, logger); err != nil {
			logger.Warn("config watcher disabled", "error", err)
		}
	}

	srv, err := server.New(cfg, server.Options{
		Engine:    a.engine,
		Locations: a.locations,
		Metrics:   collector,
		Health:    checker,
		Tracer:    tracer,
		Version:   health.NewVersionInfo(Version, GitCommit, BuildDate),
		Logger:    logger,
	})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	logger.Info("resq starting",
		"version", Version,
		"listen_address", cfg.Server.ListenAddress,
		"dispatch_enabled", cfg.Dispatch.Enabled,
		"tracing_enabled", tracer.Enabled(),
	)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("serve", err)
	}
	logger.Info("resq stopped")
	return nil
}

// startWatcher reloads the config file on change. Listener and pipeline
// settings are read at startup; a reload updates the process configuration
// that readiness checks and later restarts see.
func startWatcher(ctx context.Context, logger *slog.Logger) error {
	w, err := config.NewWatcher(cfgFile, logger)
	if err != nil {
		return err
	}
	config.OnReload(func(cfg *config.Config) {
		logger.Info("configuration reloaded",
			"path", cfgFile,
			"listen_address", cfg.Server.ListenAddress,
		)
	})
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Error("config watcher stopped", "error", err)
		}
	}()
	return nil
}

// handoffConsumer receives the entries the reporter drains from the queue.
type handoffConsumer struct {
	logger *slog.Logger
}

func (c handoffConsumer) Consume(ctx context.Context, entries []coordinator.QueueEntry) error {
	for _, e := range entries {
		c.logger.InfoContext(ctx, "queued request handed off",
			"entry_id", e.ID,
			"enqueued_at", e.EnqueuedAt,
		)
	}
	return nil
}
