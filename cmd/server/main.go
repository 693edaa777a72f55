/*
main.go - Application entry point

PURPOSE:
  Starts the AMC billing server, or runs one billing operation from the
  command line. Handles configuration, dependency injection, and graceful
  shutdown.

COMMANDS:
  serve       HTTP API plus the cron-driven due-check (default)
  due-check   Run one due-check batch and exit
  till-year   Fill an AMC's missing payments through a year and exit

STARTUP SEQUENCE (serve):
  1. Load config (defaults, YAML file, AMC_* env, flags)
  2. Initialize SQLite store
  3. Create synchronizer, metrics and scheduler
  4. Configure HTTP router
  5. Start server and scheduler with graceful shutdown

PERSISTENT FLAGS:
  --config   YAML config file (optional)
  --db       SQLite database path; ":memory:" for an in-memory database
  --log-level, --log-format

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (waits for a running batch)
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server serve --db=./data/amc.db --port=3000
  ./server due-check --config=amc.yaml
  ./server till-year 8f14e45f 2027

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
  - api/scheduler.go: Cron scheduler
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/warp/amc-engine/amc"
	"github.com/warp/amc-engine/api"
	"github.com/warp/amc-engine/config"
	"github.com/warp/amc-engine/logging"
	"github.com/warp/amc-engine/store/sqlite"
)

type options struct {
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string
	port       int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled due-check",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	serve.Flags().IntVar(&opts.port, "port", 0, "HTTP server port")

	root := &cobra.Command{
		Use:          "server",
		Short:        "AMC payment-cycle engine",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "text or json")
	root.Flags().IntVar(&opts.port, "port", 0, "HTTP server port")

	dueCheck := &cobra.Command{
		Use:   "due-check",
		Short: "Run one due-check batch and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDueCheck(cmd, opts)
		},
	}

	tillYear := &cobra.Command{
		Use:   "till-year <amc-id> <year>",
		Short: "Create missing payments for an AMC through the end of a year",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("year %q: %w", args[1], err)
			}
			return runTillYear(cmd, opts, args[0], year)
		},
	}

	root.AddCommand(serve, dueCheck, tillYear)
	return root
}

// loadConfig layers command-line flags over the file and environment and
// validates once all layers are applied.
func loadConfig(opts *options) (config.Config, error) {
	cfg, err := config.Read(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if opts.port != 0 {
		cfg.Port = opts.port
	}
	if cfg.DueCheck.Schedule == "" {
		cfg.DueCheck.Schedule = config.Default().DueCheck.Schedule
	}
	return cfg, cfg.Validate()
}

// bootstrap opens the store and builds the synchronizer shared by every command.
func bootstrap(opts *options) (config.Config, *slog.Logger, *sqlite.Store, *amc.Synchronizer, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return cfg, nil, nil, nil, err
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return cfg, logger, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	syncer := amc.NewSynchronizer(store, logger)
	if cfg.DueCheck.Concurrency > 0 {
		syncer.Concurrency = cfg.DueCheck.Concurrency
	}
	return cfg, logger, store, syncer, nil
}

func runServe(cmd *cobra.Command, opts *options) error {
	cfg, logger, store, syncer, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	metrics := api.MustNewMetrics(registry)

	scheduler, err := api.NewDueCheckScheduler(store, syncer, metrics, logger, cfg.DueCheck.Schedule)
	if err != nil {
		return err
	}
	scheduler.Enabled = cfg.DueCheck.Enabled

	handler := api.NewHandler(store, syncer, scheduler, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Gatherer:       registry,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // manual due-check runs synchronously
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if err := scheduler.Start(); err != nil {
		return err
	}

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		scheduler.Stop()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func runDueCheck(cmd *cobra.Command, opts *options) error {
	cfg, _, store, syncer, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	scheduler, err := api.NewDueCheckScheduler(store, syncer, nil, syncer.Logger, cfg.DueCheck.Schedule)
	if err != nil {
		return err
	}
	run, err := scheduler.RunNow(cmd.Context())
	if err != nil {
		return err
	}

	r := run.Result
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: processed=%d updated=%d skipped=%d errors=%d new_payments=%d\n",
		run.ID, r.Processed, r.Updated, r.Skipped, r.Errors, r.NewPaymentsAdded)
	return nil
}

func runTillYear(cmd *cobra.Command, opts *options, amcID string, year int) error {
	_, _, store, syncer, err := bootstrap(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := syncer.CreatePaymentsTillYear(cmd.Context(), amcID, year)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (amc %s, %d payments total)\n", result.Message, result.AMCID, result.TotalPayments)
	return nil
}
