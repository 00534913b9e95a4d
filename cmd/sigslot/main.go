// Package main is the sigslot command line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dshills/sigslot/internal/config"
	"github.com/dshills/sigslot/internal/logging"
	"github.com/dshills/sigslot/internal/metrics"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// app holds what every subcommand needs after flag parsing.
type app struct {
	configPath string
	logLevel   string
	jsonLogs   bool

	cfg      *config.Config
	logger   *logging.Logger
	recorder *metrics.Recorder
}

func main() {
	os.Exit(run())
}

func run() int {
	a := &app{}
	root := a.rootCmd()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sigslot",
		Short: "Signals, slots and live properties",
		Long: `sigslot demonstrates a typed signal/slot library: plain and extended
signals, throttled, threaded and timer signals, signal sets and live
properties whose changes can be vetoed.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to configuration file (TOML or YAML)")
	flags.StringVar(&a.logLevel, "log-level", "", "Override the configured log level")
	flags.BoolVar(&a.jsonLogs, "json-logs", false, "Write logs as JSON")

	root.AddCommand(
		a.demoCmd(),
		a.runCmd(),
		versionCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger and metrics
// recorder shared by the subcommands.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		if !logging.ValidLevel(a.logLevel) {
			return fmt.Errorf("invalid log level %q", a.logLevel)
		}
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	a.logger = logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: cmd.ErrOrStderr(),
		Prefix: "sigslot",
		JSON:   a.jsonLogs,
	})
	logging.SetDefault(a.logger)

	a.recorder = metrics.New(
		metrics.WithNamespace(cfg.Metrics.Namespace),
		metrics.WithRegistry(prometheus.NewRegistry()),
	)

	a.logger.Debug("configuration: %s", cfg)
	return nil
}

// serveMetrics serves /metrics until ctx is done when metrics.addr is set.
// The returned function waits for the server to shut down.
func (a *app) serveMetrics(ctx context.Context) func() {
	if a.cfg.Metrics.Addr == "" {
		return func() {}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", a.recorder.Handler())

	srv := &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger := a.logger.WithComponent("metrics")
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("serving metrics on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown: %v", err)
		}
	}()

	return func() {
		<-stopped
		<-done
	}
}
