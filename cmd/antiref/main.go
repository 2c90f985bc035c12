// Command antiref runs the multi-resolution clustering pipeline: one
// external clustering pass per configured identity threshold, then the
// membership manifest and the compression-efficiency report.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/antiref/internal/app"
	"github.com/okian/antiref/internal/config"
	"github.com/okian/antiref/pkg/logger"
	"github.com/okian/antiref/pkg/metrics"
)

// Metrics listener timeout constants.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr directly since the logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM. Aborting mid-step
	// abandons the whole in-flight step; a retry starts it from scratch.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		return 1
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Optional metrics listener for scraping a long run mid-flight.
	if cfg.MetricsAddr != "" {
		srv := startMetricsListener(ctx, log, cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	pipeline, err := app.New(
		app.WithLevels(cfg.Levels()),
		app.WithBaseline(cfg.Baseline()),
		app.WithInputDB(cfg.InputDB),
		app.WithWorkDir(cfg.WorkDir),
		app.WithOutputDir(cfg.OutputDir),
		app.WithBinary(cfg.MMseqsBin),
		app.WithManifestWorkers(cfg.ManifestWorkers),
		app.WithLogger(log.Named("pipeline")),
	)
	if err != nil {
		log.Error(ctx, "failed to configure pipeline", logger.Error(err))
		return 1
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		log.Error(ctx, "pipeline failed", logger.Error(err))
		return 1
	}

	log.Info(ctx, "pipeline completed",
		logger.String("run_id", result.RunID),
		logger.String("manifest", result.ManifestPath),
		logger.Int("manifest_rows", result.ManifestRows),
		logger.String("efficiency", result.EfficiencyPath),
	)
	return 0
}

// startMetricsListener serves /metrics from the custom registry.
func startMetricsListener(ctx context.Context, log logger.Logger, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "metrics listener started", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(ctx, "metrics listener failed", logger.Error(err))
		}
	}()
	return srv
}
