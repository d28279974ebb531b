package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"capital_ledger/internal/api"
	"capital_ledger/internal/loader"
	"capital_ledger/internal/reconcile"
	"capital_ledger/internal/replay"
	"capital_ledger/internal/report"
	"capital_ledger/internal/repository/memory"
	"capital_ledger/internal/timeline"
	"capital_ledger/internal/validate"
	"capital_ledger/pkg/metrics"
)

const appName = "capital_ledger"

type Config struct {
	DataDir     string `env:"DATA_DIR" envDefault:"data"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Serve keeps the process alive after loading so the replay can be
	// stepped and inspected over HTTP instead of running to completion.
	Serve bool `env:"SERVE" envDefault:"false"`
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("Failed to parse configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info("Starting application",
		slog.String("name", appName),
		slog.String("data_dir", cfg.DataDir))

	batch, err := loader.New(cfg.DataDir, logger).Load()
	if err != nil {
		logger.Error("Failed to load data", slog.String("error", err.Error()))
		os.Exit(1)
	}

	out := report.New(os.Stdout)

	validation := validate.NewBatchValidator().Validate(batch)
	out.WriteValidation(validation)
	if !validation.OK() {
		logger.Error("Validation failed, refusing to replay",
			slog.Int("errors", len(validation.Errors)))
		os.Exit(1)
	}

	tl, err := timeline.NewBuilder().Build(batch)
	if err != nil {
		logger.Error("Failed to build timeline", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Timeline built", slog.Int("events", tl.Len()))

	collector := metrics.NewCollector(logger)
	playerRepo := memory.NewPlayerRepository()
	plotRepo := memory.NewPlotRepository()

	engine := replay.NewEngine(playerRepo, plotRepo, tl,
		replay.WithLogger(logger),
		replay.WithMetrics(collector),
	)
	matcher := reconcile.NewMatcher(playerRepo, logger)

	if cfg.Serve {
		serve(cfg, engine, playerRepo, plotRepo, matcher, collector, logger)
		return
	}

	ctx := context.Background()
	if err := engine.Run(ctx); err != nil {
		logger.Error("Replay failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	players, err := playerRepo.GetAll(ctx)
	if err != nil {
		logger.Error("Failed to read players", slog.String("error", err.Error()))
		os.Exit(1)
	}
	plots, err := plotRepo.GetAll(ctx)
	if err != nil {
		logger.Error("Failed to read plots", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, p := range players {
		collector.SetPlayerCredits(p.Name, p.Credits)
	}

	reconciliation := matcher.Match(ctx, engine.CashOuts(), engine.Settlements())
	collector.SetReconciliation(
		len(reconciliation.Matched),
		len(reconciliation.Owed),
		len(reconciliation.Unexplained),
	)

	out.WriteFinalState(players, plots)
	out.WriteFailures(engine.Failures())
	out.WriteReconciliation(reconciliation)
	out.WriteAccountBalances(engine.Settlements())

	logger.Info("Replay complete",
		slog.Int("events", tl.Len()),
		slog.Int("rejected_moves", len(engine.Failures())),
		slog.Int("matched", len(reconciliation.Matched)),
		slog.Int("owed", len(reconciliation.Owed)),
		slog.Int("unexplained", len(reconciliation.Unexplained)))
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler).With(slog.String("run_id", uuid.NewString()))
}

func serve(
	cfg Config,
	engine *replay.Engine,
	playerRepo *memory.PlayerRepository,
	plotRepo *memory.PlotRepository,
	matcher *reconcile.Matcher,
	collector *metrics.Collector,
	logger *slog.Logger,
) {
	apiHandler := api.NewAPIHandler(engine, playerRepo, plotRepo, matcher, logger)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      apiHandler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	metricsServer := collector.StartMetricsServer(cfg.MetricsAddr)

	waitForShutdown(logger, httpServer, metricsServer)
	logger.Info("Application shutdown complete")
}

func waitForShutdown(logger *slog.Logger, httpServer, metricsServer *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}
}
