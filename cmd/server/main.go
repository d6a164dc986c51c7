package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"syscall"

	"github.com/oklog/run"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"timed-cache/internal/api"
	"timed-cache/internal/clock"
	"timed-cache/internal/config"
	"timed-cache/internal/logs"
	"timed-cache/internal/metrics"
	"timed-cache/internal/store"
	"timed-cache/internal/ttl"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	if err := runServer(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	// Logger
	level, err := logs.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logs.NewLogger(cfg.Log.BufferSize, level, zapcore.Lock(os.Stdout))
	defer logger.Sync()

	// Metrics
	metricsRegistry := metrics.NewRegistry()

	// Store
	cacheStore, err := store.NewStore(clock.System{}, store.Options{
		Backend:      cfg.Cache.Backend,
		SweepTickCap: cfg.Cache.SweepTickCap,
	}, metricsRegistry)
	if err != nil {
		return errors.Wrap(err, "create store")
	}

	// TTL cleaner
	ttlCleaner := ttl.NewCleaner(
		cacheStore,
		cfg.Cache.CleanupInterval.Duration,
		logger,
		metricsRegistry,
	)

	// API
	handler := api.NewHandler(
		cacheStore,
		metricsRegistry,
		logger,
		cfg.Cache.DefaultTTL.Duration,
	)
	mux := http.NewServeMux()
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.RegisterRoutes(mux, handler),
	}

	var g run.Group
	{
		// Termination handler.
		g.Add(run.SignalHandler(context.Background(), os.Interrupt, syscall.SIGTERM))
	}
	{
		// TTL cleaner.
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(
			func() error {
				ttlCleaner.Start(ctx)
				return nil
			},
			func(error) {
				cancel()
			},
		)
	}
	{
		// HTTP server.
		g.Add(
			func() error {
				logger.Info("server started",
					zap.String("addr", cfg.Server.Addr),
					zap.String("backend", string(cfg.Cache.Backend)),
				)
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			},
			func(error) {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					logger.Warn("http shutdown", zap.Error(err))
				}
			},
		)
	}

	err = g.Run()

	var sig run.SignalError
	if errors.As(err, &sig) {
		logger.Info("shutting down", zap.String("signal", sig.Signal.String()))
		return nil
	}
	return err
}
