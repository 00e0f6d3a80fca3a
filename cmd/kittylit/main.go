package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kittylit/kittylit/internal/app"
	"github.com/kittylit/kittylit/internal/config"
	logpkg "github.com/kittylit/kittylit/internal/logger"
	"github.com/kittylit/kittylit/internal/metrics"
	chiTransport "github.com/kittylit/kittylit/internal/transport/chi"
	"github.com/kittylit/kittylit/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kittylit API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("cache_preload", cfg.Cache.Preload),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterRecommendMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := app.OpenStores(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open stores", zap.Error(err))
	}
	defer stores.Close()
	logger.Info("Connected to book store")

	if cfg.Database.Driver == config.DriverRedis {
		if err := stores.Books.EnsureIndex(ctx); err != nil {
			logger.Fatal("Failed to ensure book index", zap.Error(err))
		}
	}

	svc, err := app.Build(&cfg, stores, logger)
	if err != nil {
		logger.Fatal("Failed to build recommendation service", zap.Error(err))
	}

	// A missing snapshot is not fatal: every query falls back to the book store.
	if err := svc.LoadCache(ctx); err != nil {
		logger.Warn("Initial cache load failed, starting with an empty cache", zap.Error(err))
	}
	go svc.RefreshCache(ctx, time.Duration(cfg.Cache.RefreshIntervalSec)*time.Second)

	server := chiTransport.NewServer(svc.Recommender, svc.Normalizer, svc.Health, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		APIKeys:           cfg.Auth.APIKeys,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
