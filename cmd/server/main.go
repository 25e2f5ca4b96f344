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

	"nospace/internal/logging"
	"nospace/internal/server/api"
	"nospace/internal/server/config"
	"nospace/internal/server/database"
	"nospace/internal/server/metrics"
	"nospace/internal/server/service"
	"nospace/internal/server/storage"

	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg := config.Load()

	// Structured logging
	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	logging.Info("configuration loaded",
		zap.String("port", cfg.Port),
		zap.String("metrics_addr", cfg.MetricsAddr),
		zap.String("storage_path", cfg.StoragePath),
		zap.Int64("max_log_size", cfg.MaxLogSize),
		zap.Duration("default_expiry", cfg.DefaultExpiry),
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(ctx); err != nil {
		logging.Fatal("failed to run migrations", zap.Error(err))
	}
	logging.Info("database migrations complete")

	// Initialize storage
	store := storage.NewFileSystemStore(cfg.StoragePath)
	if err := store.EnsureDir(); err != nil {
		logging.Fatal("failed to initialize storage", zap.Error(err))
	}
	logging.Info("transcript storage initialized", zap.String("path", cfg.StoragePath))

	// Initialize repository and service
	repo := database.NewRepository(db)
	svc := service.NewAnalysisService(repo, store, cfg)

	// Start cleanup service
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	cleanup := storage.NewCleanupService(repo, store, cfg.CleanupInterval)
	cleanup.Start(cleanupCtx)

	// Setup HTTP router
	handler := api.NewHandler(svc, db)
	e, limiter := api.SetupRouter(handler, cfg)

	// Metrics on their own listener so they stay off the public API
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.Info("starting metrics server", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server failed", zap.Error(err))
		}
	}()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logging.Info("starting server", zap.String("addr", addr), zap.String("base_url", cfg.BaseURL))
		if err := e.Start(addr); err != nil {
			logging.Info("server stopped", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logging.Info("shutting down", zap.Stringer("signal", sig))

	// Stop accepting new requests, finish in-flight with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error("server forced to shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("metrics server forced to shutdown", zap.Error(err))
	}
	limiter.Stop()

	// Stop cleanup service
	cleanupCancel()
	cleanup.Wait()

	logging.Info("server exited cleanly")
}
