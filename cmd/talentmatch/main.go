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

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/app"
	"github.com/kailas-cloud/talentmatch/internal/config"
	logpkg "github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
	chiTransport "github.com/kailas-cloud/talentmatch/internal/transport/chi"
	"github.com/kailas-cloud/talentmatch/internal/version"
)

func main() {
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

	logger.Info("Starting talentmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("document_store", cfg.DocumentStore.Driver),
		zap.String("vector_index", cfg.VectorIndex.Driver),
		zap.String("fusion", cfg.Fusion.Strategy),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRetrievalMetrics()

	ctx := context.Background()
	a, err := app.Build(ctx, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}
	defer a.Close()

	if err := a.Maintenance.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure vector indexes", zap.Error(err))
	}

	server := chiTransport.NewServer(a.Candidates, a.Projects, a.Retrieval, a.Health, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		CookieName: cfg.Auth.CookieName,
	}, logger)
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret is empty, every owner-scoped request will be rejected")
	}

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
