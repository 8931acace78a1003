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
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/spherenn/internal/config"
	"github.com/kailas-cloud/spherenn/internal/db"
	"github.com/kailas-cloud/spherenn/internal/db/memory"
	dbRedis "github.com/kailas-cloud/spherenn/internal/db/redis"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	logpkg "github.com/kailas-cloud/spherenn/internal/logger"
	"github.com/kailas-cloud/spherenn/internal/metrics"
	refsetrepo "github.com/kailas-cloud/spherenn/internal/repository/refset"
	reportrepo "github.com/kailas-cloud/spherenn/internal/repository/report"
	"github.com/kailas-cloud/spherenn/internal/search/engine"
	chiTransport "github.com/kailas-cloud/spherenn/internal/transport/chi"
	healthuc "github.com/kailas-cloud/spherenn/internal/usecase/health"
	refsetuc "github.com/kailas-cloud/spherenn/internal/usecase/refset"
	"github.com/kailas-cloud/spherenn/internal/version"
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

	logger.Info("Starting spherenn API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("engine", cfg.Index.Engine),
		zap.String("metric", cfg.Index.Metric),
	)

	store, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Validated by config.Validate, errors are impossible here
	engineName, _ := engine.Parse(cfg.Index.Engine)
	metric, _ := geo.ParseMetric(cfg.Index.Metric)

	refsets := refsetuc.New(
		refsetrepo.New(store, cfg.Storage.KeyPrefix),
		reportrepo.New(store, cfg.Storage.KeyPrefix, time.Duration(cfg.Validation.ReportTTLSec)*time.Second),
		refsetuc.Config{
			Engine:         engineName,
			Metric:         metric,
			LeafSize:       cfg.Index.LeafSize,
			VPEffort:       cfg.Index.VPEffort,
			MaxPoints:      cfg.Index.MaxPoints,
			MaxK:           cfg.Index.MaxK,
			Tolerance:      cfg.Validation.Tolerance,
			DefaultQueries: cfg.Validation.DefaultQueries,
			MaxQueries:     cfg.Validation.MaxQueries,
			Seed:           cfg.Validation.Seed,
			Workers:        cfg.Validation.Workers,
			CoverageOrder:  cfg.Validation.CoverageOrder,
		},
		logger,
	)
	healthSvc := healthuc.New(store, refsets)

	server := chiTransport.NewServer(refsets, healthSvc, logger).
		WithMaxBodyBytes(int64(cfg.HTTP.MaxBodyBytes))

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
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

// openStore picks the storage backend. Redis and Valkey share the rueidis client.
func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), nil
	case "redis", "valkey":
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
