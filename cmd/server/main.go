package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"printquote/backend/internal/cache"
	"printquote/backend/internal/config"
	"printquote/backend/internal/httpapi"
	"printquote/backend/internal/logging"
	"printquote/backend/internal/service"
	"printquote/backend/internal/store"
	"printquote/backend/internal/store/memory"
	pgstore "printquote/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	logger, closeLog := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		_ = closeLog()
		os.Exit(1)
	}
	_ = closeLog()
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := validateSecurityConfig(cfg); err != nil {
		return fmt.Errorf("invalid security configuration: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return fmt.Errorf("migrate postgres: %w", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository ready", "backend", "postgres")
	} else {
		seeded, err := memory.NewSeeded()
		if err != nil {
			return fmt.Errorf("seed in-memory store: %w", err)
		}
		repo = seeded
		logger.Info("repository ready", "backend", "memory")
	}

	var quoteCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using noop cache", "error", err)
		} else {
			quoteCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("cache ready", "backend", "redis")
		}
	} else {
		logger.Info("cache ready", "backend", "noop")
	}

	svc := service.New(repo, quoteCache, service.Options{
		QuoteTTL:           cfg.QuoteTTL(),
		EvaluationCacheTTL: cfg.EvaluationCacheTTL(),
		SimulationWorkers:  cfg.SimulationWorkers,
		SimulationSeed:     cfg.SimulationSeed,
		SimulationQuantity: cfg.SimulationQuantity,
		Logger:             logger,
	})
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("quote backend listening", "addr", cfg.Address())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case err := <-serverErr:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if err := svc.Shutdown(shutdownCtx); err != nil {
		logger.Warn("simulation shutdown", "error", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", "error", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AllowedOrigin == "*" {
		return fmt.Errorf("ALLOWED_ORIGIN must name a single origin")
	}
	return nil
}
