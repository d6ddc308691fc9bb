// Command gonfalond runs the feature flag service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/OrlandoBitencourt/gonfalon/internal/audit"
	"github.com/OrlandoBitencourt/gonfalon/internal/cache"
	"github.com/OrlandoBitencourt/gonfalon/internal/config"
	"github.com/OrlandoBitencourt/gonfalon/internal/logger"
	"github.com/OrlandoBitencourt/gonfalon/internal/server"
	"github.com/OrlandoBitencourt/gonfalon/internal/service"
	"github.com/OrlandoBitencourt/gonfalon/internal/store"
	"github.com/OrlandoBitencourt/gonfalon/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gonfalond: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flagStore, auditLog, err := buildStorage(cfg)
	if err != nil {
		return err
	}
	defer flagStore.Close()
	defer auditLog.Close()

	flagCache, err := buildCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer flagCache.Close()

	meterProvider := sdkmetric.NewMeterProvider()
	otel.SetMeterProvider(meterProvider)
	defer meterProvider.Shutdown(context.Background())

	tel, err := telemetry.NewOTel()
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	svc, err := service.New(flagStore, flagCache, auditLog,
		service.WithCacheTTL(cfg.CacheTTL),
		service.WithTelemetry(tel),
		service.WithLogger(log),
	)
	if err != nil {
		return err
	}

	srv := server.New(svc,
		server.WithAPIKey(cfg.APIKey),
		server.WithLogger(log),
	)

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr, "cache_backend", cfg.CacheBackend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildStorage(cfg config.Config) (store.Store, audit.Log, error) {
	if cfg.BoltPath == "" {
		return store.NewMemory(), audit.NewMemoryLog(), nil
	}

	flagStore, err := store.OpenBolt(cfg.BoltPath)
	if err != nil {
		return nil, nil, err
	}
	auditLog, err := audit.NewBoltLog(flagStore.DB())
	if err != nil {
		flagStore.Close()
		return nil, nil, err
	}
	return flagStore, auditLog, nil
}

func buildCache(ctx context.Context, cfg config.Config) (cache.FlagCache, error) {
	switch cfg.CacheBackend {
	case "ristretto":
		rcfg := cache.DefaultRistrettoConfig()
		rcfg.DefaultTTL = cfg.CacheTTL
		return cache.NewRistretto(rcfg)

	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return cache.NewRedis(client, cache.WithRedisDefaultTTL(cfg.CacheTTL)), nil

	default:
		return cache.NewMemory(cache.WithDefaultTTL(cfg.CacheTTL)), nil
	}
}
