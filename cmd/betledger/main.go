package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"betledger/internal/amqp"
	"betledger/internal/backend"
	"betledger/internal/cache"
	"betledger/internal/cli"
	"betledger/internal/config"
	"betledger/internal/core"
	apphttp "betledger/internal/http"
	"betledger/internal/log"
	"betledger/internal/metrics"
	"betledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	result, err := backend.NewFactory(logger).CreateBackend(startCtx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize data backend", err, log.FieldBackend, cfg.DataBackend)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	dashboards, cacheCleanup := setupCache(startCtx, cfg, logger)

	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Publishing is best-effort; the API keeps working without it.
			logger.Warn("AMQP unavailable, entry events disabled", log.FieldError, err, log.FieldErrorType, log.ErrorTypeNetwork)
		} else {
			publisher = amqpClient
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	opts := services.Options{Views: services.NewViews(dashboards), Publisher: publisher, Metrics: m, Logger: logger}
	srv := apphttp.NewServer(apphttp.Config{
		Addr:           ":" + cfg.Port,
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
		IdentityHeader: cfg.IdentityHeader,
		RateLimit:      cfg.RateLimit,
	}, apphttp.Deps{
		Finance:      services.NewFinanceService(result.Store, opts),
		Verification: services.NewVerificationService(result.Store, opts),
		Betting:      services.NewBettingService(result.Store, opts),
		Store:        result.Store,
		Metrics:      m,
		Logger:       logger,
	})
	srv.ReadTimeout = 15 * time.Second
	srv.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if amqpClient != nil {
			amqpClient.Close()
		}
		cacheCleanup()
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting betledger server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend, log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// setupCache returns the dashboard cache: Redis when REDIS_URL is set and
// reachable, the in-process LRU otherwise.
func setupCache(ctx context.Context, cfg *config.Config, logger *log.Logger) (cache.Cache[core.Dashboard], func()) {
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("Using Redis dashboard cache", "ttl", cfg.CacheTTL.String())
			return cache.NewRedisCache[core.Dashboard](client, cfg.CacheTTL, logger), func() { closeRedis(client, logger) }
		}
		logger.Warn("Redis unavailable, falling back to in-process cache", log.FieldError, err, log.FieldErrorType, log.ErrorTypeNetwork)
	}

	lru := cache.NewLRUCache[core.Dashboard](cfg.CacheSize, cfg.CacheTTL)
	manager := cache.NewManager(logger)
	manager.Register(lru)
	manager.StartCleanup(cfg.CacheCleanupInterval)
	return lru, manager.Stop
}

func closeRedis(client *redis.Client, logger *log.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("Redis close error", log.FieldError, err)
	}
}
