// Command server exposes the channel comment report API over HTTP.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/commentrank/channel-report-go/internal/cache"
	"github.com/commentrank/channel-report-go/internal/collector"
	"github.com/commentrank/channel-report-go/internal/config"
	"github.com/commentrank/channel-report-go/internal/db"
	"github.com/commentrank/channel-report-go/internal/db/repository"
	"github.com/commentrank/channel-report-go/internal/handler"
	"github.com/commentrank/channel-report-go/internal/middleware"
	"github.com/commentrank/channel-report-go/internal/queue"
	"github.com/commentrank/channel-report-go/internal/quota"
	"github.com/commentrank/channel-report-go/internal/resolver"
	"github.com/commentrank/channel-report-go/internal/youtube"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	client, err := youtube.NewClient(ctx, cfg.YouTube.APIKey)
	if err != nil {
		logger.Error("failed to initialize YouTube client", "error", err)
		os.Exit(1)
	}

	// Redis backs the shared memoization cache and the async report queue.
	// Without it the server still answers synchronous reports from memory.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Warn("invalid redis URL, falling back to in-memory cache", "error", err)
		} else {
			redisClient = redis.NewClient(opts)
		}
	}

	var memo cache.Cache
	if redisClient != nil {
		memo = cache.NewRedisCache(redisClient, "memo")
	} else {
		memo = cache.NewMemoryCache()
	}

	// The quota ledger is optional: without Postgres the server serves
	// reports but does not track spend.
	var pool interface {
		Ping(ctx context.Context) error
	}
	var resolverQuota resolver.QuotaRecorder
	var collectorQuota collector.QuotaRecorder

	if cfg.YouTube.QuotaTrackingOn {
		dbPool, err := db.NewPool(ctx, &db.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Name,
			SSLMode:         cfg.Database.SSLMode,
			MaxConns:        int32(cfg.Database.MaxConnections),
			MinConns:        int32(cfg.Database.MinConnections),
			MaxConnLifetime: cfg.Database.MaxLifetime,
			MaxConnIdleTime: cfg.Database.MaxIdleTime,
		})
		if err != nil {
			logger.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer db.Close(dbPool)

		manager := quota.NewManager(
			repository.NewQuotaRepository(dbPool),
			cfg.YouTube.DailyQuota,
			cfg.YouTube.QuotaThreshold,
		)
		pool = dbPool
		resolverQuota = manager
		collectorQuota = manager

		logger.Info("quota tracking enabled",
			"daily_quota", cfg.YouTube.DailyQuota,
			"threshold_percent", cfg.YouTube.QuotaThreshold,
		)
	}

	res := resolver.New(client, memo, cfg.Cache.TTL, resolverQuota, logger)
	col := collector.New(client, memo, cfg.Cache.TTL, collectorQuota, logger)

	// Async report endpoints need both the queue and the hand-off store.
	var enqueuer handler.ReportEnqueuer
	var statusStore handler.ReportStatusStore
	if redisClient != nil {
		store := queue.NewReportStore(redisClient, cfg.Redis.ReportTTL)
		queueClient, err := queue.NewClient(cfg.Redis.URL, store)
		if err != nil {
			logger.Warn("failed to initialize queue client, async reports disabled", "error", err)
		} else {
			defer queueClient.Close()
			enqueuer = queueClient
			statusStore = store
			logger.Info("async report queue initialized")
		}
	}

	reportHandler := handler.NewReportHandler(res, col, enqueuer, statusStore, logger)

	var redisPing handler.Pinger
	if redisClient != nil {
		redisPing = redisPinger{redisClient}
	}
	healthHandler := handler.NewHealthHandler(pool, redisPing)

	if len(cfg.Server.APIKeys) == 0 {
		logger.Warn("no API keys configured - report endpoints will reject all requests")
	}
	auth := middleware.NewAPIKeyAuth(cfg.Server.APIKeys, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	router.GET("/health/live", healthHandler.LivenessProbe)
	router.GET("/health/ready", healthHandler.ReadinessProbe)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1", auth.Middleware())
	api.GET("/report", reportHandler.GetReport)
	api.POST("/reports", reportHandler.CreateReport)
	api.GET("/reports/:id", reportHandler.GetReportByID)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
			if err := server.Close(); err != nil {
				logger.Error("failed to close server", "error", err)
			}
			os.Exit(1)
		}

		logger.Info("server stopped gracefully")
	}
}

// redisPinger adapts the go-redis client to the health handler's Pinger.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
