// Command worker consumes queued report generation jobs.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/commentrank/channel-report-go/internal/cache"
	"github.com/commentrank/channel-report-go/internal/collector"
	"github.com/commentrank/channel-report-go/internal/config"
	"github.com/commentrank/channel-report-go/internal/db"
	"github.com/commentrank/channel-report-go/internal/db/repository"
	"github.com/commentrank/channel-report-go/internal/queue"
	"github.com/commentrank/channel-report-go/internal/quota"
	"github.com/commentrank/channel-report-go/internal/resolver"
	"github.com/commentrank/channel-report-go/internal/youtube"
	"github.com/commentrank/channel-report-go/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	client, err := youtube.NewClient(ctx, cfg.YouTube.APIKey)
	if err != nil {
		logger.Log.Fatal("failed to initialize YouTube client", zap.Error(err))
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Log.Fatal("invalid redis URL", zap.Error(err))
	}
	redisClient := redis.NewClient(opts)

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Log.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Log.Info("redis connection established", zap.String("url", opts.Addr))

	memo := cache.NewRedisCache(redisClient, "memo")

	var resolverQuota resolver.QuotaRecorder
	var collectorQuota collector.QuotaRecorder
	if cfg.YouTube.QuotaTrackingOn {
		pool, err := db.NewPool(ctx, &db.Config{
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
			logger.Log.Fatal("failed to initialize database", zap.Error(err))
		}
		defer db.Close(pool)

		manager := quota.NewManager(
			repository.NewQuotaRepository(pool),
			cfg.YouTube.DailyQuota,
			cfg.YouTube.QuotaThreshold,
		)
		resolverQuota = manager
		collectorQuota = manager

		exhausted, err := manager.Exhausted(ctx)
		if err != nil {
			logger.Log.Fatal("failed to check quota status", zap.Error(err))
		}
		if exhausted {
			// Keep running so the queue drains once the daily quota resets.
			logger.Log.Warn("daily quota threshold already reached")
		}
	}

	res := resolver.New(client, memo, cfg.Cache.TTL, resolverQuota, nil)
	col := collector.New(client, memo, cfg.Cache.TTL, collectorQuota, nil)

	store := queue.NewReportStore(redisClient, cfg.Redis.ReportTTL)
	reportHandler := queue.NewReportHandler(res, col, store)

	server, err := queue.NewServer(cfg.Redis.URL, cfg.Worker.Concurrency, reportHandler)
	if err != nil {
		logger.Log.Fatal("failed to create queue server", zap.Error(err))
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	logger.Log.Info("worker started",
		zap.Int("concurrency", cfg.Worker.Concurrency),
	)

	select {
	case err := <-serverErr:
		logger.Log.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Log.Info("shutdown signal received", zap.String("signal", sig.String()))
		server.Stop()
		logger.Log.Info("worker stopped gracefully")
	}
}
