package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/collector"
	"github.com/pcarvalho/brandwatch/internal/config"
	"github.com/pcarvalho/brandwatch/internal/db"
	"github.com/pcarvalho/brandwatch/internal/metrics"
	"github.com/pcarvalho/brandwatch/internal/provider"
	"github.com/pcarvalho/brandwatch/internal/queue"
	"github.com/pcarvalho/brandwatch/internal/scheduler"
	"github.com/pcarvalho/brandwatch/internal/storage/redis"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Database
	database, err := db.NewConnection(cfg.Database.URL, cfg.Database.MaxConnections, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := db.Migrate(cfg.Database.URL); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repo := db.NewRepository(database)

	// Redis
	cache := redis.NewClient(cfg.Redis.URL)
	defer cache.Close()

	triggers := queue.NewRedisQueue(cache.Client)

	// Metrics
	metricsCollector := metrics.NewCollector(cfg.Mimir)

	// Credential pool, seeded from persisted health so cool-downs survive
	// restarts
	pool := provider.NewPool(cfg.Provider.Tokens, cfg.Provider.RequestsPerMin, repo, logger)
	restorePoolHealth(pool, repo, logger)

	client := provider.NewClient(cfg.Provider.BaseURL, pool, cfg.Provider.RequestTimeout, cfg.Provider.RateLimitStatus, logger)

	// Orchestrator and scheduler
	orchestrator := collector.NewOrchestrator(repo, client, cache, metricsCollector, logger)
	sched := scheduler.NewScheduler(repo, orchestrator, logger)
	sweeper := scheduler.NewRetentionSweeper(repo, cfg.Scheduler.RetentionDays, metricsCollector, logger)

	ctx, cancel := context.WithCancel(context.Background())

	go sched.Start(ctx)
	go sched.ConsumeTriggers(ctx, triggers, cfg.Scheduler.TriggerPollTimeout)
	go sweeper.Start(ctx)
	go metricsCollector.StartRemoteWrite(ctx)
	go recordPoolHealth(ctx, pool, metricsCollector)

	// The scheduler process has no gin surface; expose prometheus directly.
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+cfg.Scheduler.MetricsPort, nil); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics listener failed", zap.Error(err))
		}
	}()

	logger.Info("Scheduler started",
		zap.Int("credential_pool_size", pool.Size()),
		zap.Int("retention_days", cfg.Scheduler.RetentionDays),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	cancel()
	time.Sleep(time.Second)
	logger.Info("Scheduler exited")
}

func recordPoolHealth(ctx context.Context, pool *provider.Pool, collector *metrics.Collector) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, cred := range pool.Snapshot() {
				collector.RecordCredentialState(cred.ID, cred.Active, cred.ErrorCount)
			}
		}
	}
}

func restorePoolHealth(pool *provider.Pool, repo *db.Repository, logger *zap.Logger) {
	persisted, err := repo.ListCredentialHealth()
	if err != nil {
		logger.Warn("Failed to load persisted credential health", zap.Error(err))
		return
	}
	for _, h := range persisted {
		lastUsed := time.Time{}
		if h.LastUsedAt != nil {
			lastUsed = *h.LastUsedAt
		}
		reactivate := time.Time{}
		if h.ReactivateAt != nil {
			reactivate = *h.ReactivateAt
		}
		pool.RestoreHealth(h.ID, h.Active, h.ErrorCount, lastUsed, reactivate)
	}
}
