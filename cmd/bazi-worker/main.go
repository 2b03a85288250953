// Package main 批量排盘执行器入口（bazi-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/application/batch"
	"bazi-engine-api/internal/config"
	"bazi-engine-api/internal/domain/repository"
	"bazi-engine-api/internal/infrastructure/calendar"
	"bazi-engine-api/internal/infrastructure/messaging"
	"bazi-engine-api/internal/infrastructure/persistence/milvus"
	"bazi-engine-api/internal/infrastructure/persistence/postgres"
	"bazi-engine-api/internal/infrastructure/persistence/redis"
	"bazi-engine-api/pkg/logger"
	"bazi-engine-api/pkg/tracer"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.Features.Batch.Enabled {
		logger.Fatal(ctx, "batch feature is disabled, nothing to consume", batch.ErrQueueDisabled)
	}

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "bazi-worker",
		Version:     cfg.App.Version,
		Environment: cfg.App.Env,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	txMgr := postgres.NewTxManager(pgClient)
	jobRepo := postgres.NewAnalysisJobRepository(pgClient)

	var chartRepo repository.ChartRepository
	if cfg.Features.Archive.Enabled {
		chartRepo = postgres.NewChartRepository(pgClient)
	}

	var index analysis.FeatureIndex
	if cfg.Vector.Milvus.Enabled && cfg.Features.Similar.Enabled {
		milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
		if err != nil {
			logger.Warn(ctx, "milvus not available, feature indexing disabled", "error", err.Error())
		} else {
			defer func() { _ = milvusClient.Close() }()
			fi := milvus.NewFeatureIndex(milvusClient)
			if err := fi.EnsureCollection(ctx); err != nil {
				logger.Warn(ctx, "milvus collection not ready, feature indexing disabled", "error", err.Error())
			} else {
				index = fi
			}
		}
	}

	analysisSvc := analysis.NewService(
		analysis.NewEngine(),
		redis.NewProfileCache(redisClient),
		chartRepo,
		index,
		calendar.NewAlmanac(),
		cfg.Cache.ProfileTTL,
	)

	queue := messaging.NewProducer(
		redisClient.Redis(),
		messaging.Stream(cfg.Messaging.RedisStream.Stream),
		cfg.Messaging.RedisStream.MaxLen,
	)
	batchSvc := batch.NewService(analysisSvc, jobRepo, queue)

	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.Stream(cfg.Messaging.RedisStream.Stream),
		Group:         messaging.ConsumerGroup(cfg.Messaging.RedisStream.ConsumerGroup),
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  cfg.Messaging.RedisStream.BlockTimeout,
		ClaimInterval: cfg.Messaging.RedisStream.ClaimInterval,
		ReclaimIdle:   cfg.Messaging.RedisStream.ClaimMinIdle,
		RetryLimit:    cfg.Messaging.RedisStream.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
			Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
			Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
		},
	})

	// 单项排盘：归档写入与结果附加在同一事务内提交
	consumer.RegisterHandler(messaging.MsgTypeBatchItem, func(msgCtx context.Context, msg *messaging.Message) error {
		var item batch.ItemMessage
		if err := msg.UnmarshalPayload(&item); err != nil {
			return err
		}
		return txMgr.WithTransaction(msgCtx, func(txCtx context.Context) error {
			return batchSvc.ProcessItem(txCtx, item)
		})
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}

	go consumer.MonitorDLQ(ctx, 0)
	go sweepLoop(ctx, cfg, batchSvc)

	log := logger.FromContext(ctx)
	log.Info("bazi-worker started",
		"stream", cfg.Messaging.RedisStream.Stream,
		"group", cfg.Messaging.RedisStream.ConsumerGroup,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("bazi-worker shutting down")
	cancel()
	consumer.Stop()
}

// sweepLoop 周期性补投递 pending 任务并重投可重试的失败任务
func sweepLoop(ctx context.Context, cfg *config.Config, svc *batch.Service) {
	interval := cfg.Features.Batch.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.RequeuePending(ctx, 50); err != nil {
				logger.Warn(ctx, "requeue pending jobs failed", "error", err)
			}
			if err := svc.RetryFailed(ctx, cfg.Features.Batch.MaxRetries, 50); err != nil {
				logger.Warn(ctx, "retry failed jobs failed", "error", err)
			}
		}
	}
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
