// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/application/batch"
	"bazi-engine-api/internal/config"
	"bazi-engine-api/internal/domain/repository"
	"bazi-engine-api/internal/infrastructure/calendar"
	"bazi-engine-api/internal/infrastructure/messaging"
	"bazi-engine-api/internal/infrastructure/persistence/milvus"
	"bazi-engine-api/internal/infrastructure/persistence/postgres"
	"bazi-engine-api/internal/infrastructure/persistence/redis"
	"bazi-engine-api/internal/interfaces/http/handler"
	"bazi-engine-api/internal/interfaces/http/middleware"
	"bazi-engine-api/internal/interfaces/http/router"
	"bazi-engine-api/pkg/logger"
)

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	ProvideChartRepository,
	postgres.NewAnalysisJobRepository,
	wire.Bind(new(repository.AnalysisJobRepository), new(*postgres.AnalysisJobRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewProfileCache,
	redis.NewRateLimiter,
	wire.Bind(new(analysis.ProfileCache), new(*redis.ProfileCache)),
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MilvusSet 可选 Milvus（不可达时降级关闭相似检索）
var MilvusSet = wire.NewSet(
	ProvideMilvusClientOptional,
	ProvideFeatureIndexOptional,
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideJobQueue,
)

// AnalysisSet 排盘服务提供者集合
var AnalysisSet = wire.NewSet(
	analysis.NewEngine,
	calendar.NewAlmanac,
	wire.Bind(new(analysis.Almanac), new(*calendar.Almanac)),
	ProvideAnalysisService,
)

// BatchSet 批量任务服务提供者集合
var BatchSet = wire.NewSet(
	batch.NewService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewAnalysisHandler,
	ProvideChartHandler,
	handler.NewJobHandler,
	ProvideHealthHandler,
	wire.Struct(new(router.Deps), "*"),
	router.New,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideChartRepository 提供命盘归档仓储，归档未启用时为 nil
func ProvideChartRepository(cfg *config.Config, client *postgres.Client) repository.ChartRepository {
	if !cfg.Features.Archive.Enabled {
		return nil
	}
	return postgres.NewChartRepository(client)
}

// ProvideMilvusClientOptional 提供可选 Milvus 客户端，不可达时不阻塞启动
func ProvideMilvusClientOptional(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	if !cfg.Vector.Milvus.Enabled {
		return nil, func() {}, nil
	}
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Warn(ctx, "milvus not available, similar chart search disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideFeatureIndexOptional 提供特征向量索引，相似检索未启用或集合不可用时为 nil
func ProvideFeatureIndexOptional(ctx context.Context, cfg *config.Config, client *milvus.Client) analysis.FeatureIndex {
	if client == nil || !cfg.Features.Similar.Enabled {
		return nil
	}
	index := milvus.NewFeatureIndex(client)
	if err := index.EnsureCollection(ctx); err != nil {
		logger.Warn(ctx, "milvus collection not ready, similar chart search disabled", "error", err.Error())
		return nil
	}
	return index
}

// ProvideJobQueue 提供批量任务队列，批量功能未启用时为 nil
func ProvideJobQueue(cfg *config.Config, redisClient *redis.Client) batch.JobQueue {
	if !cfg.Features.Batch.Enabled {
		return nil
	}
	return messaging.NewProducer(
		redisClient.Redis(),
		messaging.Stream(cfg.Messaging.RedisStream.Stream),
		cfg.Messaging.RedisStream.MaxLen,
	)
}

// ProvideChartHandler 提供命盘归档处理器
func ProvideChartHandler(cfg *config.Config, svc *analysis.Service, charts repository.ChartRepository) *handler.ChartHandler {
	return handler.NewChartHandler(svc, charts, cfg.Features.Similar.TopK)
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, redisClient *redis.Client, milvusClient *milvus.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, pg, redisClient, milvusClient)
}

// ProvideAnalysisService 提供排盘服务
func ProvideAnalysisService(
	engine *analysis.Engine,
	cache analysis.ProfileCache,
	charts repository.ChartRepository,
	index analysis.FeatureIndex,
	almanac analysis.Almanac,
	cfg *config.Config,
) *analysis.Service {
	return analysis.NewService(engine, cache, charts, index, almanac, cfg.Cache.ProfileTTL)
}
