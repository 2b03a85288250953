// Package redis 提供 Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bazi-engine-api/internal/application/analysis"
)

var cacheTracer = otel.Tracer("redis.cache")

var _ analysis.ProfileCache = (*ProfileCache)(nil)

// ProfileCache 画像缓存实现，整份画像以 JSON 存储
type ProfileCache struct {
	client *Client
}

// NewProfileCache 创建画像缓存
func NewProfileCache(client *Client) *ProfileCache {
	return &ProfileCache{client: client}
}

// Get 按归一化键读取画像，未命中返回 (nil, nil)
func (c *ProfileCache) Get(ctx context.Context, key string) (*analysis.Profile, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.Get",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.Bool("cache.hit", false))
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get cached profile: %w", err)
	}

	var profile analysis.Profile
	if err := json.Unmarshal(val, &profile); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to unmarshal cached profile: %w", err)
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	return &profile, nil
}

// Set 写入画像
func (c *ProfileCache) Set(ctx context.Context, key string, profile *analysis.Profile, ttl time.Duration) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int64("cache.ttl_ms", ttl.Milliseconds()),
		))
	defer span.End()

	bytes, err := json.Marshal(profile)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := c.client.rdb.Set(ctx, key, bytes, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set cached profile: %w", err)
	}
	return nil
}

// Delete 删除画像
func (c *ProfileCache) Delete(ctx context.Context, key string) error {
	ctx, span := cacheTracer.Start(ctx, "cache.Delete",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	if err := c.client.rdb.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete cached profile: %w", err)
	}
	return nil
}
