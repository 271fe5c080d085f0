package app

import (
	"context"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/nextpm-decoder/internal/config"
	"github.com/taoyao-code/nextpm-decoder/internal/health"
	redisstorage "github.com/taoyao-code/nextpm-decoder/internal/storage/redis"
)

// NewRedisClient 创建Redis客户端；未启用时返回 (nil, nil)
func NewRedisClient(ctx context.Context, cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis is disabled, decode cache off")
		return nil, nil
	}

	client, err := redisstorage.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("redis client initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Duration("cache_ttl", cfg.CacheTTL))
	return client, nil
}

// NewResultCache 创建解码结果缓存
func NewResultCache(client *redisstorage.Client, cfg cfgpkg.RedisConfig) *redisstorage.ResultCache {
	return redisstorage.NewResultCache(client, cfg.KeyPrefix, cfg.CacheTTL)
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redisstorage.Client) {
	if redisClient != nil {
		aggregator.AddChecker(health.NewRedisChecker(redisClient))
	}
}
