package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "nextpm:decode:"

// ResultCache 解码结果缓存：key 为归一化后的帧（十六进制），value 为序列化后的结果
type ResultCache struct {
	client *Client
	prefix string
	ttl    time.Duration
}

// NewResultCache 创建结果缓存
func NewResultCache(client *Client, prefix string, ttl time.Duration) *ResultCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &ResultCache{client: client, prefix: prefix, ttl: ttl}
}

// Get 命中返回 (data, true, nil)，未命中返回 (nil, false, nil)
func (c *ResultCache) Get(ctx context.Context, frameHex string) ([]byte, bool, error) {
	b, err := c.client.rdb.Get(ctx, c.key(frameHex)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set 写入并设置过期时间
func (c *ResultCache) Set(ctx context.Context, frameHex string, data []byte) error {
	return c.client.rdb.Set(ctx, c.key(frameHex), data, c.ttl).Err()
}

func (c *ResultCache) key(frameHex string) string {
	return c.prefix + frameHex
}
