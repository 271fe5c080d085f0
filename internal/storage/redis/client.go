package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cfgpkg "github.com/taoyao-code/nextpm-decoder/internal/config"
)

// Client 解码结果缓存使用的 Redis 连接，只暴露缓存与探测所需的操作
type Client struct {
	rdb  *redis.Client
	addr string
}

// PoolSnapshot 一次探测时的连接池状态
type PoolSnapshot struct {
	Total    uint32
	Idle     uint32
	Hits     uint32
	Misses   uint32
	Timeouts uint32
}

// NewClient 建立连接并 PING 一次；ctx 取消或超过拨号超时都视为失败
func NewClient(ctx context.Context, cfg cfgpkg.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, errors.New("redis is not enabled")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pctx, cancel := context.WithTimeout(ctx, firstPingTimeout(cfg.DialTimeout))
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Client{rdb: rdb, addr: cfg.Addr}, nil
}

// firstPingTimeout 首次 PING 在拨号超时之外再留 1s 应答时间
func firstPingTimeout(dial time.Duration) time.Duration {
	if dial <= 0 {
		return 5 * time.Second
	}
	return dial + time.Second
}

// Addr 连接地址
func (c *Client) Addr() string { return c.addr }

// Close 关闭连接，nil 接收者安全
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Probe PING 一次并返回连接池快照
func (c *Client) Probe(ctx context.Context) (PoolSnapshot, error) {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return PoolSnapshot{}, err
	}
	st := c.rdb.PoolStats()
	return PoolSnapshot{
		Total:    st.TotalConns,
		Idle:     st.IdleConns,
		Hits:     st.Hits,
		Misses:   st.Misses,
		Timeouts: st.Timeouts,
	}, nil
}
