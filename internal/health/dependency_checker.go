package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	redisstorage "github.com/taoyao-code/nextpm-decoder/internal/storage/redis"
)

// poolNearLimit 连接池占用超过该比例时降级
const poolNearLimit = 0.9

// poolSample 一次探测得到的连接池占用
type poolSample struct {
	used, total int64
	details     map[string]any
	warn        string // 非空时降级
}

// dependencyChecker 可选依赖（历史库、结果缓存）的检查器。
// 依赖不可用时解码照常进行，因此最多报告 Degraded。
type dependencyChecker struct {
	name   string
	impact string
	probe  func(ctx context.Context) (poolSample, error)
}

func (c *dependencyChecker) Name() string { return c.name }

func (c *dependencyChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	s, err := c.probe(ctx)
	if err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("%s: %v", c.impact, err),
			Latency: time.Since(start),
		}
	}

	ratio := 0.0
	if s.total > 0 {
		ratio = float64(s.used) / float64(s.total)
	}
	details := s.details
	if details == nil {
		details = make(map[string]any, 1)
	}
	details["utilization"] = fmt.Sprintf("%.1f%%", ratio*100)

	res := CheckResult{Status: StatusHealthy, Message: "ok", Details: details}
	switch {
	case s.warn != "":
		res.Status, res.Message = StatusDegraded, s.warn
	case ratio > poolNearLimit:
		res.Status, res.Message = StatusDegraded, "connection pool near limit"
	}
	res.Latency = time.Since(start)
	return res
}

// NewDatabaseChecker 历史库检查：PING 后按已借出连接数/最大连接数计算占用
func NewDatabaseChecker(pool *pgxpool.Pool) Checker {
	return &dependencyChecker{
		name:   "database",
		impact: "history unavailable",
		probe: func(ctx context.Context) (poolSample, error) {
			if err := pool.Ping(ctx); err != nil {
				return poolSample{}, err
			}
			st := pool.Stat()
			return poolSample{
				used:  int64(st.AcquiredConns()),
				total: int64(st.MaxConns()),
				details: map[string]any{
					"total_conns":    st.TotalConns(),
					"acquired_conns": st.AcquiredConns(),
					"max_conns":      st.MaxConns(),
				},
			}, nil
		},
	}
}

// cacheProber storage/redis.Client 满足此接口
type cacheProber interface {
	Probe(ctx context.Context) (redisstorage.PoolSnapshot, error)
}

// NewRedisChecker 结果缓存检查：不可用时请求直接绕过缓存
func NewRedisChecker(client cacheProber) Checker {
	return &dependencyChecker{
		name:   "redis",
		impact: "cache bypassed",
		probe: func(ctx context.Context) (poolSample, error) {
			snap, err := client.Probe(ctx)
			if err != nil {
				return poolSample{}, err
			}
			s := poolSample{
				used:  int64(snap.Total) - int64(snap.Idle),
				total: int64(snap.Total),
				details: map[string]any{
					"total_conns": snap.Total,
					"idle_conns":  snap.Idle,
					"hits":        snap.Hits,
					"misses":      snap.Misses,
					"timeouts":    snap.Timeouts,
				},
			}
			if snap.Timeouts > 0 && snap.Misses > snap.Hits {
				s.warn = "connection pool timeouts"
			}
			return s, nil
		},
	}
}
