package health

import (
	"context"
	"time"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"   // 健康
	StatusDegraded  Status = "degraded"  // 降级：缓存/历史不可用，解码仍可用
	StatusUnhealthy Status = "unhealthy" // 不健康：无法解码
)

// CheckResult 健康检查结果
type CheckResult struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency"`
}

// Checker 健康检查器接口
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// CheckFunc 以函数实现 Checker
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) CheckResult
}

// Name 返回检查器名称
func (f CheckFunc) Name() string { return f.CheckName }

// Check 执行检查
func (f CheckFunc) Check(ctx context.Context) CheckResult { return f.Fn(ctx) }
