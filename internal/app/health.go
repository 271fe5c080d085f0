package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/nextpm-decoder/internal/api/middleware"
	"github.com/taoyao-code/nextpm-decoder/internal/health"
	"github.com/taoyao-code/nextpm-decoder/internal/protocol/nextpm"
)

// NewHealthAggregator 创建健康检查聚合器，dbpool 为 nil 时不检查数据库
func NewHealthAggregator(decoder *nextpm.Decoder, dbpool *pgxpool.Pool) *health.Aggregator {
	agg := health.NewAggregator(health.NewDecoderChecker(decoder))
	if dbpool != nil {
		agg.AddChecker(health.NewDatabaseChecker(dbpool))
	}
	return agg
}

// AddRateLimitChecker 在健康报告中附带 API 限流统计，limiter 为 nil 时跳过
func AddRateLimitChecker(aggregator *health.Aggregator, limiter *middleware.RateLimiter) {
	if limiter == nil {
		return
	}
	aggregator.AddChecker(health.CheckFunc{
		CheckName: "rate_limit",
		Fn: func(context.Context) health.CheckResult {
			st := limiter.Stats()
			return health.CheckResult{
				Status:  health.StatusHealthy,
				Message: "ok",
				Details: map[string]any{
					"rate_per_second": st.RatePerSecond,
					"burst":           st.Burst,
					"allowed_total":   st.AllowedTotal,
					"rejected_total":  st.RejectedTotal,
				},
			}
		},
	})
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}
