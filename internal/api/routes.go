// Package api 解码服务 HTTP 接口
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/taoyao-code/nextpm-decoder/internal/api/middleware"
	cfgpkg "github.com/taoyao-code/nextpm-decoder/internal/config"
	"github.com/taoyao-code/nextpm-decoder/internal/service"
)

// RegisterDecodeRoutes 注册 /api/v1 路由；limiter 为 nil 时不限流
func RegisterDecodeRoutes(
	r *gin.Engine,
	svc *service.DecodeService,
	apiCfg cfgpkg.APIConfig,
	limiter *middleware.RateLimiter,
	rateLimited prometheus.Counter,
	logger *zap.Logger,
) {
	if r == nil || svc == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := NewDecodeHandler(svc, logger)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.CORS())
	v1.Use(middleware.RateLimit(limiter, rateLimited, logger))
	if apiCfg.Auth.Enabled {
		v1.Use(middleware.APIKeyAuth(apiCfg.Auth, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(apiCfg.Auth.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	// 预检请求由 CORS 中间件直接应答
	v1.OPTIONS("/*path", func(c *gin.Context) {})
	v1.POST("/frames/decode", handler.Decode)
	v1.GET("/schemas", handler.ListSchemas)
	v1.GET("/decodes", handler.ListDecodes)
	v1.GET("/decodes/:id", handler.GetDecode)

	logger.Info("decode routes registered",
		zap.Int("endpoints", 4),
		zap.Bool("history", svc.HistoryEnabled()))
}
