package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	DecodeTotal       *prometheus.CounterVec // labels: cmd, result=ok|error
	DecodeErrorTotal  *prometheus.CounterVec // labels: kind
	DecodeCacheTotal  *prometheus.CounterVec // labels: result=hit|miss
	DecodeDuration    prometheus.Histogram
	HistoryWriteFails prometheus.Counter
	RateLimitedTotal  prometheus.Counter
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		DecodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nextpm_decode_total",
			Help: "NextPM frame decode attempts by command.",
		}, []string{"cmd", "result"}),
		DecodeErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nextpm_decode_error_total",
			Help: "NextPM frame decode failures by error kind.",
		}, []string{"kind"}),
		DecodeCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nextpm_decode_cache_total",
			Help: "Decode result cache lookups.",
		}, []string{"result"}),
		DecodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nextpm_decode_duration_seconds",
			Help:    "Time spent decoding one request, cache and history included.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		HistoryWriteFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nextpm_history_write_fail_total",
			Help: "Decode history records that could not be stored.",
		}),
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "HTTP requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(m.DecodeTotal, m.DecodeErrorTotal, m.DecodeCacheTotal, m.DecodeDuration, m.HistoryWriteFails, m.RateLimitedTotal)
	return m
}

// CmdLabel 命令字标签，如 "0x17"；未知命令统一为 "unknown" 以限制基数
func CmdLabel(cmd byte, known bool) string {
	if !known {
		return "unknown"
	}
	return fmt.Sprintf("0x%02x", cmd)
}
