package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	cfgpkg "github.com/taoyao-code/nextpm-decoder/internal/config"
	appmetrics "github.com/taoyao-code/nextpm-decoder/internal/metrics"
)

func serve(s *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestBuiltinRoutes(t *testing.T) {
	cfg := cfgpkg.HTTPConfig{Addr: ":0", ReadTimeout: time.Second, WriteTimeout: time.Second}
	handler := appmetrics.Handler(appmetrics.NewRegistry())

	tests := []struct {
		name  string
		ready func() bool
		path  string
		code  int
	}{
		{"healthz", nil, "/healthz", http.StatusOK},
		{"readyz默认就绪", nil, "/readyz", http.StatusOK},
		{"readyz就绪", func() bool { return true }, "/readyz", http.StatusOK},
		{"readyz未就绪", func() bool { return false }, "/readyz", http.StatusServiceUnavailable},
		{"metrics", nil, "/metrics", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(cfg, "/metrics", handler, tt.ready)
			assert.Equal(t, tt.code, serve(srv, tt.path).Code)
		})
	}
}

func TestRegisterRoutes(t *testing.T) {
	srv := New(cfgpkg.HTTPConfig{Addr: ":0"}, "", nil, nil)
	srv.Register(nil, func(r *gin.Engine) {
		r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	})

	rr := serve(srv, "/ping")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())

	// 未提供 metricsHandler 时不注册指标路由
	assert.Equal(t, http.StatusNotFound, serve(srv, "/metrics").Code)
	assert.Equal(t, ":0", srv.Addr())
}
