package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/marketplace-api/internal/handler/health"
	prommw "github.com/jwalitptl/marketplace-api/internal/handler/prometheus"
	"github.com/jwalitptl/marketplace-api/pkg/logger"
	"github.com/jwalitptl/marketplace-api/pkg/metrics"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type stubHandler struct{}

func (stubHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications/types", func(c *gin.Context) { c.Status(http.StatusOK) })
}

func newTestRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	r := NewRouter(logger.Nop(), health.NewHandler(okPinger{}), stubHandler{}, prommw.New(reg, metrics.New("test", reg)), cfg)
	r.Setup()
	return r.Engine()
}

func get(e *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRoutesAreMounted(t *testing.T) {
	e := newTestRouter(RouterConfig{})

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready", "/api/v1/notifications/types", "/metrics"} {
		w := get(e, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := get(e, "/api/v1/health/live")
	assert.Equal(t, "1.0", w.Header().Get("X-API-Version"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRateLimitIsOptional(t *testing.T) {
	e := newTestRouter(RouterConfig{RateLimitEnabled: true, RateLimit: rate.Limit(0.001), RateBurst: 1})

	assert.Equal(t, http.StatusOK, get(e, "/api/v1/health/live").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(e, "/api/v1/health/live").Code)
}
