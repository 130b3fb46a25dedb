package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/marketplace-api/pkg/httputil"
	"github.com/jwalitptl/marketplace-api/pkg/logger"
)

const defaultLimiterIdleTTL = 10 * time.Minute

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
	// IdleTTL evicts a client's bucket after this long without requests.
	IdleTTL time.Duration
	// Key picks the bucket for a request. Defaults to the client IP.
	Key func(c *gin.Context) string
}

// RateLimiter keeps one token bucket per client.
type RateLimiter struct {
	config   RateLimiterConfig
	limiters *gocache.Cache
	logger   *logger.Logger
}

func NewRateLimiter(config RateLimiterConfig, log *logger.Logger) *RateLimiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = defaultLimiterIdleTTL
	}
	if config.Key == nil {
		config.Key = func(c *gin.Context) string { return c.ClientIP() }
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RateLimiter{
		config:   config,
		limiters: gocache.New(config.IdleTTL, 2*config.IdleTTL),
		logger:   log,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := rl.limiters.Get(key); ok {
		rl.limiters.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rl.config.Rate, rl.config.Burst)
	if err := rl.limiters.Add(key, lim, gocache.DefaultExpiration); err != nil {
		// Lost the race to another request for the same key.
		if v, ok := rl.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// retryAfter is the whole seconds until one token is available again.
func (rl *RateLimiter) retryAfter() string {
	if rl.config.Rate <= 0 || rl.config.Rate == rate.Inf {
		return ""
	}
	return strconv.Itoa(int(math.Ceil(1 / float64(rl.config.Rate))))
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.config.Key(c)
		if !rl.limiter(key).Allow() {
			logger.FromContext(c.Request.Context(), rl.logger).Warn("rate limit exceeded",
				"key", key,
				"path", c.Request.URL.Path,
			)
			if ra := rl.retryAfter(); ra != "" {
				c.Header("Retry-After", ra)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.NewErrorResponse("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
