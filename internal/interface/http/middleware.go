package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/complaint-intake/internal/infra/config"
)

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		apiErr := toAPIError(c.Errors.Last().Err)
		if apiErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "code", apiErr.Code, "status", apiErr.Status, "path", c.Request.URL.Path, "error", apiErr.Err)
		} else {
			logger.Warn("request failed", "code", apiErr.Code, "status", apiErr.Status, "path", c.Request.URL.Path, "error", apiErr.Err)
		}
		renderError(c, apiErr)
	}
}

// bodyLimit caps the request body; form parsing then fails with *http.MaxBytesError.
func bodyLimit(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	// leave room for the multipart envelope and the data field
	const formOverhead = 1 << 20
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+formOverhead)
		c.Next()
	}
}

// rateLimitMiddleware runs after auth so authenticated callers get their own bucket.
func rateLimitMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newRateLimiter(cfg)
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if claims, ok := getClaims(c); ok && claims.Subject != "" && claims.Subject != "anonymous" {
			key = string(claims.Method) + ":" + claims.Subject
		}
		allowed, wait := limiter.allow(key)
		if allowed {
			c.Next()
			return
		}
		logger.Warn("rate limit exceeded", "caller", key, "path", c.Request.URL.Path)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		abort(c, newAPIError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests", nil))
	}
}

type rateLimiter struct {
	callers       map[string]*bucket
	mu            sync.Mutex
	ratePerMinute float64
	burst         float64
	ttl           time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

func newRateLimiter(cfg config.RateLimitConfig) *rateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		callers:       make(map[string]*bucket),
		ratePerMinute: float64(cfg.RequestsPerMinute),
		burst:         float64(burst),
		ttl:           5 * time.Minute,
		now:           time.Now,
	}
}

// allow spends one token for key; when empty it returns the time until the next token.
func (l *rateLimiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.callers[key]
	if !ok {
		b = &bucket{tokens: l.burst, lastSeen: now}
		l.callers[key] = b
	} else {
		elapsed := now.Sub(b.lastSeen).Minutes()
		if elapsed > 0 {
			b.tokens = math.Min(l.burst, b.tokens+elapsed*l.ratePerMinute)
		}
		b.lastSeen = now
	}
	if now.Sub(l.lastSweep) >= l.ttl {
		l.cleanupLocked(now)
	}
	if b.tokens < 1 {
		missing := 1 - b.tokens
		return false, time.Duration(missing / l.ratePerMinute * float64(time.Minute))
	}
	b.tokens--
	return true, 0
}

// cleanupLocked drops idle callers; allow runs it at most once per ttl.
func (l *rateLimiter) cleanupLocked(now time.Time) {
	l.lastSweep = now
	for key, b := range l.callers {
		if now.Sub(b.lastSeen) > l.ttl {
			delete(l.callers, key)
		}
	}
}
