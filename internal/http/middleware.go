package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CustomLoggerMiddleware logs HTTP requests with the request id assigned by
// the requestid middleware.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("http request",
			slog.String("request_id", requestid.Get(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// ipLimiterEntry pairs a limiter with its last use, so idle entries can be
// pruned.
type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter hands out one token-bucket limiter per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	entries  map[string]*ipLimiterEntry
	rps      rate.Limit
	burst    int
	lastSwep time.Time
}

const ipLimiterIdleTTL = 10 * time.Minute

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	return &ipRateLimiter{
		entries:  make(map[string]*ipLimiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		lastSwep: time.Now(),
	}
}

// get returns the limiter for ip, creating it on first sight and sweeping
// idle entries at most once per TTL.
func (l *ipRateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSwep) > ipLimiterIdleTTL {
		for key, entry := range l.entries {
			if now.Sub(entry.lastSeen) > ipLimiterIdleTTL {
				delete(l.entries, key)
			}
		}
		l.lastSwep = now
	}

	entry, ok := l.entries[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimitMiddleware limits requests per client IP using a token bucket.
// Exceeding the limit returns 429 Too Many Requests.
func RateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	limiter := newIPRateLimiter(rps, burst)

	return func(c *gin.Context) {
		if !limiter.get(c.ClientIP()).Allow() {
			logger.Warn("rate limit exceeded",
				slog.String("client_ip", c.ClientIP()),
				slog.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}
