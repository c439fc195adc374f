package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/dittoexplorer/internal/logger"
	"github.com/marmos91/dittoexplorer/internal/ratelimiter"
	"github.com/marmos91/dittoexplorer/pkg/metrics"
)

// unmatchedRoute labels requests that matched no route, so unknown paths do
// not each become a metrics series.
const unmatchedRoute = "unmatched"

// RecoveryMiddleware turns a handler panic into a 500.
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("[PANIC] %s %s: %v\n%s", c.Request.Method, c.Request.URL.Path, err, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
					Error: "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// LoggerMiddleware logs every request at DEBUG and server errors at WARN.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if status >= http.StatusInternalServerError {
			logger.Warn("[%s] %s | Status: %d | Latency: %v | Client: %s | Errors: %s",
				method, path, status, latency, c.ClientIP(), c.Errors.String())
			return
		}
		logger.Debug("[%s] %s | Status: %d | Latency: %v | Client: %s",
			method, path, status, latency, c.ClientIP())
	}
}

// MetricsMiddleware records request counts, latencies and in-flight
// requests by route template.
func MetricsMiddleware(m metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		start := time.Now()
		m.RecordRequestStart(route)
		defer m.RecordRequestEnd(route)

		c.Next()

		m.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// RateLimitMiddleware rejects clients that exceed their request budget.
func RateLimitMiddleware(limiter *ratelimiter.KeyedLimiter, m metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			m.RecordRateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
				Error: "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
