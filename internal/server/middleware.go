package server

import (
	"strconv"
	"time"

	"agentbay/internal/metrics"
	"agentbay/utils"

	"github.com/gin-gonic/gin"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware propagates the caller's request id or assigns a new one
func RequestIDMiddleware(c *gin.Context) {
	id := utils.SanitizeRequestID(c.GetHeader(requestIDHeader))
	c.Set("request_id", id)
	c.Header(requestIDHeader, id)
	c.Next()
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"latency":    time.Since(start).String(),
	})
}

// MetricsMiddleware records request counts and durations per route
func MetricsMiddleware(c *gin.Context) {
	start := time.Now()
	c.Next()

	// route template keeps label cardinality bounded
	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	method := c.Request.Method
	metrics.HTTPRequestsTotal.WithLabelValues(path, method, strconv.Itoa(c.Writer.Status())).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(path, method).Observe(time.Since(start).Seconds())
}
