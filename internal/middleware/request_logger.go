package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidindex/internal/logger"
)

// RequestLogger logs every HTTP request except health checks.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/api/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		logger.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"ip", c.ClientIP(),
		)
	}
}

// ErrorLogger logs the errors handlers recorded with c.Error once the
// request has completed.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, err := range c.Errors {
			fields := []interface{}{
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"status", c.Writer.Status(),
				"error", err.Error(),
			}
			if code, ok := err.Meta.(string); ok {
				fields = append(fields, "code", code)
			}
			logger.Error("Request error", fields...)
		}
	}
}
