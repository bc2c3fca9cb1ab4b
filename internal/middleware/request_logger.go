package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinicdesk/internal/monitoring"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, logs it when done and
// records the HTTP metrics.
func RequestLogger(log *zap.Logger, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Header(RequestIDHeader, rid)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.ObserveRequest(c.Request.Method, path, status, elapsed.Seconds())

		fields := []zap.Field{
			zap.String("request_id", rid),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("took", elapsed),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= 500:
			log.Error("[http] request failed", fields...)
		case status >= 400:
			log.Info("[http] request rejected", fields...)
		default:
			log.Debug("[http] request", fields...)
		}
	}
}
