package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/recetario/backend/internal/logger"
)

// RequestLogger logs one line per request with the request id, status
// and latency.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := log.WithRequest(c.Request)

		c.Next()

		entry.WithField("status", c.Writer.Status()).
			WithField("latency_ms", time.Since(start).Milliseconds()).
			Info("request handled")
	}
}
