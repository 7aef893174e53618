package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/totalaudio/tracker-backend-go/internal/core/metrics"
)

// MetricsMiddleware records request counts and latencies per route.
func MetricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
