package middleware

import (
	"time"

	"gramly/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency by route template, never by raw path.
func Metrics(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
