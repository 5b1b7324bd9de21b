package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bookshelf-api/internal/observability"
)

// Metrics ghi request count và latency theo route template (c.FullPath), không theo raw path
// để label cardinality không phụ thuộc vào ids
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		observability.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		observability.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
