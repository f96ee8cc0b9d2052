package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bnbillains/metrics"
)

// Metrics records request count and latency per matched route template, so
// /api/lairs/1 and /api/lairs/2 share one series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
