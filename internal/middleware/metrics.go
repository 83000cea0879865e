package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reuniteapp/reunite-api/internal/service"
)

// Metrics records per-request counters and latency. Unmatched paths fall
// back to the raw URL so 404s still land in a series.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	if metricsSvc == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
