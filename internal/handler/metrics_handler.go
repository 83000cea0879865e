package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reuniteapp/reunite-api/internal/middleware"
	"github.com/reuniteapp/reunite-api/internal/models"
	"github.com/reuniteapp/reunite-api/internal/service"
	"github.com/reuniteapp/reunite-api/pkg/response"
)

const statsCacheKey = "metrics:snapshot"
const statsCacheTTL = 10 * time.Second

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	cache   *service.CacheService
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, cache *service.CacheService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, cache: cache}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for readiness/liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Stats godoc
// @Summary Engine counters snapshot
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *MetricsHandler) Stats(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	ctx := c.Request.Context()
	if h.cache.Enabled() {
		var cached models.SystemMetrics
		if hit, err := h.cache.Get(ctx, statsCacheKey, &cached); err == nil && hit {
			middleware.SetCacheHit(c, true)
			response.JSONMeta(c, http.StatusOK, cached, nil, middleware.ExtractMeta(c))
			return
		}
	}
	snapshot := h.metrics.Snapshot()
	if h.cache.Enabled() {
		_ = h.cache.Set(ctx, statsCacheKey, snapshot, statsCacheTTL)
	}
	middleware.SetCacheHit(c, false)
	response.JSONMeta(c, http.StatusOK, snapshot, nil, middleware.ExtractMeta(c))
}
