package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaKey      = "response.meta"
	metaStartKey = "response.start"
)

// WithResponseMeta stamps each request with its arrival time so handlers can
// attach timing and cache information to the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaStartKey, time.Now())
		c.Next()
	}
}

// SetCacheHit records whether the current response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	if c == nil {
		return
	}
	ensureMeta(c)["cache_hit"] = hit
}

// ExtractMeta returns the metadata collected for the current response. The
// elapsed processing time is computed at call time, so handlers should call
// this as the last step before writing the response.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta := ensureMeta(c)
	if start, exists := c.Get(metaStartKey); exists {
		if ts, ok := start.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(ts).Milliseconds()
		}
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta, exists := c.Get(metaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(metaKey, newMeta)
	return newMeta
}
