package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/reuniteapp/reunite-api/internal/middleware"
	"github.com/reuniteapp/reunite-api/internal/models"
)

// claimsFromContext returns the authenticated user's claims, or nil when the
// request carried no valid token.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	if value, exists := c.Get(middleware.ContextUserKey); exists {
		if claims, ok := value.(*models.JWTClaims); ok {
			return claims
		}
	}
	return nil
}
