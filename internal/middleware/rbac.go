package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/reuniteapp/reunite-api/internal/models"
	appErrors "github.com/reuniteapp/reunite-api/pkg/errors"
)

// RequireRoles blocks callers whose role is not in the allowed set.
// It must run after JWT so claims are present on the context.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			abort(c, appErrors.ErrUnauthorized)
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok {
			abort(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			abort(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
