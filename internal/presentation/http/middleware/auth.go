package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GatherLoop/gathersync/internal/infrastructure/security"
	"github.com/GatherLoop/gathersync/pkg/config"
)

// AdminAuthMiddleware guards maintenance endpoints with a bearer token.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		token, ok := security.BearerToken(authHeader)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			c.Abort()
			return
		}

		if err := security.ValidateAdminToken(token, config.JWTSecret); err != nil {
			if errors.Is(err, security.ErrNotAdmin) {
				c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			c.Abort()
			return
		}

		c.Next()
	}
}
