package middleware

import (
	"net/http"
	"strings"

	"ridepool/config"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware gates admin endpoints behind the configured API token.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		if config.AppConfig.AdminAPIToken == "" || tokenString != config.AppConfig.AdminAPIToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized admin access"})
			return
		}

		c.Set("adminID", "admin")
		c.Set("isAdmin", true)
		c.Next()
	}
}
