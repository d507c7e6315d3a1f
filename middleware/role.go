package middleware

import (
	"net/http"

	"innkeeper/utils"

	"github.com/gin-gonic/gin"
)

// RequireManager rejects callers whose token does not carry the property
// manager role. Must run after AuthMiddleware.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userRole") != utils.RolePropertyManager {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "manager role required"})
			return
		}
		c.Next()
	}
}
