// admin_only.go
package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			return
		}
		c.Next()
	}
}

func IsAdmin(c *gin.Context) bool {
	return slices.Contains(c.GetStringSlice(UserPermissionsKey), "admin")
}
