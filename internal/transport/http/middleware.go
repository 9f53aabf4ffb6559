package http

import (
	"net/http"
	"strings"

	"angostura-trivia-service/pkg/auth"
	"github.com/gin-gonic/gin"
)

// RequireAdmin guards the admin routes with a bearer token.
func RequireAdmin(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("adminEmail", claims.Email)
		c.Next()
	}
}
