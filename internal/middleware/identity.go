package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// CallerIdentityHeader carries the authenticated user forwarded by the
// platform gateway. Authentication itself happens upstream.
const CallerIdentityHeader = "X-User-ID"

// CallerIdentityMiddleware requires the forwarded user identity on every
// request and stores it on the gin context for handlers.
func CallerIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(CallerIdentityHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing caller identity"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserIDFromContext retrieves the forwarded user identity.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDKey)
	return userID, userID != ""
}
