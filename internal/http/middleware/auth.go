package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/endrithotii/daskann/common/id"
	"github.com/endrithotii/daskann/common/logger"
)

const (
	UserIDHeader      = "X-User-ID"
	AdminAPIKeyHeader = "X-Admin-API-Key"
	userIDKey         = "user_id"
)

// RequireUser trusts the identity forwarded by the upstream gateway.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := id.Parse(c.GetHeader(UserIDHeader))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + UserIDHeader})
			return
		}

		c.Set(userIDKey, userID)
		c.Request = c.Request.WithContext(logger.WithLogFields(c.Request.Context(), logger.LogFields{
			UserID: &userID,
		}))
		c.Next()
	}
}

// GetUserID returns the id stored by RequireUser.
func GetUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	userID, ok := v.(int64)
	return userID, ok
}

// RequireAdminAPIKey guards operational endpoints.
func RequireAdminAPIKey(adminAPIKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminAPIKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin API not configured"})
			return
		}

		apiKey := c.GetHeader(AdminAPIKeyHeader)
		if apiKey == "" {
			apiKey = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(adminAPIKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			return
		}

		c.Next()
	}
}
