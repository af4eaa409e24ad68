// Package middleware contains the Gin middleware guarding the research API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyAPIKey is the gin.Context key holding the authenticated key.
const ContextKeyAPIKey = "api_key"

// APIKeyAuth admits requests carrying one of keys, either as X-API-Key or
// as an "Authorization: Bearer" token. Unknown keys get 401.
func APIKeyAuth(keys []string) gin.HandlerFunc {
	return requireKey(keys, http.StatusUnauthorized, "API key")
}

// AdminKeyAuth is APIKeyAuth for the admin group. A key that is valid but
// not an admin key gets 403.
func AdminKeyAuth(adminKeys []string) gin.HandlerFunc {
	return requireKey(adminKeys, http.StatusForbidden, "admin API key")
}

func requireKey(keys []string, invalidStatus int, label string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed[k] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + label})
			return
		}
		if _, ok := allowed[key]; !ok {
			c.AbortWithStatusJSON(invalidStatus, gin.H{"error": "invalid " + label})
			return
		}

		c.Set(ContextKeyAPIKey, key)
		c.Next()
	}
}

func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	auth := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
