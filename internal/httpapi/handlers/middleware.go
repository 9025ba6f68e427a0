package handlers

import (
	"net/http"
	"strings"

	"github.com/cardverse/cardverse/internal/models"
	"github.com/cardverse/cardverse/internal/security"
	"github.com/gin-gonic/gin"
)

// Auth validates the bearer token and stores the claims on the context.
// Requests without a valid token are rejected with 401.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, errParse := security.ParseToken(secret, token)
		if errParse != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errParse.Error()})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUsername, claims.Username)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// OptionalAuth parses a bearer token when present but lets anonymous
// requests through. Viewer-scoped fields stay empty for anonymous callers.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if claims, errParse := security.ParseToken(secret, token); errParse == nil {
				c.Set(ctxUserID, claims.UserID)
				c.Set(ctxUsername, claims.Username)
				c.Set(ctxRole, claims.Role)
			}
		}
		c.Next()
	}
}

// AdminOnly rejects requests whose token does not carry the admin role. Must
// run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentRole(c) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header, falling back
// to the token query parameter for websocket clients that cannot set headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(c.Query("token"))
}
