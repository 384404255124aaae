package middleware

import (
	"net/http"
	"strings"

	"fadetogo/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by JWTAuthMiddleware.
const (
	ContextSubject = "subject"
	ContextRole    = "role"
)

// JWTAuthMiddleware verifies the bearer token and stores its subject and role
// in the request context. When enabled is false every request passes through
// unauthenticated.
func JWTAuthMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		claims, err := utils.ExtractClaims(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			utils.GetLogger().Debug("Token rejected", zap.Error(err))
			utils.JSONError(c, http.StatusUnauthorized, "unauthorized", "Invalid token")
			return
		}

		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireProviderOwner lets a provider act only on its own :id. Requests
// are unrestricted when no token was verified.
func RequireProviderOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextRole)
		if !ok {
			c.Next()
			return
		}
		if role != utils.RoleProvider || c.GetString(ContextSubject) != c.Param("id") {
			utils.JSONError(c, http.StatusForbidden, "forbidden", "Only the provider may change these settings")
			return
		}
		c.Next()
	}
}

// Caller returns the subject and role of the verified token. ok is false
// when no token was verified because authentication is disabled.
func Caller(c *gin.Context) (subject, role string, ok bool) {
	if _, ok = c.Get(ContextRole); !ok {
		return "", "", false
	}
	return c.GetString(ContextSubject), c.GetString(ContextRole), true
}
