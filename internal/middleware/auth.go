package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hexaosint/api/internal/models"
	"hexaosint/api/internal/security"
	"hexaosint/api/internal/service"
)

const (
	accessTokenHeader = "X-Access-Token"

	// gin context keys set on successful authentication.
	ContextUserKey   = "current_user"
	ContextClaimsKey = "access_claims"
)

// extractAccessToken pulls the bearer credential from either the standard
// Authorization header or the custom access-token header.
func extractAccessToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.GetHeader(accessTokenHeader)
}

// Auth verifies the access token and resolves it to an active user. The 401
// detail distinguishes expiry from malformation so clients know whether a
// refresh is worth attempting.
func Auth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractAccessToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		user, claims, err := auth.VerifyAccess(c.Request.Context(), tokenStr)
		if err != nil {
			switch {
			case errors.Is(err, security.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_expired"})
			case errors.Is(err, security.ErrTokenInvalid):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token_invalid"})
			case errors.Is(err, service.ErrUnauthenticated):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
			}
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextClaimsKey, *claims)

		c.Next()
	}
}

// RequireAdmin allows only authenticated admins through. Must run after
// Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userVal, exists := c.Get(ContextUserKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		user, ok := userVal.(models.User)
		if !ok || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}
