package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	user "linkupserver/internal/modules/user/service"
)

type AuthMiddleware struct {
	authService user.AuthService
}

func NewAuthMiddleware(authService user.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAuth validates the bearer token (falling back to ?token= for
// websocket clients), rejects blacklisted tokens and sets "user_id".
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "authorization required"})
			c.Abort()
			return
		}

		uid, err := m.authService.Check(c.Request.Context(), tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", uid)
		c.Next()
	}
}

// OptionalAuth sets "user_id" when a valid token is present but lets
// anonymous requests through. Used on public routes that behave differently
// for logged-in callers, like profile view tracking.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString != "" {
			if uid, err := m.authService.Check(c.Request.Context(), tokenString); err == nil {
				c.Set("user_id", uid)
			}
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	// Browsers cannot set headers on websocket upgrades.
	return c.Query("token")
}
