package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dchat/internal/auth"
	"dchat/internal/models"
	"dchat/internal/repository"
)

// ContextKeyUser is where the authenticated *models.User lives in gin context.
const ContextKeyUser = "auth_user"

// AuthMiddleware validates the bearer token and resolves it to a live user
// row. Loading the row on every request means a deleted account or a revoked
// admin flag is effective immediately, at the cost of one indexed lookup.
//
// Browser WebSocket clients cannot set headers on the upgrade request, so a
// `token` query parameter is accepted as a fallback.
func AuthMiddleware(secret string, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "You must be logged in to access this.",
			})
			return
		}

		claims, err := auth.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// RequireAdmin gates a route to admin users. Must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "You do not have access to this.",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside an
// authenticated route.
func CurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}
