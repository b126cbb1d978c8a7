package middleware

import (
	"net/http"
	"strings"

	"github.com/Jakedismo/knowledge-network-sub004/internal/services"
	"github.com/Jakedismo/knowledge-network-sub004/internal/store"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	access *services.AccessService
	users  store.UserRepository
}

func NewAuthMiddleware(access *services.AccessService, users store.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		access: access,
		users:  users,
	}
}

// RequireAuth validates the session token (Authorization: Bearer or the
// session_token cookie) and loads the calling user into the gin context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			var err error
			token, err = c.Cookie("session_token")
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
				return
			}
		}

		userID, valid := am.access.IsValidSession(token)
		if !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}

		user, err := am.users.GetUser(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			return
		}

		c.Set("userID", userID)
		c.Set("username", user.Username)
		c.Set("workspaceID", user.WorkspaceID)
		c.Set("role", user.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
