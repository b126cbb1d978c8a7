package handlers

import (
	"errors"
	"net/http"

	"github.com/Jakedismo/knowledge-network-sub004/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	access *services.AccessService
	logger *zap.Logger
}

func NewAuthHandler(access *services.AccessService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		access: access,
		logger: logger.With(zap.String("handler", "auth")),
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, user, err := ah.access.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.SetCookie("session_token", token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"username":     user.Username,
		"workspace_id": user.WorkspaceID,
		"role":         user.Role,
	})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	token, err := c.Cookie("session_token")
	if err == nil {
		ah.access.Logout(token)
	}
	c.SetCookie("session_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
