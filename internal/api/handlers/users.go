package handlers

import (
	"net/http"

	"github.com/Jakedismo/knowledge-network-sub004/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	users  store.UserRepository
	logger *zap.Logger
}

func NewUserHandler(users store.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With(zap.String("handler", "user")),
	}
}

// ListUsers returns the workspace's active members, for assignee picking.
func (uh *UserHandler) ListUsers(c *gin.Context) {
	users, err := uh.users.ListUsers(c.Request.Context(), c.GetString("workspaceID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	type userSummary struct {
		Username    string `json:"username"`
		DisplayName string `json:"displayName"`
		Role        string `json:"role"`
	}
	summaries := make([]userSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, userSummary{
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Role:        string(u.Role),
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": summaries})
}
