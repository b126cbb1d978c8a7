package handlers

import (
	"errors"
	"net/http"

	"github.com/Jakedismo/knowledge-network-sub004/internal/services"
	"github.com/gin-gonic/gin"
)

// mapEngineError translates the engine's failure taxonomy onto HTTP statuses.
func mapEngineError(c *gin.Context, err error) {
	var validationError *services.ValidationError
	switch {
	case errors.As(err, &validationError):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationError.Error(), "field": validationError.Field})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrNotAssignee):
		c.JSON(http.StatusForbidden, gin.H{"error": "No pending assignment for this user"})
	case errors.Is(err, services.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{"error": "Decision already recorded"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Operation not allowed in the request's current status"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// authorize runs the access guard for the calling user and writes the 403 on
// denial. Returns true when the handler may proceed.
func authorize(c *gin.Context, access *services.AccessService, workspaceID, action string) bool {
	userID := c.GetUint("userID")
	allowed, err := access.Authorize(c.Request.Context(), userID, workspaceID, action)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not permitted"})
		return false
	}
	return true
}
