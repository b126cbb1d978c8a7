package handlers

import (
	"net/http"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EscalationHandler struct {
	escalationService *services.EscalationService
	access            *services.AccessService
	clock             services.Clock
	logger            *zap.Logger
}

func NewEscalationHandler(escalationService *services.EscalationService, access *services.AccessService, clock services.Clock, logger *zap.Logger) *EscalationHandler {
	return &EscalationHandler{
		escalationService: escalationService,
		access:            access,
		clock:             clock,
		logger:            logger.With(zap.String("handler", "escalation")),
	}
}

// RunEscalations triggers one sweep. An optional RFC 3339 "now" in the body
// overrides the clock, for operational replays.
func (eh *EscalationHandler) RunEscalations(c *gin.Context) {
	if !authorize(c, eh.access, c.GetString("workspaceID"), services.ActionRunEscalations) {
		return
	}

	var body struct {
		Now string `json:"now"`
	}
	_ = c.ShouldBindJSON(&body)

	now := eh.clock.Now()
	if body.Now != "" {
		parsed, err := time.Parse(time.RFC3339, body.Now)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "now must be RFC 3339"})
			return
		}
		now = parsed
	}

	escalated, err := eh.escalationService.RunEscalations(c.Request.Context(), now)
	if err != nil {
		mapEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"escalated": escalated})
}
