package handlers

import (
	"net/http"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/Jakedismo/knowledge-network-sub004/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WorkflowHandler struct {
	workflowService *services.WorkflowService
	access          *services.AccessService
	logger          *zap.Logger
}

func NewWorkflowHandler(workflowService *services.WorkflowService, access *services.AccessService, logger *zap.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflowService: workflowService,
		access:          access,
		logger:          logger.With(zap.String("handler", "workflow")),
	}
}

type stepAssigneeRequest struct {
	Type string `json:"type" binding:"required"`
	ID   string `json:"id" binding:"required"`
}

type stepRequest struct {
	Index     int                   `json:"index"`
	Type      string                `json:"type"`
	Name      string                `json:"name"`
	Assignees []stepAssigneeRequest `json:"assignees"`
	SLAHours  *float64              `json:"slaHours"`
}

type createWorkflowRequest struct {
	Name        string        `json:"name" binding:"required"`
	Description string        `json:"description"`
	Steps       []stepRequest `json:"steps"`
}

func (wh *WorkflowHandler) CreateWorkflow(c *gin.Context) {
	workspaceID := c.GetString("workspaceID")
	if !authorize(c, wh.access, workspaceID, services.ActionCreateWorkflow) {
		return
	}

	var req createWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	steps := make([]services.StepInput, 0, len(req.Steps))
	for _, s := range req.Steps {
		stepType := models.StepType(s.Type)
		if s.Type == "" {
			stepType = models.StepSingleApproval
		}
		assignees := make([]models.StepAssignee, 0, len(s.Assignees))
		for _, a := range s.Assignees {
			assignees = append(assignees, models.StepAssignee{
				AssigneeType: models.AssigneeType(a.Type),
				AssigneeID:   a.ID,
			})
		}
		steps = append(steps, services.StepInput{
			Index:     s.Index,
			Type:      stepType,
			Name:      s.Name,
			Assignees: assignees,
			SLAHours:  s.SLAHours,
		})
	}

	workflow, err := wh.workflowService.CreateWorkflow(c.Request.Context(), workspaceID, req.Name, req.Description, steps)
	if err != nil {
		mapEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, workflow)
}

func (wh *WorkflowHandler) GetWorkflow(c *gin.Context) {
	workflow, err := wh.workflowService.GetWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapEngineError(c, err)
		return
	}
	if workflow.WorkspaceID != c.GetString("workspaceID") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.JSON(http.StatusOK, workflow)
}

func (wh *WorkflowHandler) ListWorkflows(c *gin.Context) {
	workflows, err := wh.workflowService.ListWorkflows(c.Request.Context(), c.GetString("workspaceID"))
	if err != nil {
		mapEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workflows": workflows})
}
