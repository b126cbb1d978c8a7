package handlers

import (
	"net/http"
	"strconv"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/Jakedismo/knowledge-network-sub004/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
	access        *services.AccessService
	logger        *zap.Logger
}

func NewReviewHandler(reviewService *services.ReviewService, access *services.AccessService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		access:        access,
		logger:        logger.With(zap.String("handler", "review")),
	}
}

type startReviewRequest struct {
	KnowledgeID string `json:"knowledgeId" binding:"required"`
	WorkflowID  string `json:"workflowId" binding:"required"`
}

func (rh *ReviewHandler) StartReview(c *gin.Context) {
	workspaceID := c.GetString("workspaceID")
	if !authorize(c, rh.access, workspaceID, services.ActionStartReview) {
		return
	}

	var req startReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := rh.reviewService.StartReview(c.Request.Context(), workspaceID, req.KnowledgeID, req.WorkflowID, c.GetString("username"))
	if err != nil {
		mapEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

type decisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Comment  string `json:"comment"`
}

func (rh *ReviewHandler) RecordDecision(c *gin.Context) {
	request, ok := rh.loadRequest(c)
	if !ok {
		return
	}
	if !authorize(c, rh.access, request.WorkspaceID, services.ActionDecide) {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := rh.reviewService.RecordDecision(c.Request.Context(), request.ID, c.GetString("username"), models.Decision(req.Decision), req.Comment)
	if err != nil {
		mapEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type changeRequestRequest struct {
	VersionFromID string `json:"versionFromId"`
	VersionToID   string `json:"versionToId"`
	Summary       string `json:"summary"`
}

func (rh *ReviewHandler) RequestChanges(c *gin.Context) {
	request, ok := rh.loadRequest(c)
	if !ok {
		return
	}
	if !authorize(c, rh.access, request.WorkspaceID, services.ActionRequestChanges) {
		return
	}

	var req changeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	changeRequest, err := rh.reviewService.RequestChanges(c.Request.Context(), request.ID, req.VersionFromID, req.VersionToID, req.Summary, c.GetString("username"))
	if err != nil {
		mapEngineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, changeRequest)
}

func (rh *ReviewHandler) ListChangeRequests(c *gin.Context) {
	request, ok := rh.loadRequest(c)
	if !ok {
		return
	}

	changeRequests, err := rh.reviewService.ListChangeRequests(c.Request.Context(), request.ID)
	if err != nil {
		mapEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changeRequests": changeRequests})
}

func (rh *ReviewHandler) Reopen(c *gin.Context) {
	request, ok := rh.loadRequest(c)
	if !ok {
		return
	}
	if !authorize(c, rh.access, request.WorkspaceID, services.ActionReopen) {
		return
	}

	reopened, err := rh.reviewService.Reopen(c.Request.Context(), request.ID)
	if err != nil {
		mapEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, reopened)
}

func (rh *ReviewHandler) GetRequest(c *gin.Context) {
	request, ok := rh.loadRequest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, request)
}

func (rh *ReviewHandler) ListRequests(c *gin.Context) {
	requests, err := rh.reviewService.ListRequests(c.Request.Context(), c.GetString("workspaceID"))
	if err != nil {
		mapEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func (rh *ReviewHandler) ListAssignments(c *gin.Context) {
	request, ok := rh.loadRequest(c)
	if !ok {
		return
	}

	stepIndex := request.CurrentStepIndex
	if raw := c.Query("step"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "step must be an integer"})
			return
		}
		stepIndex = parsed
	}

	assignments, err := rh.reviewService.ListAssignments(c.Request.Context(), request.ID, stepIndex)
	if err != nil {
		mapEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments, "stepIndex": stepIndex})
}

// loadRequest fetches the request by path ID and enforces workspace scoping.
func (rh *ReviewHandler) loadRequest(c *gin.Context) (*models.ReviewRequest, bool) {
	request, err := rh.reviewService.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapEngineError(c, err)
		return nil, false
	}
	if request.WorkspaceID != c.GetString("workspaceID") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return nil, false
	}
	return request, true
}
