package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/Jakedismo/knowledge-network-sub004/internal/store"
	"github.com/Jakedismo/knowledge-network-sub004/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkflowService is the workflow definition store. Templates are validated
// once at creation and treated as read-only afterwards.
type WorkflowService struct {
	workflows store.WorkflowRepository
	logger    *zap.Logger
	metrics   *metrics.MetricsCollector
}

func NewWorkflowService(workflows store.WorkflowRepository, logger *zap.Logger, metrics *metrics.MetricsCollector) *WorkflowService {
	return &WorkflowService{
		workflows: workflows,
		logger:    logger.With(zap.String("service", "workflow_service")),
		metrics:   metrics,
	}
}

// StepInput describes one step of a workflow being created.
type StepInput struct {
	Index     int
	Type      models.StepType
	Name      string
	Assignees []models.StepAssignee
	SLAHours  *float64
}

func (ws *WorkflowService) CreateWorkflow(ctx context.Context, workspaceID, name, description string, steps []StepInput) (*models.Workflow, error) {
	start := time.Now()

	if workspaceID == "" {
		return nil, validationErr("workspaceId", "must not be empty")
	}
	if name == "" {
		return nil, validationErr("name", "must not be empty")
	}
	if err := validateSteps(steps); err != nil {
		return nil, err
	}

	// Steps are stored and traversed in index order regardless of input order.
	sort.Slice(steps, func(i, j int) bool { return steps[i].Index < steps[j].Index })

	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Name:        name,
		Description: description,
	}
	for _, step := range steps {
		workflow.Steps = append(workflow.Steps, models.WorkflowStep{
			WorkflowID: workflow.ID,
			Index:      step.Index,
			Type:       step.Type,
			Name:       step.Name,
			Assignees:  step.Assignees,
			SLAHours:   step.SLAHours,
		})
	}

	if err := ws.workflows.CreateWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	ws.metrics.IncrementCounter("workflows_created", nil)
	ws.metrics.ObserveLatency("workflow_create", time.Since(start))
	ws.logger.Info("Workflow created",
		zap.String("workflow_id", workflow.ID),
		zap.String("workspace_id", workspaceID),
		zap.Int("steps", len(steps)))

	return workflow, nil
}

func (ws *WorkflowService) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := ws.workflows.GetWorkflow(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return workflow, nil
}

func (ws *WorkflowService) ListWorkflows(ctx context.Context, workspaceID string) ([]models.Workflow, error) {
	return ws.workflows.ListWorkflows(ctx, workspaceID)
}

func validateSteps(steps []StepInput) error {
	if len(steps) == 0 {
		return validationErr("steps", "must not be empty")
	}

	seen := make(map[int]bool, len(steps))
	for _, step := range steps {
		if step.Index < 0 || step.Index >= len(steps) {
			return validationErr("steps", fmt.Sprintf("step index %d out of range 0..%d", step.Index, len(steps)-1))
		}
		if seen[step.Index] {
			return validationErr("steps", fmt.Sprintf("duplicate step index %d", step.Index))
		}
		seen[step.Index] = true

		if step.Name == "" {
			return validationErr("steps.name", fmt.Sprintf("step %d has no name", step.Index))
		}
		switch step.Type {
		case models.StepSingleApproval:
		case "":
			return validationErr("steps.type", fmt.Sprintf("step %d has no type", step.Index))
		default:
			return validationErr("steps.type", fmt.Sprintf("unsupported step type %q", step.Type))
		}
		if len(step.Assignees) == 0 {
			return validationErr("steps.assignees", fmt.Sprintf("step %d has no assignees", step.Index))
		}
		for _, assignee := range step.Assignees {
			if assignee.AssigneeType != models.AssigneeUser && assignee.AssigneeType != models.AssigneeRole {
				return validationErr("steps.assignees", fmt.Sprintf("step %d has assignee with unknown type %q", step.Index, assignee.AssigneeType))
			}
			if assignee.AssigneeID == "" {
				return validationErr("steps.assignees", fmt.Sprintf("step %d has assignee with empty id", step.Index))
			}
		}
		if step.SLAHours != nil && *step.SLAHours <= 0 {
			return validationErr("steps.slaHours", fmt.Sprintf("step %d has non-positive SLA", step.Index))
		}
	}

	return nil
}
