package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/Jakedismo/knowledge-network-sub004/internal/store"
	"github.com/Jakedismo/knowledge-network-sub004/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService owns the review request state machine: starting reviews,
// recording decisions, step advancement, change-request pauses and reopening.
// Each request is one unit of serializability; all mutations run under the
// request's lock.
type ReviewService struct {
	reviews   store.ReviewRepository
	workflows store.WorkflowRepository
	resolver  MembershipResolver
	clock     Clock
	notifier  Notifier
	locker    *RequestLocker
	logger    *zap.Logger
	metrics   *metrics.MetricsCollector
}

func NewReviewService(
	reviews store.ReviewRepository,
	workflows store.WorkflowRepository,
	resolver MembershipResolver,
	clock Clock,
	notifier Notifier,
	locker *RequestLocker,
	logger *zap.Logger,
	metrics *metrics.MetricsCollector,
) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		workflows: workflows,
		resolver:  resolver,
		clock:     clock,
		notifier:  notifier,
		locker:    locker,
		logger:    logger.With(zap.String("service", "review_service")),
		metrics:   metrics,
	}
}

// DecisionResult is returned by RecordDecision so callers can react without
// re-fetching the request.
type DecisionResult struct {
	Status   models.RequestStatus `json:"status"`
	Advanced bool                 `json:"advanced"`
}

func (rs *ReviewService) StartReview(ctx context.Context, workspaceID, knowledgeID, workflowID, initiatorID string) (*models.ReviewRequest, error) {
	start := time.Now()

	workflow, err := rs.workflows.GetWorkflow(ctx, workflowID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if workflow.WorkspaceID != workspaceID {
		return nil, ErrNotFound
	}

	now := rs.clock.Now()
	request := &models.ReviewRequest{
		ID:               uuid.New().String(),
		WorkspaceID:      workspaceID,
		KnowledgeID:      knowledgeID,
		WorkflowID:       workflowID,
		InitiatorID:      initiatorID,
		Status:           models.RequestInProgress,
		CurrentStepIndex: 0,
		Cycle:            0,
	}

	assignments, err := rs.buildAssignments(ctx, request, &workflow.Steps[0], now)
	if err != nil {
		return nil, err
	}

	if err := rs.reviews.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	if err := rs.reviews.CreateAssignments(ctx, assignments); err != nil {
		return nil, err
	}

	rs.metrics.IncrementCounter("reviews_started", nil)
	rs.metrics.ObserveLatency("review_start", time.Since(start))
	rs.logger.Info("Review started",
		zap.String("request_id", request.ID),
		zap.String("knowledge_id", knowledgeID),
		zap.String("workflow_id", workflowID),
		zap.Int("assignments", len(assignments)))

	return request, nil
}

func (rs *ReviewService) RecordDecision(ctx context.Context, requestID, assigneeID string, decision models.Decision, comment string) (*DecisionResult, error) {
	if !decision.IsValid() {
		return nil, validationErr("decision", fmt.Sprintf("unknown decision %q", decision))
	}

	unlock := rs.locker.Lock(requestID)
	defer unlock()

	request, err := rs.fetchRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestInProgress {
		return nil, ErrInvalidTransition
	}

	assignment, err := rs.currentAssignment(ctx, request, assigneeID)
	if err != nil {
		return nil, err
	}

	now := rs.clock.Now()
	assignment.Status = models.AssignmentDecided
	assignment.Decision = &decision
	assignment.Comment = comment
	assignment.DecidedAt = &now

	var result *DecisionResult
	switch decision {
	case models.DecisionReject:
		// A single rejection vetoes the whole request.
		request.Status = models.RequestRejected
		result = &DecisionResult{Status: models.RequestRejected, Advanced: false}

	case models.DecisionApprove:
		advanced, err := rs.applyApproval(ctx, request, assignment, now)
		if err != nil {
			return nil, err
		}
		result = &DecisionResult{Status: request.Status, Advanced: advanced}

	case models.DecisionRequestChanges:
		// Same path as RequestChanges, with no version payload; the record
		// carries the reviewer's comment as its summary.
		changeRequest := &models.ChangeRequest{
			ID:          uuid.New().String(),
			RequestID:   request.ID,
			Summary:     comment,
			RequestedBy: assigneeID,
		}
		if err := rs.reviews.CreateChangeRequest(ctx, changeRequest); err != nil {
			return nil, err
		}
		request.Status = models.RequestChangesRequested
		result = &DecisionResult{Status: models.RequestChangesRequested, Advanced: false}
	}

	if err := rs.reviews.SaveAssignment(ctx, assignment); err != nil {
		return nil, err
	}
	if err := rs.reviews.SaveRequest(ctx, request); err != nil {
		return nil, err
	}

	rs.emitDecisionEvents(request, assignment, decision, now)
	rs.metrics.IncrementCounter("decisions_recorded", map[string]string{"decision": string(decision)})
	rs.logger.Info("Decision recorded",
		zap.String("request_id", requestID),
		zap.String("assignee_id", assigneeID),
		zap.String("decision", string(decision)),
		zap.String("status", request.Status.String()),
		zap.Bool("advanced", result.Advanced))

	return result, nil
}

// applyApproval marks the quorum check and, when the step is satisfied,
// either advances to the next step or finalizes the request. The caller holds
// the request lock, so at most one decision can advance a given step.
func (rs *ReviewService) applyApproval(ctx context.Context, request *models.ReviewRequest, decided *models.Assignment, now time.Time) (bool, error) {
	workflow, err := rs.workflows.GetWorkflow(ctx, request.WorkflowID)
	if err != nil {
		return false, err
	}
	step := &workflow.Steps[request.CurrentStepIndex]

	satisfied, err := rs.stepSatisfied(ctx, request, step, decided)
	if err != nil {
		return false, err
	}
	if !satisfied {
		return false, nil
	}

	if request.CurrentStepIndex == len(workflow.Steps)-1 {
		request.Status = models.RequestApproved
		return true, nil
	}

	request.CurrentStepIndex++
	next := &workflow.Steps[request.CurrentStepIndex]
	assignments, err := rs.buildAssignments(ctx, request, next, now)
	if err != nil {
		return false, err
	}
	if err := rs.reviews.CreateAssignments(ctx, assignments); err != nil {
		return false, err
	}

	rs.notifier.Emit(Event{
		Name:       EventStepAdvanced,
		RequestID:  request.ID,
		StepIndex:  request.CurrentStepIndex,
		OccurredAt: now,
	})
	return true, nil
}

// stepSatisfied evaluates the step's quorum policy against the decisions of
// the current cycle. The decided assignment is passed in because its row is
// saved after this check runs.
func (rs *ReviewService) stepSatisfied(ctx context.Context, request *models.ReviewRequest, step *models.WorkflowStep, decided *models.Assignment) (bool, error) {
	switch step.Type {
	case models.StepSingleApproval:
		return decided.Decision != nil && *decided.Decision == models.DecisionApprove, nil
	default:
		return false, fmt.Errorf("unsupported step type %q", step.Type)
	}
}

func (rs *ReviewService) RequestChanges(ctx context.Context, requestID, versionFromID, versionToID, summary, requestedBy string) (*models.ChangeRequest, error) {
	unlock := rs.locker.Lock(requestID)
	defer unlock()

	request, err := rs.fetchRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestInProgress {
		return nil, ErrInvalidTransition
	}

	now := rs.clock.Now()
	changeRequest := &models.ChangeRequest{
		ID:            uuid.New().String(),
		RequestID:     requestID,
		VersionFromID: versionFromID,
		VersionToID:   versionToID,
		Summary:       summary,
		RequestedBy:   requestedBy,
	}
	if err := rs.reviews.CreateChangeRequest(ctx, changeRequest); err != nil {
		return nil, err
	}

	request.Status = models.RequestChangesRequested
	if err := rs.reviews.SaveRequest(ctx, request); err != nil {
		return nil, err
	}

	rs.notifier.Emit(Event{
		Name:       EventChangesRequested,
		RequestID:  requestID,
		StepIndex:  request.CurrentStepIndex,
		AssigneeID: requestedBy,
		OccurredAt: now,
	})
	rs.metrics.IncrementCounter("change_requests_created", nil)
	rs.logger.Info("Changes requested",
		zap.String("request_id", requestID),
		zap.String("requested_by", requestedBy))

	return changeRequest, nil
}

// Reopen resumes a paused request at its current step. Assignments are seeded
// fresh so pre-pause decisions never count toward the reopened cycle.
func (rs *ReviewService) Reopen(ctx context.Context, requestID string) (*models.ReviewRequest, error) {
	unlock := rs.locker.Lock(requestID)
	defer unlock()

	request, err := rs.fetchRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestChangesRequested {
		return nil, ErrInvalidTransition
	}

	workflow, err := rs.workflows.GetWorkflow(ctx, request.WorkflowID)
	if err != nil {
		return nil, err
	}

	now := rs.clock.Now()
	request.Status = models.RequestInProgress
	request.Cycle++

	step := &workflow.Steps[request.CurrentStepIndex]
	assignments, err := rs.buildAssignments(ctx, request, step, now)
	if err != nil {
		return nil, err
	}
	if err := rs.reviews.CreateAssignments(ctx, assignments); err != nil {
		return nil, err
	}
	if err := rs.reviews.SaveRequest(ctx, request); err != nil {
		return nil, err
	}

	rs.notifier.Emit(Event{
		Name:       EventRequestReopened,
		RequestID:  requestID,
		StepIndex:  request.CurrentStepIndex,
		OccurredAt: now,
	})
	rs.metrics.IncrementCounter("reviews_reopened", nil)
	rs.logger.Info("Review reopened",
		zap.String("request_id", requestID),
		zap.Int("step_index", request.CurrentStepIndex),
		zap.Int("cycle", request.Cycle))

	return request, nil
}

func (rs *ReviewService) GetRequest(ctx context.Context, requestID string) (*models.ReviewRequest, error) {
	return rs.fetchRequest(ctx, requestID)
}

func (rs *ReviewService) ListRequests(ctx context.Context, workspaceID string) ([]models.ReviewRequest, error) {
	return rs.reviews.ListRequests(ctx, workspaceID)
}

func (rs *ReviewService) ListAssignments(ctx context.Context, requestID string, stepIndex int) ([]models.Assignment, error) {
	if _, err := rs.fetchRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return rs.reviews.ListAssignments(ctx, requestID, stepIndex)
}

func (rs *ReviewService) ListChangeRequests(ctx context.Context, requestID string) ([]models.ChangeRequest, error) {
	if _, err := rs.fetchRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return rs.reviews.ListChangeRequests(ctx, requestID)
}

func (rs *ReviewService) fetchRequest(ctx context.Context, requestID string) (*models.ReviewRequest, error) {
	request, err := rs.reviews.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return request, nil
}

// currentAssignment returns the caller's undecided assignment for the
// request's current step and cycle. Escalated assignments remain decidable;
// escalation is advisory, not terminal.
func (rs *ReviewService) currentAssignment(ctx context.Context, request *models.ReviewRequest, assigneeID string) (*models.Assignment, error) {
	assignments, err := rs.reviews.ListAssignments(ctx, request.ID, request.CurrentStepIndex)
	if err != nil {
		return nil, err
	}

	var match *models.Assignment
	for i := range assignments {
		a := &assignments[i]
		if a.Cycle != request.Cycle || a.AssigneeID != assigneeID {
			continue
		}
		if a.Status == models.AssignmentDecided {
			return nil, ErrAlreadyDecided
		}
		match = a
	}
	if match == nil {
		return nil, ErrNotAssignee
	}
	return match, nil
}

// buildAssignments resolves the step's assignees and produces one PENDING
// assignment per distinct user, with DueAt derived from the step SLA.
func (rs *ReviewService) buildAssignments(ctx context.Context, request *models.ReviewRequest, step *models.WorkflowStep, now time.Time) ([]models.Assignment, error) {
	var dueAt *time.Time
	if step.SLAHours != nil {
		due := now.Add(time.Duration(*step.SLAHours * float64(time.Hour)))
		dueAt = &due
	}

	seen := make(map[string]bool)
	var assignments []models.Assignment
	for _, stepAssignee := range step.Assignees {
		userIDs, err := rs.resolver.Resolve(ctx, request.WorkspaceID, stepAssignee)
		if err != nil {
			return nil, err
		}
		for _, userID := range userIDs {
			if seen[userID] {
				continue
			}
			seen[userID] = true
			assignments = append(assignments, models.Assignment{
				ID:         uuid.New().String(),
				RequestID:  request.ID,
				StepIndex:  request.CurrentStepIndex,
				Cycle:      request.Cycle,
				AssigneeID: userID,
				Status:     models.AssignmentPending,
				DueAt:      dueAt,
			})
		}
	}
	if len(assignments) == 0 {
		return nil, validationErr("steps.assignees", fmt.Sprintf("step %d resolved to no users", step.Index))
	}
	return assignments, nil
}

func (rs *ReviewService) emitDecisionEvents(request *models.ReviewRequest, assignment *models.Assignment, decision models.Decision, now time.Time) {
	rs.notifier.Emit(Event{
		Name:       EventDecisionRecorded,
		RequestID:  request.ID,
		StepIndex:  assignment.StepIndex,
		AssigneeID: assignment.AssigneeID,
		Decision:   string(decision),
		OccurredAt: now,
	})

	switch request.Status {
	case models.RequestApproved:
		rs.notifier.Emit(Event{Name: EventRequestApproved, RequestID: request.ID, OccurredAt: now})
	case models.RequestRejected:
		rs.notifier.Emit(Event{Name: EventRequestRejected, RequestID: request.ID, OccurredAt: now})
	case models.RequestChangesRequested:
		rs.notifier.Emit(Event{Name: EventChangesRequested, RequestID: request.ID, StepIndex: assignment.StepIndex, AssigneeID: assignment.AssigneeID, OccurredAt: now})
	}
}
