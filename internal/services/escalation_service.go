package services

import (
	"context"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/Jakedismo/knowledge-network-sub004/internal/store"
	"github.com/Jakedismo/knowledge-network-sub004/pkg/metrics"
	"go.uber.org/zap"
)

// EscalationService sweeps overdue assignments and marks them ESCALATED.
// Escalation is a signal for operational follow-up; it never changes the
// request status and never counts as a decision. The sweep is triggered by a
// caller (API or ticker), not by a loop of its own.
type EscalationService struct {
	reviews  store.ReviewRepository
	clock    Clock
	notifier Notifier
	locker   *RequestLocker
	logger   *zap.Logger
	metrics  *metrics.MetricsCollector
}

func NewEscalationService(
	reviews store.ReviewRepository,
	clock Clock,
	notifier Notifier,
	locker *RequestLocker,
	logger *zap.Logger,
	metrics *metrics.MetricsCollector,
) *EscalationService {
	return &EscalationService{
		reviews:  reviews,
		clock:    clock,
		notifier: notifier,
		locker:   locker,
		logger:   logger.With(zap.String("service", "escalation_service")),
		metrics:  metrics,
	}
}

// RunEscalations performs one bounded sweep as of now and returns the number
// of assignments escalated. Idempotent per assignment: PENDING -> ESCALATED
// is the only transition it makes, so an already escalated or decided
// assignment is never touched or re-counted. A failure on one assignment
// does not abort the rest of the sweep.
func (es *EscalationService) RunEscalations(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()

	overdue, err := es.reviews.ListOverdueAssignments(ctx, now)
	if err != nil {
		return 0, err
	}

	escalated := 0
	for i := range overdue {
		done, err := es.escalate(ctx, &overdue[i], now)
		if err != nil {
			es.logger.Error("Failed to escalate assignment",
				zap.String("assignment_id", overdue[i].ID),
				zap.String("request_id", overdue[i].RequestID),
				zap.Error(err))
			continue
		}
		if done {
			escalated++
		}
	}

	es.metrics.AddToCounter("assignments_escalated", int64(escalated))
	es.metrics.ObserveLatency("escalation_sweep", time.Since(start))
	es.logger.Info("Escalation sweep completed",
		zap.Int("overdue", len(overdue)),
		zap.Int("escalated", escalated))

	return escalated, nil
}

func (es *EscalationService) escalate(ctx context.Context, assignment *models.Assignment, now time.Time) (bool, error) {
	unlock := es.locker.Lock(assignment.RequestID)
	defer unlock()

	// Re-read under the lock: a decision recorded since the scan wins.
	current, err := es.reviews.ListAssignments(ctx, assignment.RequestID, assignment.StepIndex)
	if err != nil {
		return false, err
	}
	var fresh *models.Assignment
	for i := range current {
		if current[i].ID == assignment.ID {
			fresh = &current[i]
			break
		}
	}
	if fresh == nil || fresh.Status != models.AssignmentPending {
		return false, nil
	}

	fresh.Status = models.AssignmentEscalated
	if err := es.reviews.SaveAssignment(ctx, fresh); err != nil {
		return false, err
	}

	es.notifier.Emit(Event{
		Name:       EventEscalated,
		RequestID:  fresh.RequestID,
		StepIndex:  fresh.StepIndex,
		AssigneeID: fresh.AssigneeID,
		OverdueBy:  now.Sub(*fresh.DueAt),
		OccurredAt: now,
	})
	return true, nil
}
