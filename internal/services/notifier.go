package services

import (
	"time"

	"go.uber.org/zap"
)

// Event names emitted by the engine. Delivery to assignees and escalation
// targets is the notification collaborator's concern; the engine only emits.
const (
	EventDecisionRecorded = "decision.recorded"
	EventRequestApproved  = "request.approved"
	EventRequestRejected  = "request.rejected"
	EventChangesRequested = "request.changes_requested"
	EventRequestReopened  = "request.reopened"
	EventStepAdvanced     = "request.step_advanced"
	EventEscalated        = "assignment.escalated"
)

type Event struct {
	Name       string
	RequestID  string
	StepIndex  int
	AssigneeID string
	Decision   string
	OverdueBy  time.Duration
	OccurredAt time.Time
}

// Notifier receives engine events fire-and-forget. Implementations must not
// block the calling operation and must never return delivery failures into
// engine control flow.
type Notifier interface {
	Emit(event Event)
}

// LogNotifier writes events to the structured log. Used when no delivery
// backend is wired in.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With(zap.String("component", "notifier"))}
}

func (n *LogNotifier) Emit(event Event) {
	n.logger.Info("Event emitted",
		zap.String("event", event.Name),
		zap.String("request_id", event.RequestID),
		zap.Int("step_index", event.StepIndex),
		zap.String("assignee_id", event.AssigneeID),
		zap.String("decision", event.Decision),
		zap.Duration("overdue_by", event.OverdueBy),
	)
}
