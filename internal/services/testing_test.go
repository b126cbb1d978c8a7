package services

import (
	"context"
	"sync"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/Jakedismo/knowledge-network-sub004/internal/store"
	"github.com/Jakedismo/knowledge-network-sub004/pkg/metrics"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClock is a settable clock for deterministic due-date tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{t: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// captureNotifier records emitted events for assertions.
type captureNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *captureNotifier) Emit(event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *captureNotifier) byName(name string) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Event
	for _, e := range n.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	store       *store.MemoryStore
	clock       *fakeClock
	notifier    *captureNotifier
	workflows   *WorkflowService
	reviews     *ReviewService
	escalations *EscalationService
}

func newFixture() *fixture {
	memStore := store.NewMemoryStore()
	clock := newFakeClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	notifier := &captureNotifier{}
	locker := NewRequestLocker()
	logger := zap.NewNop()
	collector := metrics.NewMetricsCollector()
	resolver := NewStoreResolver(memStore)

	return &fixture{
		store:       memStore,
		clock:       clock,
		notifier:    notifier,
		workflows:   NewWorkflowService(memStore, logger, collector),
		reviews:     NewReviewService(memStore, memStore, resolver, clock, notifier, locker, logger, collector),
		escalations: NewEscalationService(memStore, clock, notifier, locker, logger, collector),
	}
}

func userAssignee(id string) models.StepAssignee {
	return models.StepAssignee{AssigneeType: models.AssigneeUser, AssigneeID: id}
}

// twoStepWorkflow creates the peer/lead template used across scenario tests.
func (f *fixture) twoStepWorkflow(t require.TestingT, sla *float64) *models.Workflow {
	workflow, err := f.workflows.CreateWorkflow(context.Background(), "ws-1", "peer-lead", "", []StepInput{
		{Index: 0, Type: models.StepSingleApproval, Name: "peer", Assignees: []models.StepAssignee{userAssignee("peer1"), userAssignee("peer2")}, SLAHours: sla},
		{Index: 1, Type: models.StepSingleApproval, Name: "lead", Assignees: []models.StepAssignee{userAssignee("lead1")}},
	})
	require.NoError(t, err)
	return workflow
}

func (f *fixture) singleStepWorkflow(t require.TestingT, sla *float64) *models.Workflow {
	workflow, err := f.workflows.CreateWorkflow(context.Background(), "ws-1", "single", "", []StepInput{
		{Index: 0, Type: models.StepSingleApproval, Name: "review", Assignees: []models.StepAssignee{userAssignee("reviewer1")}, SLAHours: sla},
	})
	require.NoError(t, err)
	return workflow
}

func (f *fixture) startReview(t require.TestingT, workflowID string) *models.ReviewRequest {
	request, err := f.reviews.StartReview(context.Background(), "ws-1", "doc-1", workflowID, "author1")
	require.NoError(t, err)
	return request
}

func floatPtr(v float64) *float64 { return &v }
