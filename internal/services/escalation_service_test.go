package services

import (
	"context"
	"testing"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscalatesOverdueAssignment(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, floatPtr(1))
	request := f.startReview(t, workflow.ID)

	f.clock.Advance(2*time.Hour + 10*time.Minute)

	escalated, err := f.escalations.RunEscalations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, escalated)

	assignments, err := f.reviews.ListAssignments(context.Background(), request.ID, 0)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, models.AssignmentEscalated, assignments[0].Status)

	events := f.notifier.byName(EventEscalated)
	require.Len(t, events, 1)
	assert.Equal(t, request.ID, events[0].RequestID)
	assert.Equal(t, "reviewer1", events[0].AssigneeID)
	assert.Equal(t, 1*time.Hour+10*time.Minute, events[0].OverdueBy)

	// Escalation never touches the request itself.
	current, err := f.reviews.GetRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestInProgress, current.Status)
	assert.Equal(t, 0, current.CurrentStepIndex)
}

func TestEscalationIsMonotonic(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, floatPtr(1))
	f.startReview(t, workflow.ID)

	f.clock.Advance(3 * time.Hour)

	escalated, err := f.escalations.RunEscalations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, escalated)

	// A second sweep finds nothing new.
	f.clock.Advance(1 * time.Hour)
	escalated, err = f.escalations.RunEscalations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, escalated)

	assert.Len(t, f.notifier.byName(EventEscalated), 1)
}

func TestDecidedAssignmentIsNotEscalated(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, floatPtr(1))
	request := f.startReview(t, workflow.ID)

	_, err := f.reviews.RecordDecision(context.Background(), request.ID, "reviewer1", models.DecisionApprove, "")
	require.NoError(t, err)

	f.clock.Advance(5 * time.Hour)
	escalated, err := f.escalations.RunEscalations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, escalated)
}

func TestNoSLANeverEscalates(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, nil)
	f.startReview(t, workflow.ID)

	f.clock.Advance(100 * 24 * time.Hour)
	escalated, err := f.escalations.RunEscalations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, escalated)
}

func TestNotYetDueIsNotEscalated(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, floatPtr(8))
	f.startReview(t, workflow.ID)

	f.clock.Advance(1 * time.Hour)
	escalated, err := f.escalations.RunEscalations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, escalated)
}

func TestLateDecisionOnEscalatedAssignmentGoverns(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, floatPtr(1))
	request := f.startReview(t, workflow.ID)

	f.clock.Advance(2 * time.Hour)
	escalated, err := f.escalations.RunEscalations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	require.Equal(t, 1, escalated)

	// Escalation is advisory: the reviewer's decision still lands.
	result, err := f.reviews.RecordDecision(context.Background(), request.ID, "reviewer1", models.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, result.Status)
	assert.True(t, result.Advanced)
}

func TestPausedRequestIsNotSwept(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, floatPtr(1))
	request := f.startReview(t, workflow.ID)

	_, err := f.reviews.RequestChanges(context.Background(), request.ID, "v1", "v2", "hold", "reviewer1")
	require.NoError(t, err)

	f.clock.Advance(3 * time.Hour)
	escalated, err := f.escalations.RunEscalations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, escalated)
}

func TestSupersededCycleIsNotSwept(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, floatPtr(1))
	request := f.startReview(t, workflow.ID)

	_, err := f.reviews.RequestChanges(context.Background(), request.ID, "v1", "v2", "hold", "reviewer1")
	require.NoError(t, err)
	_, err = f.reviews.Reopen(context.Background(), request.ID)
	require.NoError(t, err)

	// Only the fresh cycle's assignment is overdue-eligible; it was seeded
	// at reopen time, so nothing is due yet.
	escalated, err := f.escalations.RunEscalations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, escalated)

	// Once the fresh assignment's SLA passes, exactly one escalation fires.
	f.clock.Advance(90 * time.Minute)
	escalated, err = f.escalations.RunEscalations(context.Background(), f.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, escalated)

	current, err := f.reviews.GetRequest(context.Background(), request.ID)
	require.NoError(t, err)

	assignments, err := f.reviews.ListAssignments(context.Background(), request.ID, 0)
	require.NoError(t, err)
	var escalatedRows int
	for _, a := range assignments {
		if a.Status == models.AssignmentEscalated {
			escalatedRows++
			assert.Equal(t, current.Cycle, a.Cycle, "only the fresh cycle escalates")
		}
	}
	assert.Equal(t, 1, escalatedRows)
}
