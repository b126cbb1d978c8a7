package store

import (
	"context"
	"testing"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreWorkflowIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	workflow := &models.Workflow{
		ID:          "wf-1",
		WorkspaceID: "ws-1",
		Name:        "original",
		Steps: []models.WorkflowStep{
			{Index: 0, Type: models.StepSingleApproval, Name: "step", Assignees: []models.StepAssignee{
				{AssigneeType: models.AssigneeUser, AssigneeID: "u1"},
			}},
		},
	}
	require.NoError(t, s.CreateWorkflow(ctx, workflow))

	fetched, err := s.GetWorkflow(ctx, "wf-1")
	require.NoError(t, err)

	// Mutating the returned copy must not leak into the store.
	fetched.Name = "mutated"
	fetched.Steps[0].Name = "mutated"
	fetched.Steps[0].Assignees[0].AssigneeID = "intruder"

	again, err := s.GetWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Name)
	assert.Equal(t, "step", again.Steps[0].Name)
	assert.Equal(t, "u1", again.Steps[0].Assignees[0].AssigneeID)
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetWorkflow(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetRequest(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.SaveRequest(ctx, &models.ReviewRequest{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.SaveAssignment(ctx, &models.Assignment{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreOverdueFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-1 * time.Hour)
	future := now.Add(1 * time.Hour)

	require.NoError(t, s.CreateRequest(ctx, &models.ReviewRequest{
		ID: "req-active", WorkspaceID: "ws-1", Status: models.RequestInProgress, CurrentStepIndex: 0, Cycle: 1,
	}))
	require.NoError(t, s.CreateRequest(ctx, &models.ReviewRequest{
		ID: "req-paused", WorkspaceID: "ws-1", Status: models.RequestChangesRequested, CurrentStepIndex: 0, Cycle: 0,
	}))

	assignments := []models.Assignment{
		// Eligible: pending, due, current step and cycle, request in progress.
		{ID: "a-due", RequestID: "req-active", StepIndex: 0, Cycle: 1, AssigneeID: "u1", Status: models.AssignmentPending, DueAt: &past},
		// Not due yet.
		{ID: "a-future", RequestID: "req-active", StepIndex: 0, Cycle: 1, AssigneeID: "u2", Status: models.AssignmentPending, DueAt: &future},
		// No SLA.
		{ID: "a-nosla", RequestID: "req-active", StepIndex: 0, Cycle: 1, AssigneeID: "u3", Status: models.AssignmentPending},
		// Superseded cycle.
		{ID: "a-oldcycle", RequestID: "req-active", StepIndex: 0, Cycle: 0, AssigneeID: "u4", Status: models.AssignmentPending, DueAt: &past},
		// Paused request.
		{ID: "a-paused", RequestID: "req-paused", StepIndex: 0, Cycle: 0, AssigneeID: "u5", Status: models.AssignmentPending, DueAt: &past},
		// Already escalated.
		{ID: "a-esc", RequestID: "req-active", StepIndex: 0, Cycle: 1, AssigneeID: "u6", Status: models.AssignmentEscalated, DueAt: &past},
	}
	require.NoError(t, s.CreateAssignments(ctx, assignments))

	overdue, err := s.ListOverdueAssignments(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "a-due", overdue[0].ID)
}

func TestMemoryStoreUsersByRole(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, u := range []models.User{
		{Username: "lead-a", Email: "a@x", PasswordHash: "h", WorkspaceID: "ws-1", Role: models.RoleLead, ActiveStatus: true},
		{Username: "lead-b", Email: "b@x", PasswordHash: "h", WorkspaceID: "ws-1", Role: models.RoleLead, ActiveStatus: false},
		{Username: "lead-c", Email: "c@x", PasswordHash: "h", WorkspaceID: "ws-2", Role: models.RoleLead, ActiveStatus: true},
		{Username: "member-d", Email: "d@x", PasswordHash: "h", WorkspaceID: "ws-1", Role: models.RoleMember, ActiveStatus: true},
	} {
		user := u
		require.NoError(t, s.SaveUser(ctx, &user))
	}

	leads, err := s.ListUsersByRole(ctx, "ws-1", models.RoleLead)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "lead-a", leads[0].Username)

	all, err := s.ListUsers(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
