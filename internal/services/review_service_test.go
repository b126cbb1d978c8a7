package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartReviewSeedsFirstStep(t *testing.T) {
	f := newFixture()
	workflow := f.twoStepWorkflow(t, floatPtr(2))

	request := f.startReview(t, workflow.ID)

	assert.Equal(t, models.RequestInProgress, request.Status)
	assert.Equal(t, 0, request.CurrentStepIndex)

	assignments, err := f.reviews.ListAssignments(context.Background(), request.ID, 0)
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	wantDue := f.clock.Now().Add(2 * time.Hour)
	for _, a := range assignments {
		assert.Equal(t, models.AssignmentPending, a.Status)
		require.NotNil(t, a.DueAt)
		assert.True(t, a.DueAt.Equal(wantDue))
	}

	// Step 1 has not been seeded yet.
	later, err := f.reviews.ListAssignments(context.Background(), request.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, later)
}

func TestStartReviewUnknownWorkflow(t *testing.T) {
	f := newFixture()

	_, err := f.reviews.StartReview(context.Background(), "ws-1", "doc-1", "missing", "author1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStartReviewWorkspaceMismatch(t *testing.T) {
	f := newFixture()
	workflow := f.twoStepWorkflow(t, nil)

	_, err := f.reviews.StartReview(context.Background(), "ws-other", "doc-1", workflow.ID, "author1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTwoStepApprovalFlow(t *testing.T) {
	f := newFixture()
	workflow := f.twoStepWorkflow(t, nil)
	request := f.startReview(t, workflow.ID)

	result, err := f.reviews.RecordDecision(context.Background(), request.ID, "peer1", models.DecisionApprove, "looks good")
	require.NoError(t, err)
	assert.Equal(t, models.RequestInProgress, result.Status)
	assert.True(t, result.Advanced)

	current, err := f.reviews.GetRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.CurrentStepIndex)

	leadAssignments, err := f.reviews.ListAssignments(context.Background(), request.ID, 1)
	require.NoError(t, err)
	require.Len(t, leadAssignments, 1)
	assert.Equal(t, "lead1", leadAssignments[0].AssigneeID)

	result, err = f.reviews.RecordDecision(context.Background(), request.ID, "lead1", models.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, result.Status)
	assert.True(t, result.Advanced)

	assert.Len(t, f.notifier.byName(EventRequestApproved), 1)
}

func TestRejectShortCircuits(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, nil)
	request := f.startReview(t, workflow.ID)

	result, err := f.reviews.RecordDecision(context.Background(), request.ID, "reviewer1", models.DecisionReject, "nope")
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, result.Status)
	assert.False(t, result.Advanced)

	_, err = f.reviews.RecordDecision(context.Background(), request.ID, "reviewer1", models.DecisionApprove, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Len(t, f.notifier.byName(EventRequestRejected), 1)
}

func TestRejectVetoesWithOtherAssigneesPending(t *testing.T) {
	f := newFixture()
	workflow := f.twoStepWorkflow(t, nil)
	request := f.startReview(t, workflow.ID)

	result, err := f.reviews.RecordDecision(context.Background(), request.ID, "peer2", models.DecisionReject, "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, result.Status)

	// peer1's still-pending assignment no longer accepts decisions.
	_, err = f.reviews.RecordDecision(context.Background(), request.ID, "peer1", models.DecisionApprove, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDuplicateDecisionNeverDoubleAdvances(t *testing.T) {
	f := newFixture()
	workflow := f.twoStepWorkflow(t, nil)
	request := f.startReview(t, workflow.ID)

	_, err := f.reviews.RecordDecision(context.Background(), request.ID, "peer1", models.DecisionApprove, "")
	require.NoError(t, err)

	// The step already advanced, so a resubmission finds no pending
	// assignment on the current step.
	_, err = f.reviews.RecordDecision(context.Background(), request.ID, "peer1", models.DecisionApprove, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAssignee)

	current, err := f.reviews.GetRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.CurrentStepIndex)

	leadAssignments, err := f.reviews.ListAssignments(context.Background(), request.ID, 1)
	require.NoError(t, err)
	assert.Len(t, leadAssignments, 1)
}

func TestDecidedAssignmentRejectsResubmission(t *testing.T) {
	f := newFixture()
	workflow := f.twoStepWorkflow(t, nil)
	request := f.startReview(t, workflow.ID)

	// Force a decided assignment that did not advance the step, as a
	// mid-quorum policy would leave behind.
	assignments, err := f.reviews.ListAssignments(context.Background(), request.ID, 0)
	require.NoError(t, err)
	for i := range assignments {
		if assignments[i].AssigneeID == "peer1" {
			decision := models.DecisionApprove
			assignments[i].Status = models.AssignmentDecided
			assignments[i].Decision = &decision
			require.NoError(t, f.store.SaveAssignment(context.Background(), &assignments[i]))
		}
	}

	_, err = f.reviews.RecordDecision(context.Background(), request.ID, "peer1", models.DecisionApprove, "")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestNonAssigneeRejected(t *testing.T) {
	f := newFixture()
	workflow := f.twoStepWorkflow(t, nil)
	request := f.startReview(t, workflow.ID)

	_, err := f.reviews.RecordDecision(context.Background(), request.ID, "stranger", models.DecisionApprove, "")
	assert.ErrorIs(t, err, ErrNotAssignee)

	// lead1 is assigned to step 1, which is not active yet.
	_, err = f.reviews.RecordDecision(context.Background(), request.ID, "lead1", models.DecisionApprove, "")
	assert.ErrorIs(t, err, ErrNotAssignee)
}

func TestUnknownDecisionRejected(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, nil)
	request := f.startReview(t, workflow.ID)

	_, err := f.reviews.RecordDecision(context.Background(), request.ID, "reviewer1", "MAYBE", "")
	var validationError *ValidationError
	assert.ErrorAs(t, err, &validationError)
}

func TestRequestChangesAndReopenRoundTrip(t *testing.T) {
	f := newFixture()
	workflow := f.twoStepWorkflow(t, floatPtr(4))
	request := f.startReview(t, workflow.ID)

	changeRequest, err := f.reviews.RequestChanges(context.Background(), request.ID, "v1", "v2", "typos", "peer1")
	require.NoError(t, err)
	assert.Equal(t, "v1", changeRequest.VersionFromID)
	assert.Equal(t, "v2", changeRequest.VersionToID)
	assert.Equal(t, "typos", changeRequest.Summary)

	paused, err := f.reviews.GetRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestChangesRequested, paused.Status)
	assert.Equal(t, 0, paused.CurrentStepIndex)

	// No decisions while paused.
	_, err = f.reviews.RecordDecision(context.Background(), request.ID, "peer1", models.DecisionApprove, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Double request-changes is rejected too.
	_, err = f.reviews.RequestChanges(context.Background(), request.ID, "v2", "v3", "more", "peer1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	f.clock.Advance(1 * time.Hour)
	reopened, err := f.reviews.Reopen(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestInProgress, reopened.Status)
	assert.Equal(t, 0, reopened.CurrentStepIndex)

	assignments, err := f.reviews.ListAssignments(context.Background(), request.ID, 0)
	require.NoError(t, err)
	require.Len(t, assignments, 4) // two original rows plus two fresh ones

	fresh := 0
	wantDue := f.clock.Now().Add(4 * time.Hour)
	for _, a := range assignments {
		if a.Cycle == reopened.Cycle {
			fresh++
			assert.Equal(t, models.AssignmentPending, a.Status)
			require.NotNil(t, a.DueAt)
			assert.True(t, a.DueAt.Equal(wantDue))
		}
	}
	assert.Equal(t, 2, fresh)

	history, err := f.reviews.ListChangeRequests(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestReopenResetsQuorum(t *testing.T) {
	f := newFixture()
	workflow := f.twoStepWorkflow(t, nil)
	request := f.startReview(t, workflow.ID)

	// peer1 decides REQUEST_CHANGES, which both records the decision and
	// pauses the request.
	result, err := f.reviews.RecordDecision(context.Background(), request.ID, "peer1", models.DecisionRequestChanges, "please fix")
	require.NoError(t, err)
	assert.Equal(t, models.RequestChangesRequested, result.Status)
	assert.False(t, result.Advanced)

	history, err := f.reviews.ListChangeRequests(context.Background(), request.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "please fix", history[0].Summary)
	assert.Equal(t, "peer1", history[0].RequestedBy)

	_, err = f.reviews.Reopen(context.Background(), request.ID)
	require.NoError(t, err)

	// peer1's pre-pause verdict does not carry over; a fresh approval is
	// required and advances normally.
	result, err = f.reviews.RecordDecision(context.Background(), request.ID, "peer1", models.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestInProgress, result.Status)
	assert.True(t, result.Advanced)
}

func TestReopenRequiresChangesRequested(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, nil)
	request := f.startReview(t, workflow.ID)

	_, err := f.reviews.Reopen(context.Background(), request.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTerminalRequestAcceptsNothing(t *testing.T) {
	f := newFixture()
	workflow := f.singleStepWorkflow(t, nil)
	request := f.startReview(t, workflow.ID)

	result, err := f.reviews.RecordDecision(context.Background(), request.ID, "reviewer1", models.DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, result.Status)

	_, err = f.reviews.RecordDecision(context.Background(), request.ID, "reviewer1", models.DecisionApprove, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.reviews.RequestChanges(context.Background(), request.ID, "v1", "v2", "late", "reviewer1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.reviews.Reopen(context.Background(), request.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRoleAssigneesResolveToUsers(t *testing.T) {
	f := newFixture()

	for _, u := range []models.User{
		{Username: "lead-a", Email: "a@example.com", PasswordHash: "x", WorkspaceID: "ws-1", Role: models.RoleLead, ActiveStatus: true},
		{Username: "lead-b", Email: "b@example.com", PasswordHash: "x", WorkspaceID: "ws-1", Role: models.RoleLead, ActiveStatus: true},
		{Username: "member-c", Email: "c@example.com", PasswordHash: "x", WorkspaceID: "ws-1", Role: models.RoleMember, ActiveStatus: true},
	} {
		user := u
		require.NoError(t, f.store.SaveUser(context.Background(), &user))
	}

	workflow, err := f.workflows.CreateWorkflow(context.Background(), "ws-1", "role-based", "", []StepInput{
		{Index: 0, Type: models.StepSingleApproval, Name: "leads", Assignees: []models.StepAssignee{
			{AssigneeType: models.AssigneeRole, AssigneeID: string(models.RoleLead)},
		}},
	})
	require.NoError(t, err)

	request := f.startReview(t, workflow.ID)

	assignments, err := f.reviews.ListAssignments(context.Background(), request.ID, 0)
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	assignees := []string{assignments[0].AssigneeID, assignments[1].AssigneeID}
	assert.ElementsMatch(t, []string{"lead-a", "lead-b"}, assignees)
}

func TestConcurrentApprovalsAdvanceOnce(t *testing.T) {
	f := newFixture()
	workflow := f.twoStepWorkflow(t, nil)
	request := f.startReview(t, workflow.ID)

	var wg sync.WaitGroup
	results := make([]*DecisionResult, 2)
	errs := make([]error, 2)
	for i, assignee := range []string{"peer1", "peer2"} {
		wg.Add(1)
		go func(i int, assignee string) {
			defer wg.Done()
			results[i], errs[i] = f.reviews.RecordDecision(context.Background(), request.ID, assignee, models.DecisionApprove, "")
		}(i, assignee)
	}
	wg.Wait()

	advanced := 0
	for i := range results {
		if errs[i] == nil && results[i].Advanced {
			advanced++
		}
	}
	assert.Equal(t, 1, advanced, "exactly one approval may advance the step")

	current, err := f.reviews.GetRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.CurrentStepIndex)

	leadAssignments, err := f.reviews.ListAssignments(context.Background(), request.ID, 1)
	require.NoError(t, err)
	assert.Len(t, leadAssignments, 1, "step 1 must be seeded exactly once")
}
