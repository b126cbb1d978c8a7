package store

import (
	"context"
	"sync"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
)

// MemoryStore is an in-memory implementation of the repository interfaces,
// used by tests and by single-process deployments without a database. All
// methods copy rows in and out so callers never share backing memory.
type MemoryStore struct {
	mu             sync.RWMutex
	workflows      map[string]models.Workflow
	workflowOrder  []string
	requests       map[string]models.ReviewRequest
	requestOrder   []string
	assignments    []models.Assignment
	changeRequests []models.ChangeRequest
	users          map[uint]models.User
	nextUserID     uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows: make(map[string]models.Workflow),
		requests:  make(map[string]models.ReviewRequest),
		users:     make(map[uint]models.User),
	}
}

func copyWorkflow(w models.Workflow) models.Workflow {
	out := w
	out.Steps = make([]models.WorkflowStep, len(w.Steps))
	for i, step := range w.Steps {
		out.Steps[i] = step
		out.Steps[i].Assignees = append([]models.StepAssignee(nil), step.Assignees...)
	}
	return out
}

func (s *MemoryStore) CreateWorkflow(ctx context.Context, workflow *models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflows[workflow.ID] = copyWorkflow(*workflow)
	s.workflowOrder = append(s.workflowOrder, workflow.ID)
	return nil
}

func (s *MemoryStore) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workflow, ok := s.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyWorkflow(workflow)
	return &out, nil
}

func (s *MemoryStore) ListWorkflows(ctx context.Context, workspaceID string) ([]models.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Workflow
	for _, id := range s.workflowOrder {
		if w := s.workflows[id]; w.WorkspaceID == workspaceID {
			out = append(out, copyWorkflow(w))
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateRequest(ctx context.Context, request *models.ReviewRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests[request.ID] = *request
	s.requestOrder = append(s.requestOrder, request.ID)
	return nil
}

func (s *MemoryStore) GetRequest(ctx context.Context, id string) (*models.ReviewRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := request
	return &out, nil
}

func (s *MemoryStore) SaveRequest(ctx context.Context, request *models.ReviewRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[request.ID]; !ok {
		return ErrNotFound
	}
	s.requests[request.ID] = *request
	return nil
}

func (s *MemoryStore) ListRequests(ctx context.Context, workspaceID string) ([]models.ReviewRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ReviewRequest
	for _, id := range s.requestOrder {
		if r := s.requests[id]; r.WorkspaceID == workspaceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateAssignments(ctx context.Context, assignments []models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignments = append(s.assignments, assignments...)
	return nil
}

func (s *MemoryStore) SaveAssignment(ctx context.Context, assignment *models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.assignments {
		if s.assignments[i].ID == assignment.ID {
			s.assignments[i] = *assignment
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListAssignments(ctx context.Context, requestID string, stepIndex int) ([]models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Assignment
	for _, a := range s.assignments {
		if a.RequestID == requestID && a.StepIndex == stepIndex {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListOverdueAssignments(ctx context.Context, now time.Time) ([]models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Assignment
	for _, a := range s.assignments {
		if a.Status != models.AssignmentPending || a.DueAt == nil || a.DueAt.After(now) {
			continue
		}
		request, ok := s.requests[a.RequestID]
		if !ok || request.Status != models.RequestInProgress {
			continue
		}
		if a.StepIndex != request.CurrentStepIndex || a.Cycle != request.Cycle {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *MemoryStore) CreateChangeRequest(ctx context.Context, changeRequest *models.ChangeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.changeRequests = append(s.changeRequests, *changeRequest)
	return nil
}

func (s *MemoryStore) ListChangeRequests(ctx context.Context, requestID string) ([]models.ChangeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ChangeRequest
	for _, cr := range s.changeRequests {
		if cr.RequestID == requestID {
			out = append(out, cr)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := user
	return &out, nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			out := user
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == 0 {
		s.nextUserID++
		user.ID = s.nextUserID
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) ListUsers(ctx context.Context, workspaceID string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.User
	for id := uint(1); id <= s.nextUserID; id++ {
		if user, ok := s.users[id]; ok && user.WorkspaceID == workspaceID && user.ActiveStatus {
			out = append(out, user)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListUsersByRole(ctx context.Context, workspaceID string, role models.UserRole) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.User
	for id := uint(1); id <= s.nextUserID; id++ {
		if user, ok := s.users[id]; ok && user.WorkspaceID == workspaceID && user.Role == role && user.ActiveStatus {
			out = append(out, user)
		}
	}
	return out, nil
}
