package store

import (
	"context"
	"errors"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
)

// ErrNotFound is returned by every repository when the requested row does not
// exist. Implementations must not leak driver-specific errors for this case.
var ErrNotFound = errors.New("record not found")

// WorkflowRepository persists reusable workflow templates. Workflows are
// read-only after creation.
type WorkflowRepository interface {
	CreateWorkflow(ctx context.Context, workflow *models.Workflow) error
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	ListWorkflows(ctx context.Context, workspaceID string) ([]models.Workflow, error)
}

// ReviewRepository persists review requests and their assignment and
// change-request rows. Rows are never deleted.
type ReviewRepository interface {
	CreateRequest(ctx context.Context, request *models.ReviewRequest) error
	GetRequest(ctx context.Context, id string) (*models.ReviewRequest, error)
	SaveRequest(ctx context.Context, request *models.ReviewRequest) error
	ListRequests(ctx context.Context, workspaceID string) ([]models.ReviewRequest, error)

	CreateAssignments(ctx context.Context, assignments []models.Assignment) error
	SaveAssignment(ctx context.Context, assignment *models.Assignment) error
	// ListAssignments returns all assignment rows for one step of one request,
	// across every reopen cycle, oldest first.
	ListAssignments(ctx context.Context, requestID string, stepIndex int) ([]models.Assignment, error)
	// ListOverdueAssignments returns PENDING assignments with DueAt <= now
	// whose request is IN_PROGRESS and whose cycle is the request's current one.
	ListOverdueAssignments(ctx context.Context, now time.Time) ([]models.Assignment, error)

	CreateChangeRequest(ctx context.Context, changeRequest *models.ChangeRequest) error
	ListChangeRequests(ctx context.Context, requestID string) ([]models.ChangeRequest, error)
}

// UserRepository backs the access guard and the role membership resolver.
type UserRepository interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context, workspaceID string) ([]models.User, error)
	ListUsersByRole(ctx context.Context, workspaceID string, role models.UserRole) ([]models.User, error)
}
