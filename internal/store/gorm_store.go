package store

import (
	"context"
	"errors"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"gorm.io/gorm"
)

// GormStore implements the repository interfaces over a GORM connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreateWorkflow(ctx context.Context, workflow *models.Workflow) error {
	return s.db.WithContext(ctx).Create(workflow).Error
}

func (s *GormStore) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow
	err := s.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Steps.Assignees").
		First(&workflow, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &workflow, nil
}

func (s *GormStore) ListWorkflows(ctx context.Context, workspaceID string) ([]models.Workflow, error) {
	var workflows []models.Workflow
	err := s.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Steps.Assignees").
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&workflows).Error
	if err != nil {
		return nil, err
	}
	return workflows, nil
}

func (s *GormStore) CreateRequest(ctx context.Context, request *models.ReviewRequest) error {
	return s.db.WithContext(ctx).Create(request).Error
}

func (s *GormStore) GetRequest(ctx context.Context, id string) (*models.ReviewRequest, error) {
	var request models.ReviewRequest
	if err := s.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &request, nil
}

func (s *GormStore) SaveRequest(ctx context.Context, request *models.ReviewRequest) error {
	return s.db.WithContext(ctx).Save(request).Error
}

func (s *GormStore) ListRequests(ctx context.Context, workspaceID string) ([]models.ReviewRequest, error) {
	var requests []models.ReviewRequest
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *GormStore) CreateAssignments(ctx context.Context, assignments []models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&assignments).Error
}

func (s *GormStore) SaveAssignment(ctx context.Context, assignment *models.Assignment) error {
	return s.db.WithContext(ctx).Save(assignment).Error
}

func (s *GormStore) ListAssignments(ctx context.Context, requestID string, stepIndex int) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := s.db.WithContext(ctx).
		Where("request_id = ? AND step_index = ?", requestID, stepIndex).
		Order("created_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *GormStore) ListOverdueAssignments(ctx context.Context, now time.Time) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := s.db.WithContext(ctx).
		Joins("JOIN review_requests ON review_requests.id = assignments.request_id").
		Where("assignments.status = ?", models.AssignmentPending).
		Where("assignments.due_at IS NOT NULL AND assignments.due_at <= ?", now).
		Where("review_requests.status = ?", models.RequestInProgress).
		Where("assignments.step_index = review_requests.current_step_index").
		Where("assignments.cycle = review_requests.cycle").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *GormStore) CreateChangeRequest(ctx context.Context, changeRequest *models.ChangeRequest) error {
	return s.db.WithContext(ctx).Create(changeRequest).Error
}

func (s *GormStore) ListChangeRequests(ctx context.Context, requestID string) ([]models.ChangeRequest, error) {
	var changeRequests []models.ChangeRequest
	err := s.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&changeRequests).Error
	if err != nil {
		return nil, err
	}
	return changeRequests, nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *GormStore) ListUsers(ctx context.Context, workspaceID string) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("workspace_id = ? AND active_status = ?", workspaceID, true).
		Order("username ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *GormStore) ListUsersByRole(ctx context.Context, workspaceID string, role models.UserRole) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("workspace_id = ? AND role = ? AND active_status = ?", workspaceID, role, true).
		Order("username ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
