package services

import (
	"context"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/Jakedismo/knowledge-network-sub004/internal/store"
)

// MembershipResolver expands a ROLE step assignee into the concrete users
// holding that role in the workspace. USER assignees pass through unchanged.
// The engine only ever sees resolved user identities.
type MembershipResolver interface {
	Resolve(ctx context.Context, workspaceID string, assignee models.StepAssignee) ([]string, error)
}

// StoreResolver resolves roles against the user repository.
type StoreResolver struct {
	users store.UserRepository
}

func NewStoreResolver(users store.UserRepository) *StoreResolver {
	return &StoreResolver{users: users}
}

func (r *StoreResolver) Resolve(ctx context.Context, workspaceID string, assignee models.StepAssignee) ([]string, error) {
	if assignee.AssigneeType == models.AssigneeUser {
		return []string{assignee.AssigneeID}, nil
	}

	users, err := r.users.ListUsersByRole(ctx, workspaceID, models.UserRole(assignee.AssigneeID))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.Username)
	}
	return ids, nil
}
