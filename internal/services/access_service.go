package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Jakedismo/knowledge-network-sub004/internal/db/models"
	"github.com/Jakedismo/knowledge-network-sub004/internal/store"
	"github.com/Jakedismo/knowledge-network-sub004/internal/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actions checked by Authorize before each mutating operation. The transport
// layer calls the guard; the engine itself stays authorization-free.
const (
	ActionCreateWorkflow = "workflow.create"
	ActionStartReview    = "review.start"
	ActionDecide         = "review.decide"
	ActionRequestChanges = "review.request_changes"
	ActionReopen         = "review.reopen"
	ActionRunEscalations = "escalation.run"
)

var ErrUnauthorized = errors.New("invalid credentials")

type session struct {
	userID    uint
	expiresAt time.Time
}

// AccessService is the default access guard: bcrypt logins, in-memory session
// tokens, and workspace/role authorization checks.
type AccessService struct {
	users          store.UserRepository
	clock          Clock
	sessionTimeout time.Duration
	logger         *zap.Logger

	mu       sync.RWMutex
	sessions map[string]session
}

func NewAccessService(users store.UserRepository, clock Clock, sessionTimeout time.Duration, logger *zap.Logger) *AccessService {
	return &AccessService{
		users:          users,
		clock:          clock,
		sessionTimeout: sessionTimeout,
		logger:         logger.With(zap.String("service", "access_service")),
		sessions:       make(map[string]session),
	}
}

func (as *AccessService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := as.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, err
	}
	if !user.ActiveStatus {
		return "", nil, ErrUnauthorized
	}

	if ok, _ := utils.VerifyPassword(user.PasswordHash, password); !ok {
		as.logger.Warn("Failed login attempt", zap.String("username", username))
		return "", nil, ErrUnauthorized
	}

	now := as.clock.Now()
	token := uuid.New().String()

	as.mu.Lock()
	as.sessions[token] = session{userID: user.ID, expiresAt: now.Add(as.sessionTimeout)}
	as.mu.Unlock()

	user.LastLogin = now
	if err := as.users.SaveUser(ctx, user); err != nil {
		as.logger.Warn("Failed to record last login", zap.Error(err))
	}

	as.logger.Info("User logged in", zap.String("username", username), zap.Uint("user_id", user.ID))
	return token, user, nil
}

func (as *AccessService) Logout(token string) {
	as.mu.Lock()
	delete(as.sessions, token)
	as.mu.Unlock()
}

// IsValidSession resolves a session token to a user ID.
func (as *AccessService) IsValidSession(token string) (uint, bool) {
	as.mu.RLock()
	sess, ok := as.sessions[token]
	as.mu.RUnlock()

	if !ok {
		return 0, false
	}
	if as.clock.Now().After(sess.expiresAt) {
		as.mu.Lock()
		delete(as.sessions, token)
		as.mu.Unlock()
		return 0, false
	}
	return sess.userID, true
}

// Authorize reports whether the user may perform action within the workspace.
// Membership is required for every action; workflow creation and escalation
// sweeps additionally require an elevated role.
func (as *AccessService) Authorize(ctx context.Context, userID uint, workspaceID, action string) (bool, error) {
	user, err := as.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !user.ActiveStatus || user.WorkspaceID != workspaceID {
		return false, nil
	}

	switch action {
	case ActionCreateWorkflow:
		return user.Role == models.RoleAdmin, nil
	case ActionRunEscalations:
		return user.Role == models.RoleAdmin || user.Role == models.RoleLead, nil
	default:
		return true, nil
	}
}
