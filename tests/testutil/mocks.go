package testutil

import (
	"context"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/services"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockWorkspaceService mocks the WorkspaceService
type MockWorkspaceService struct {
	mock.Mock
}

func (m *MockWorkspaceService) Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, name, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) GetUserWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.Workspace, []workflow.Role, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]models.Workspace), args.Get(1).([]workflow.Role), args.Error(2)
}

func (m *MockWorkspaceService) UpdatePolicy(ctx context.Context, workspaceID uuid.UUID, policy workflow.ReschedulePolicy) (*models.Workspace, error) {
	args := m.Called(ctx, workspaceID, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) GetByID(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) MemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (workflow.Role, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Get(0).(workflow.Role), args.Error(1)
}

func (m *MockWorkspaceService) IsHost(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, workspaceID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWorkspaceService) AddMember(ctx context.Context, workspaceID, userID uuid.UUID, role workflow.Role) error {
	args := m.Called(ctx, workspaceID, userID, role)
	return args.Error(0)
}

// MockCollaborationService mocks the CollaborationService
type MockCollaborationService struct {
	mock.Mock
}

func (m *MockCollaborationService) Create(ctx context.Context, p services.CreateCollaborationParams) (*models.Collaboration, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collaboration), args.Error(1)
}

func (m *MockCollaborationService) GetDetail(ctx context.Context, id uuid.UUID) (*models.CollaborationDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CollaborationDetail), args.Error(1)
}

func (m *MockCollaborationService) GetByInviteToken(ctx context.Context, token string) (*models.CollaborationDetail, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CollaborationDetail), args.Error(1)
}

func (m *MockCollaborationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]services.RoleCollaboration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.RoleCollaboration), args.Error(1)
}

func (m *MockCollaborationService) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next workflow.Status, actorID uuid.UUID, notes *string) (*models.Collaboration, error) {
	args := m.Called(ctx, id, expected, next, actorID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Collaboration), args.Error(1)
}

func (m *MockCollaborationService) Schedule(ctx context.Context, d *models.CollaborationDetail, actorID uuid.UUID, date time.Time, prepDate *time.Time, now time.Time) (*services.ScheduleResult, error) {
	args := m.Called(ctx, d, actorID, date, prepDate, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ScheduleResult), args.Error(1)
}

func (m *MockCollaborationService) CompleteIntake(ctx context.Context, token string, actorID uuid.UUID, in services.IntakeInput) (*services.IntakeResult, error) {
	args := m.Called(ctx, token, actorID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.IntakeResult), args.Error(1)
}

func (m *MockCollaborationService) History(ctx context.Context, id uuid.UUID) ([]models.StatusHistoryEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.StatusHistoryEntry), args.Error(1)
}

// MockNotifier mocks the NotificationService. Handlers call it from a
// goroutine, so tests wait on Dispatched before asserting.
type MockNotifier struct {
	mock.Mock
	Dispatched chan workflow.Status
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{Dispatched: make(chan workflow.Status, 8)}
}

func (m *MockNotifier) StatusChanged(ctx context.Context, d *models.CollaborationDetail, oldStatus, newStatus workflow.Status) []services.DispatchResult {
	m.Called(ctx, d, oldStatus, newStatus)
	if m.Dispatched != nil {
		m.Dispatched <- newStatus
	}
	return nil
}

// WaitForCall blocks until a notification for a status is dispatched or the timeout passes.
func (m *MockNotifier) WaitForCall(timeout time.Duration) (workflow.Status, bool) {
	select {
	case s := <-m.Dispatched:
		return s, true
	case <-time.After(timeout):
		return "", false
	}
}

// MockSweepService mocks the SweepService
type MockSweepService struct {
	mock.Mock
}

func (m *MockSweepService) Run(ctx context.Context, now time.Time) (*services.SweepSummary, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SweepSummary), args.Error(1)
}
