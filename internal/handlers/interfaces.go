package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/services"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// WorkspaceServiceInterface defines the methods used by handlers from WorkspaceService
type WorkspaceServiceInterface interface {
	Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error)
	GetUserWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.Workspace, []workflow.Role, error)
	UpdatePolicy(ctx context.Context, workspaceID uuid.UUID, policy workflow.ReschedulePolicy) (*models.Workspace, error)
	GetByID(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error)
	MemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (workflow.Role, error)
	IsHost(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, workspaceID, userID uuid.UUID, role workflow.Role) error
}

// CollaborationServiceInterface defines the methods used by handlers from CollaborationService
type CollaborationServiceInterface interface {
	Create(ctx context.Context, p services.CreateCollaborationParams) (*models.Collaboration, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*models.CollaborationDetail, error)
	GetByInviteToken(ctx context.Context, token string) (*models.CollaborationDetail, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]services.RoleCollaboration, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next workflow.Status, actorID uuid.UUID, notes *string) (*models.Collaboration, error)
	Schedule(ctx context.Context, d *models.CollaborationDetail, actorID uuid.UUID, date time.Time, prepDate *time.Time, now time.Time) (*services.ScheduleResult, error)
	CompleteIntake(ctx context.Context, token string, actorID uuid.UUID, in services.IntakeInput) (*services.IntakeResult, error)
	History(ctx context.Context, id uuid.UUID) ([]models.StatusHistoryEntry, error)
}

// NotifierInterface defines the methods used by handlers from NotificationService
type NotifierInterface interface {
	StatusChanged(ctx context.Context, d *models.CollaborationDetail, oldStatus, newStatus workflow.Status) []services.DispatchResult
}

// SweepServiceInterface defines the methods used by handlers from SweepService
type SweepServiceInterface interface {
	Run(ctx context.Context, now time.Time) (*services.SweepSummary, error)
}
