package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/flowaborate-api/internal/database"
	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrInvalidPolicy     = errors.New("reschedule policy values must not be negative")
)

type WorkspaceService struct {
	db *database.DB
}

func NewWorkspaceService(db *database.DB) *WorkspaceService {
	return &WorkspaceService{db: db}
}

const workspaceColumns = `id, name, owner_id, max_reschedules, reschedule_cutoff_hours, created_at, updated_at`

func scanWorkspace(row pgx.Row, extra ...any) (*models.Workspace, error) {
	var w models.Workspace
	dest := []any{&w.ID, &w.Name, &w.OwnerID, &w.MaxReschedules, &w.RescheduleCutoffHours, &w.CreatedAt, &w.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &w, nil
}

// Create makes a workspace with the default reschedule policy and its owner as host.
func (s *WorkspaceService) Create(ctx context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	workspace, err := scanWorkspace(tx.QueryRow(ctx, `
		INSERT INTO workspaces (name, owner_id, max_reschedules, reschedule_cutoff_hours)
		VALUES ($1, $2, $3, $4)
		RETURNING `+workspaceColumns,
		name, ownerID, workflow.DefaultMaxReschedules, workflow.DefaultRescheduleCutoffHours))
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
	`, workspace.ID, ownerID, string(workflow.RoleHost))
	if err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return workspace, nil
}

func (s *WorkspaceService) GetByID(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error) {
	w, err := scanWorkspace(s.db.Pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, workspaceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkspaceNotFound
	}
	return w, err
}

func (s *WorkspaceService) GetUserWorkspaces(ctx context.Context, userID uuid.UUID) ([]models.Workspace, []workflow.Role, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT w.id, w.name, w.owner_id, w.max_reschedules, w.reschedule_cutoff_hours, w.created_at, w.updated_at, wm.role::text
		FROM workspaces w
		JOIN workspace_members wm ON w.id = wm.workspace_id
		WHERE wm.user_id = $1
		ORDER BY w.created_at DESC
	`, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var workspaces []models.Workspace
	var roles []workflow.Role
	for rows.Next() {
		var role string
		w, err := scanWorkspace(rows, &role)
		if err != nil {
			return nil, nil, err
		}
		workspaces = append(workspaces, *w)
		roles = append(roles, workflow.Role(role))
	}
	return workspaces, roles, rows.Err()
}

// UpdatePolicy changes the guest reschedule limits.
func (s *WorkspaceService) UpdatePolicy(ctx context.Context, workspaceID uuid.UUID, policy workflow.ReschedulePolicy) (*models.Workspace, error) {
	if policy.MaxReschedules < 0 || policy.RescheduleCutoffHours < 0 {
		return nil, ErrInvalidPolicy
	}
	w, err := scanWorkspace(s.db.Pool.QueryRow(ctx, `
		UPDATE workspaces SET max_reschedules = $1, reschedule_cutoff_hours = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+workspaceColumns,
		policy.MaxReschedules, policy.RescheduleCutoffHours, workspaceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkspaceNotFound
	}
	return w, err
}

func (s *WorkspaceService) MemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (workflow.Role, error) {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role::text FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrMemberNotFound
	}
	if err != nil {
		return "", err
	}
	return workflow.Role(role), nil
}

func (s *WorkspaceService) IsHost(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	role, err := s.MemberRole(ctx, workspaceID, userID)
	if errors.Is(err, ErrMemberNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == workflow.RoleHost, nil
}

func (s *WorkspaceService) AddMember(ctx context.Context, workspaceID, userID uuid.UUID, role workflow.Role) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, workspaceID, userID, string(role))
	return err
}
