package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/database"
	"github.com/dimitrije/flowaborate-api/internal/models"
	"github.com/dimitrije/flowaborate-api/internal/services"
	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
	}
	for _, opt := range opts {
		opt(user)
	}

	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO users (email, name, avatar_url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, user.AvatarURL).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

type UserOption func(*models.User)

func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// CreateWorkspace creates a workspace hosted by owner with the default reschedule policy
func (f *Fixtures) CreateWorkspace(t *testing.T, owner *models.User) *models.Workspace {
	t.Helper()
	f.counter++

	ws, err := services.NewWorkspaceService(f.db).Create(context.Background(), fmt.Sprintf("Test Show %d", f.counter), owner.ID)
	if err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}
	return ws
}

// AddMember adds user to the workspace with role
func (f *Fixtures) AddMember(t *testing.T, ws *models.Workspace, user *models.User, role workflow.Role) {
	t.Helper()
	if err := services.NewWorkspaceService(f.db).AddMember(context.Background(), ws.ID, user.ID, role); err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
}

// CreateCollaboration invites guestEmail to a new collaboration hosted by host
func (f *Fixtures) CreateCollaboration(t *testing.T, ws *models.Workspace, host *models.User, guestEmail string, editor *models.User) *models.Collaboration {
	t.Helper()
	f.counter++

	p := services.CreateCollaborationParams{
		WorkspaceID: ws.ID,
		HostID:      host.ID,
		GuestEmail:  guestEmail,
		Title:       fmt.Sprintf("Episode %d", f.counter),
	}
	if editor != nil {
		p.EditorID = &editor.ID
	}

	c, err := services.NewCollaborationService(f.db).Create(context.Background(), p)
	if err != nil {
		t.Fatalf("failed to create collaboration: %v", err)
	}
	return c
}

// ForceStatus rewrites a collaboration's status and timestamps directly,
// bypassing the transition table, to stage sweep scenarios.
func (f *Fixtures) ForceStatus(t *testing.T, id uuid.UUID, status workflow.Status, scheduled, recorded *time.Time, updatedAt time.Time) {
	t.Helper()
	_, err := f.db.Pool.Exec(context.Background(), `
		UPDATE collaborations
		SET status = $2::collaboration_status, scheduled_date = $3, recorded_date = $4, updated_at = $5
		WHERE id = $1
	`, id, string(status), scheduled, recorded, updatedAt)
	if err != nil {
		t.Fatalf("failed to force status: %v", err)
	}
}
