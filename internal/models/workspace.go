package models

import (
	"time"

	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
)

type Workspace struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"name"`
	OwnerID               uuid.UUID `json:"owner_id"`
	MaxReschedules        int       `json:"max_reschedules"`
	RescheduleCutoffHours int       `json:"reschedule_cutoff_hours"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (w *Workspace) ReschedulePolicy() workflow.ReschedulePolicy {
	return workflow.ReschedulePolicy{
		MaxReschedules:        w.MaxReschedules,
		RescheduleCutoffHours: w.RescheduleCutoffHours,
	}
}

type WorkspaceMember struct {
	ID          uuid.UUID     `json:"id"`
	WorkspaceID uuid.UUID     `json:"workspace_id"`
	UserID      uuid.UUID     `json:"user_id"`
	Role        workflow.Role `json:"role"`
	CreatedAt   time.Time     `json:"created_at"`
	User        *User         `json:"user,omitempty"`
}
