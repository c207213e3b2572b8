package models

import (
	"log"
	"time"

	"github.com/dimitrije/flowaborate-api/internal/workflow"
	"github.com/google/uuid"
)

type Collaboration struct {
	ID              uuid.UUID       `json:"id"`
	WorkspaceID     uuid.UUID       `json:"workspace_id"`
	HostID          uuid.UUID       `json:"host_id"`
	EditorID        *uuid.UUID      `json:"editor_id,omitempty"`
	GuestProfileID  *uuid.UUID      `json:"guest_profile_id,omitempty"`
	GuestEmail      string          `json:"guest_email"`
	Title           string          `json:"title"`
	Status          workflow.Status `json:"status"`
	ScheduledDate   *time.Time      `json:"scheduled_date,omitempty"`
	PrepDate        *time.Time      `json:"prep_date,omitempty"`
	RecordedDate    *time.Time      `json:"recorded_date,omitempty"`
	DeliveryDate    *time.Time      `json:"delivery_date,omitempty"`
	RescheduleCount int             `json:"reschedule_count"`
	InviteToken     string          `json:"-"`
	Notes           *string         `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Timeline is the view the exception rules work on.
func (c *Collaboration) Timeline() workflow.Timeline {
	return workflow.Timeline{
		Status:        c.Status,
		ScheduledDate: c.ScheduledDate,
		RecordedDate:  c.RecordedDate,
		UpdatedAt:     c.UpdatedAt,
	}
}

// StatusFromDB converts a persisted status. Values outside the registry are
// kept as-is so the resolvers can fail closed, and logged.
func StatusFromDB(raw string) workflow.Status {
	s, err := workflow.ParseStatus(raw)
	if err != nil {
		log.Printf("models: %v", err)
		return workflow.Status(raw)
	}
	return s
}

// CollaborationParticipants carries the contact details the notifier needs.
type CollaborationParticipants struct {
	HostEmail   string
	HostName    string
	GuestEmail  string
	GuestName   string
	EditorEmail string
	EditorName  string
}

// EmailFor returns the address of whoever plays role, or "" when nobody does.
func (p CollaborationParticipants) EmailFor(role workflow.Role) string {
	switch role {
	case workflow.RoleHost:
		return p.HostEmail
	case workflow.RoleGuest:
		return p.GuestEmail
	case workflow.RoleEditor:
		return p.EditorEmail
	}
	return ""
}

func (p CollaborationParticipants) NameFor(role workflow.Role) string {
	switch role {
	case workflow.RoleHost:
		return p.HostName
	case workflow.RoleGuest:
		return p.GuestName
	case workflow.RoleEditor:
		return p.EditorName
	}
	return ""
}

// CollaborationDetail is a collaboration joined with its workspace and people.
type CollaborationDetail struct {
	Collaboration
	WorkspaceName string
	Policy        workflow.ReschedulePolicy
	GuestUserID   *uuid.UUID
	Participants  CollaborationParticipants
}

// RoleOf classifies userID against this collaboration. Host wins when one
// person holds several roles.
func (d *CollaborationDetail) RoleOf(userID uuid.UUID) (workflow.Role, bool) {
	switch {
	case userID == uuid.Nil:
		return "", false
	case d.HostID == userID:
		return workflow.RoleHost, true
	case d.EditorID != nil && *d.EditorID == userID:
		return workflow.RoleEditor, true
	case d.GuestUserID != nil && *d.GuestUserID == userID:
		return workflow.RoleGuest, true
	}
	return "", false
}
