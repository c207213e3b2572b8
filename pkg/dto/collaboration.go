package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateCollaborationRequest struct {
	GuestEmail string     `json:"guest_email"`
	Title      string     `json:"title"`
	EditorID   *uuid.UUID `json:"editor_id,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// UpdateStatusRequest moves a collaboration. ExpectedStatus is the status the
// client last saw; when empty the server's current status is used.
type UpdateStatusRequest struct {
	Status         string  `json:"status"`
	ExpectedStatus string  `json:"expected_status,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

type ScheduleRequest struct {
	ScheduledDate time.Time  `json:"scheduled_date"`
	PrepDate      *time.Time `json:"prep_date,omitempty"`
}

type ResponsibilityResponse struct {
	Party  string `json:"party"`
	Label  string `json:"label"`
	Action string `json:"action"`
}

type RoleActionResponse struct {
	HasAction   bool   `json:"has_action"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	WaitingOn   string `json:"waiting_on,omitempty"`
}

type ExceptionResponse struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type CollaborationResponse struct {
	ID                   uuid.UUID              `json:"id"`
	WorkspaceID          uuid.UUID              `json:"workspace_id"`
	WorkspaceName        string                 `json:"workspace_name,omitempty"`
	HostID               uuid.UUID              `json:"host_id"`
	EditorID             *uuid.UUID             `json:"editor_id,omitempty"`
	GuestProfileID       *uuid.UUID             `json:"guest_profile_id,omitempty"`
	GuestEmail           string                 `json:"guest_email"`
	GuestName            string                 `json:"guest_name,omitempty"`
	Title                string                 `json:"title"`
	Status               string                 `json:"status"`
	StatusLabel          string                 `json:"status_label"`
	ScheduledDate        *time.Time             `json:"scheduled_date,omitempty"`
	PrepDate             *time.Time             `json:"prep_date,omitempty"`
	RecordedDate         *time.Time             `json:"recorded_date,omitempty"`
	DeliveryDate         *time.Time             `json:"delivery_date,omitempty"`
	RescheduleCount      int                    `json:"reschedule_count"`
	RemainingReschedules *int                   `json:"remaining_reschedules,omitempty"`
	Notes                *string                `json:"notes,omitempty"`
	Role                 string                 `json:"role,omitempty"`
	Responsibility       ResponsibilityResponse `json:"responsibility"`
	Action               *RoleActionResponse    `json:"action,omitempty"`
	Exception            *ExceptionResponse     `json:"exception,omitempty"`
	InviteURL            string                 `json:"invite_url,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

type TransitionsResponse struct {
	Current string   `json:"current"`
	Allowed []string `json:"allowed"`
}

type StatusHistoryResponse struct {
	ID        uuid.UUID  `json:"id"`
	OldStatus *string    `json:"old_status,omitempty"`
	NewStatus string     `json:"new_status"`
	ChangedBy *uuid.UUID `json:"changed_by,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type StatusResponse struct {
	Value       string   `json:"value"`
	Label       string   `json:"label"`
	Party       string   `json:"party"`
	WaitingOn   string   `json:"waiting_on"`
	Action      string   `json:"action"`
	Terminal    bool     `json:"terminal"`
	Transitions []string `json:"transitions"`
}

type ScheduleResponse struct {
	Collaboration CollaborationResponse `json:"collaboration"`
	Rescheduled   bool                  `json:"rescheduled"`
}

type DashboardResponse struct {
	Role           string                  `json:"role"`
	NeedsAttention []CollaborationResponse `json:"needs_attention"`
	MyActions      []CollaborationResponse `json:"my_actions"`
	Waiting        []CollaborationResponse `json:"waiting"`
	Done           []CollaborationResponse `json:"done"`
}
