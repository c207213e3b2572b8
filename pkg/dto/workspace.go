package dto

import "github.com/google/uuid"

type CreateWorkspaceRequest struct {
	Name string `json:"name"`
}

type UpdatePolicyRequest struct {
	MaxReschedules        *int `json:"max_reschedules,omitempty"`
	RescheduleCutoffHours *int `json:"reschedule_cutoff_hours,omitempty"`
}

type AddMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type WorkspaceResponse struct {
	ID                    uuid.UUID `json:"id"`
	Name                  string    `json:"name"`
	OwnerID               uuid.UUID `json:"owner_id"`
	Role                  string    `json:"role,omitempty"`
	MaxReschedules        int       `json:"max_reschedules"`
	RescheduleCutoffHours int       `json:"reschedule_cutoff_hours"`
}
