package dto

import (
	"time"

	"github.com/google/uuid"
)

type InviteResponse struct {
	CollaborationID uuid.UUID  `json:"collaboration_id"`
	Title           string     `json:"title"`
	WorkspaceName   string     `json:"workspace_name"`
	HostName        string     `json:"host_name"`
	GuestEmail      string     `json:"guest_email"`
	Status          string     `json:"status"`
	IntakeOpen      bool       `json:"intake_open"`
	ScheduledDate   *time.Time `json:"scheduled_date,omitempty"`
}

type IntakeRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Bio        string   `json:"bio"`
	Topics     []string `json:"topics,omitempty"`
	WebsiteURL *string  `json:"website_url,omitempty"`
}

type GuestProfileResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Bio        *string   `json:"bio,omitempty"`
	Topics     []string  `json:"topics"`
	WebsiteURL *string   `json:"website_url,omitempty"`
}

type IntakeResponse struct {
	Collaboration CollaborationResponse `json:"collaboration"`
	Profile       GuestProfileResponse  `json:"profile"`
	Transitioned  bool                  `json:"transitioned"`
}
