package models

import (
	"time"

	"github.com/google/uuid"
)

type GuestProfile struct {
	ID         uuid.UUID  `json:"id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Bio        *string    `json:"bio,omitempty"`
	Topics     []string   `json:"topics"`
	WebsiteURL *string    `json:"website_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (p *GuestProfile) BioText() string {
	if p.Bio == nil {
		return ""
	}
	return *p.Bio
}
