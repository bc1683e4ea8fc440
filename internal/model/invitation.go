package model

import (
	"time"

	"github.com/google/uuid"
)

type Invitation struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PractitionerID uuid.UUID  `db:"practitioner_id" json:"practitioner_id"`
	Token          string     `db:"token" json:"token"`
	ExpiresAt      time.Time  `db:"expires_at" json:"expires_at"`
	AcceptedAt     *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

func (i *Invitation) Usable(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}

type InviteRequest struct {
	Name              string `json:"name" binding:"required,max=200"`
	Email             string `json:"email" binding:"required,email"`
	Title             string `json:"title" binding:"omitempty,max=100"`
	Specialization    string `json:"specialization" binding:"omitempty,max=200"`
	TemporaryPassword string `json:"temporaryPassword" binding:"required,min=8"`
}

type InvitationRef struct {
	ID    uuid.UUID `json:"id"`
	Token string    `json:"token"`
}

type InviteResponse struct {
	Success      bool           `json:"success"`
	Practitioner *Practitioner  `json:"practitioner"`
	Invitation   *InvitationRef `json:"invitation"`
	Message      string         `json:"message"`
}

type OnboardingRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
	Bio         string `json:"bio" binding:"omitempty,max=2000"`
	Languages   string `json:"languages" binding:"omitempty,max=200"`
}
