package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient      Role = "patient"
	RolePractitioner Role = "practitioner"
	RoleAdmin        Role = "admin"
)

// User is an account that can sign in.
type User struct {
	Base
	Email          string `json:"email" db:"email"`
	PasswordHash   string `json:"-" db:"password_hash"`
	FullName       string `json:"full_name" db:"full_name"`
	Phone          string `json:"phone" db:"phone"`
	EmailConfirmed bool   `json:"email_confirmed" db:"email_confirmed"`
}

type UserRole struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// PatientProfile is what a practitioner may see about a patient.
type PatientProfile struct {
	ID       uuid.UUID        `json:"id"`
	FullName string           `json:"full_name"`
	Email    string           `json:"email"`
	Phone    string           `json:"phone"`
	Bookings []*BookingDetail `json:"bookings"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required,max=200"`
	Phone    string `json:"phone" binding:"omitempty,max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
	Roles       []Role    `json:"roles"`
}
