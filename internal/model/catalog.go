package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a bookable offering. Price is per person.
type Service struct {
	Base
	Name        string          `db:"name" json:"name"`
	Category    string          `db:"category" json:"category"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Duration    int             `db:"duration" json:"duration"` // in minutes
	IsActive    bool            `db:"is_active" json:"is_active"`
}

type Location struct {
	Base
	Name     string `db:"name" json:"name"`
	Address  string `db:"address" json:"address"`
	City     string `db:"city" json:"city"`
	IsActive bool   `db:"is_active" json:"is_active"`
}

type Practitioner struct {
	Base
	UserID         *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Name           string     `db:"name" json:"name"`
	Email          string     `db:"email" json:"email"`
	Title          string     `db:"title" json:"title"`
	Specialization string     `db:"specialization" json:"specialization"`
	IsActive       bool       `db:"is_active" json:"is_active"`
}

// PractitionerProfile holds the extended profile filled in after onboarding.
type PractitionerProfile struct {
	Base
	PractitionerID uuid.UUID `db:"practitioner_id" json:"practitioner_id"`
	Bio            string    `db:"bio" json:"bio"`
	Languages      string    `db:"languages" json:"languages"`
}

type CreateServiceRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Category    string          `json:"category" binding:"required,max=100"`
	Description string          `json:"description" binding:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Duration    int             `json:"duration" binding:"required,min=5,max=600"`
}

type UpdateServiceRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=200"`
	Category    *string          `json:"category" binding:"omitempty,max=100"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Duration    *int             `json:"duration" binding:"omitempty,min=5,max=600"`
	IsActive    *bool            `json:"is_active"`
}
