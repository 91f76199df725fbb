package model

import (
	"github.com/google/uuid"
)

type TherapistRole string

const (
	TherapistRoleAdmin     TherapistRole = "admin"
	TherapistRoleTherapist TherapistRole = "therapist"
)

type Therapist struct {
	Base
	Name         string        `db:"name" json:"name"`
	Email        string        `db:"email" json:"email"`
	Password     string        `db:"-" json:"password,omitempty"`
	PasswordHash string        `db:"password_hash" json:"-"`
	Role         TherapistRole `db:"role" json:"role"`
	Specialty    string        `db:"specialty" json:"specialty,omitempty"`
	Status       string        `db:"status" json:"status"`
}

type CreateTherapistRequest struct {
	Name      string        `json:"name" binding:"required"`
	Email     string        `json:"email" binding:"required,email"`
	Password  string        `json:"password" binding:"required,min=8"`
	Role      TherapistRole `json:"role" binding:"required,oneof=admin therapist"`
	Specialty string        `json:"specialty"`
}

type UpdateTherapistRequest struct {
	Name      *string `json:"name"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Specialty *string `json:"specialty"`
	Status    *string `json:"status"`
}

type TherapistFilters struct {
	Role   TherapistRole
	Status string
}

// TransferTarget is the projection used when evaluating a transfer.
type TransferTarget struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}
