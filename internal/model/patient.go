package model

import (
	"time"

	"github.com/google/uuid"
)

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
)

type Patient struct {
	Base
	TherapistID uuid.UUID     `db:"therapist_id" json:"therapist_id"`
	Name        string        `db:"name" json:"name"`
	Email       string        `db:"email" json:"email"`
	Phone       string        `db:"phone" json:"phone,omitempty"`
	DateOfBirth *time.Time    `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      string        `db:"gender" json:"gender,omitempty"`
	Address     string        `db:"address" json:"address,omitempty"`
	Status      PatientStatus `db:"status" json:"status"`
	Notes       string        `db:"notes" json:"notes,omitempty"`
}

type CreatePatientRequest struct {
	TherapistID string     `json:"therapist_id" binding:"required,uuid"`
	Name        string     `json:"name" binding:"required"`
	Email       string     `json:"email" binding:"required,email"`
	Phone       string     `json:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      string     `json:"gender" binding:"omitempty,oneof=male female other"`
	Address     string     `json:"address"`
	Notes       string     `json:"notes" binding:"max=2000"`
}

type UpdatePatientRequest struct {
	TherapistID *string        `json:"therapist_id" binding:"omitempty,uuid"`
	Name        *string        `json:"name"`
	Email       *string        `json:"email" binding:"omitempty,email"`
	Phone       *string        `json:"phone"`
	DateOfBirth *time.Time     `json:"date_of_birth"`
	Gender      *string        `json:"gender"`
	Address     *string        `json:"address"`
	Status      *PatientStatus `json:"status"`
	Notes       *string        `json:"notes"`
}

type PatientFilters struct {
	TherapistID uuid.UUID
	Status      PatientStatus
	SearchTerm  string
}
