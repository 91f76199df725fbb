package model

import (
	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusOngoing   AppointmentStatus = "ongoing"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment stores the calendar date as "2006-01-02" and the start
// time as "HH:MM", matching the availability calendar keys.
type Appointment struct {
	Base
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	TherapistID  uuid.UUID         `db:"therapist_id" json:"therapist_id"`
	Date         string            `db:"visit_date" json:"date"`
	StartTime    string            `db:"start_time" json:"start_time"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Notes        string            `db:"notes" json:"notes,omitempty"`
	CancelReason *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

type CreateAppointmentRequest struct {
	PatientID   string `json:"patient_id" binding:"required,uuid"`
	TherapistID string `json:"therapist_id" binding:"required,uuid"`
	Date        string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" binding:"required,clock"`
	Notes       string `json:"notes" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	Date         *string            `json:"date" binding:"omitempty,datetime=2006-01-02"`
	StartTime    *string            `json:"start_time" binding:"omitempty,clock"`
	Status       *AppointmentStatus `json:"status" binding:"omitempty,oneof=pending ongoing completed cancelled"`
	Notes        *string            `json:"notes"`
	CancelReason *string            `json:"cancel_reason"`
}

type AppointmentFilters struct {
	TherapistID uuid.UUID
	PatientID   uuid.UUID
	Status      AppointmentStatus
	DateFrom    string
	DateTo      string
}
