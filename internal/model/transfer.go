package model

import (
	"github.com/google/uuid"
)

type ConflictReason string

const (
	ConflictNoAvailability ConflictReason = "no_availability_for_date"
	ConflictNoSlot         ConflictReason = "no_available_slot_for_time"
	ConflictDoubleBooked   ConflictReason = "already_booked_at_time"
)

// TransferConflict explains why one candidate appointment cannot be
// moved to the target therapist as-is. Never persisted.
type TransferConflict struct {
	AppointmentID uuid.UUID      `json:"appointment_id"`
	Date          string         `json:"date"`
	StartTime     string         `json:"start_time"`
	Reason        ConflictReason `json:"reason"`
}

type TransferCheckRequest struct {
	TherapistID    string   `json:"therapist_id" binding:"required,uuid"`
	AppointmentIDs []string `json:"appointment_ids" binding:"required,min=1,dive,uuid"`
}

type TransferCheckResult struct {
	TherapistID uuid.UUID          `json:"therapist_id"`
	Conflicts   []TransferConflict `json:"conflicts"`
	Clear       []uuid.UUID        `json:"clear"`
}

// SlotReplacement reassigns one conflicting appointment to a new slot
// as part of the same transfer.
type SlotReplacement struct {
	AppointmentID string `json:"appointment_id" binding:"required,uuid"`
	Date          string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime     string `json:"start_time" binding:"required,clock"`
}

type ExecuteTransferRequest struct {
	TherapistID    string            `json:"therapist_id" binding:"required,uuid"`
	AppointmentIDs []string          `json:"appointment_ids" binding:"required,min=1,dive,uuid"`
	Replacements   []SlotReplacement `json:"replacements" binding:"dive"`
}

type TransferResult struct {
	TherapistID uuid.UUID   `json:"therapist_id"`
	Moved       []uuid.UUID `json:"moved"`
	ReportsKept int         `json:"reports_regranted"`
}
