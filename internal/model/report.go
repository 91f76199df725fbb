package model

import (
	"time"

	"github.com/google/uuid"
)

type ReportType string

const (
	ReportTypePhysio               ReportType = "physio_assessment"
	ReportTypeStrengthConditioning ReportType = "strength_conditioning"
)

type ReportStatus string

const (
	ReportStatusDraft ReportStatus = "draft"
	ReportStatusFinal ReportStatus = "final"
)

// Report is an assessment form; Content holds the form fields as JSON.
type Report struct {
	Base
	PatientID   uuid.UUID    `db:"patient_id" json:"patient_id"`
	TherapistID uuid.UUID    `db:"therapist_id" json:"therapist_id"`
	Type        ReportType   `db:"type" json:"type"`
	Title       string       `db:"title" json:"title"`
	Content     JSONMap      `db:"content" json:"content"`
	Status      ReportStatus `db:"status" json:"status"`
}

// ReportAccess grants a therapist read/write access to a report.
// Transfers move these grants alongside the appointments.
type ReportAccess struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ReportID    uuid.UUID `db:"report_id" json:"report_id"`
	TherapistID uuid.UUID `db:"therapist_id" json:"therapist_id"`
	GrantedAt   time.Time `db:"granted_at" json:"granted_at"`
}

type CreateReportRequest struct {
	PatientID string     `json:"patient_id" binding:"required,uuid"`
	Type      ReportType `json:"type" binding:"required,oneof=physio_assessment strength_conditioning"`
	Title     string     `json:"title" binding:"required,max=200"`
	Content   JSONMap    `json:"content"`
}

type UpdateReportRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=200"`
	Content JSONMap `json:"content"`
}

type ReportFilters struct {
	PatientID   uuid.UUID
	TherapistID uuid.UUID
	Type        ReportType
	Status      ReportStatus
}
