package model

import (
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusProcessed  OutboxStatus = "processed"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// Event types published through the outbox.
const (
	EventAppointmentCreated     = "appointment.created"
	EventAppointmentRescheduled = "appointment.rescheduled"
	EventAppointmentCancelled   = "appointment.cancelled"
	EventAppointmentTransferred = "appointment.transferred"
	EventReportFinalized        = "report.finalized"
)

type OutboxEvent struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	EventType   string       `db:"event_type" json:"event_type"`
	Payload     []byte       `db:"payload" json:"payload"`
	Status      OutboxStatus `db:"status" json:"status"`
	RetryCount  int          `db:"retry_count" json:"retry_count"`
	LastError   *string      `db:"last_error" json:"last_error,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
}
