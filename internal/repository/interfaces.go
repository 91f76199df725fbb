package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/model"
)

// AppointmentMove is one appointment reassignment inside a transfer,
// with the slot it will occupy after the move.
type AppointmentMove struct {
	AppointmentID   uuid.UUID
	PatientID       uuid.UUID
	FromTherapistID uuid.UUID
	Date            string
	StartTime       string
}

// All repository interfaces in one file
type (
	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	}

	TherapistRepository interface {
		Create(ctx context.Context, therapist *model.Therapist) error
		Get(ctx context.Context, id uuid.UUID) (*model.Therapist, error)
		GetByEmail(ctx context.Context, email string) (*model.Therapist, error)
		Update(ctx context.Context, therapist *model.Therapist) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.TherapistFilters) ([]*model.Therapist, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		ListByTherapistAndDates(ctx context.Context, therapistID uuid.UUID, dates []string) ([]*model.Appointment, error)
	}

	AvailabilityRepository interface {
		Upsert(ctx context.Context, day *model.DayAvailability) error
		Get(ctx context.Context, therapistID uuid.UUID, date string) (*model.DayAvailability, error)
		ListByDates(ctx context.Context, therapistID uuid.UUID, dates []string) ([]*model.DayAvailability, error)
		ListRange(ctx context.Context, therapistID uuid.UUID, from, to string) ([]*model.DayAvailability, error)
	}

	ReportRepository interface {
		Create(ctx context.Context, report *model.Report) error
		Get(ctx context.Context, id uuid.UUID) (*model.Report, error)
		Update(ctx context.Context, report *model.Report) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.ReportFilters) ([]*model.Report, error)
		GrantAccess(ctx context.Context, reportID, therapistID uuid.UUID) error
		RevokeAccess(ctx context.Context, reportID, therapistID uuid.UUID) error
		ListAccess(ctx context.Context, reportID uuid.UUID) ([]*model.ReportAccess, error)
		HasAccess(ctx context.Context, reportID, therapistID uuid.UUID) (bool, error)
	}

	// TransferRepository commits a transfer atomically: appointment
	// reassignments, report-access regrants and outbox events all land
	// in one transaction.
	TransferRepository interface {
		ExecuteTransfer(ctx context.Context, targetID uuid.UUID, moves []AppointmentMove, events []*model.OutboxEvent) (int, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, lastError *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
)
