package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/repository"
	"github.com/physioflow/practice-api/internal/schedule"
	"github.com/physioflow/practice-api/internal/service/audit"
	"github.com/physioflow/practice-api/internal/service/notification"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type Service struct {
	repo         repository.AppointmentRepository
	availability repository.AvailabilityRepository
	patients     repository.PatientRepository
	therapists   repository.TherapistRepository
	notifSvc     *notification.Service
	auditor      *audit.Service
}

func NewService(
	repo repository.AppointmentRepository,
	availability repository.AvailabilityRepository,
	patients repository.PatientRepository,
	therapists repository.TherapistRepository,
	notifSvc *notification.Service,
	auditor *audit.Service,
) *Service {
	return &Service{
		repo:         repo,
		availability: availability,
		patients:     patients,
		therapists:   therapists,
		notifSvc:     notifSvc,
		auditor:      auditor,
	}
}

func (s *Service) CreateAppointment(ctx context.Context, actorID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid patient ID", err)
	}
	therapistID, err := uuid.Parse(req.TherapistID)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid therapist ID", err)
	}

	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, apperrors.NewNotFound("patient", err)
	}
	therapist, err := s.therapists.Get(ctx, therapistID)
	if err != nil {
		return nil, apperrors.NewNotFound("therapist", err)
	}

	if err := s.validateFuture(req.Date, req.StartTime); err != nil {
		return nil, err
	}
	if err := s.validateSlot(ctx, therapistID, req.Date, req.StartTime, uuid.Nil); err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		PatientID:   patientID,
		TherapistID: therapistID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		Status:      model.AppointmentStatusPending,
		Notes:       req.Notes,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.notify(ctx, model.EventAppointmentCreated, apt, patient, therapist, "")
	s.auditor.Log(ctx, actorID, "create", "appointment", apt.ID, model.JSONMap{
		"patient_id":   apt.PatientID,
		"therapist_id": apt.TherapistID,
		"date":         apt.Date,
		"start_time":   apt.StartTime,
	})

	return apt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("appointment", err)
	}
	return apt, nil
}

func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) UpdateAppointment(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("appointment", err)
	}

	if apt.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.NewConflict("cannot modify a cancelled appointment", nil)
	}
	if apt.Status == model.AppointmentStatusCompleted {
		return nil, apperrors.NewConflict("cannot modify a completed appointment", nil)
	}
	// Cancellation has its own flow (reason, notification); never via update.
	if req.Status != nil && *req.Status == model.AppointmentStatusCancelled {
		return nil, apperrors.NewConflict("use the cancel endpoint to cancel an appointment", nil)
	}

	rescheduled := false
	if req.Date != nil && *req.Date != apt.Date {
		apt.Date = *req.Date
		rescheduled = true
	}
	if req.StartTime != nil && *req.StartTime != apt.StartTime {
		apt.StartTime = *req.StartTime
		rescheduled = true
	}
	if req.Status != nil {
		apt.Status = *req.Status
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}

	if rescheduled {
		if err := s.validateFuture(apt.Date, apt.StartTime); err != nil {
			return nil, err
		}
		if err := s.validateSlot(ctx, apt.TherapistID, apt.Date, apt.StartTime, apt.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	if rescheduled {
		s.notifyByIDs(ctx, model.EventAppointmentRescheduled, apt, "")
	}
	s.auditor.Log(ctx, actorID, "update", "appointment", apt.ID, model.JSONMap{
		"date":       apt.Date,
		"start_time": apt.StartTime,
		"status":     apt.Status,
	})

	return apt, nil
}

func (s *Service) CancelAppointment(ctx context.Context, actorID uuid.UUID, id uuid.UUID, reason string) error {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return apperrors.NewNotFound("appointment", err)
	}

	if apt.Status == model.AppointmentStatusCancelled {
		return apperrors.NewConflict("appointment is already cancelled", nil)
	}
	if apt.Status == model.AppointmentStatusCompleted {
		return apperrors.NewConflict("cannot cancel a completed appointment", nil)
	}

	apt.Status = model.AppointmentStatusCancelled
	apt.CancelReason = &reason

	if err := s.repo.Update(ctx, apt); err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.notifyByIDs(ctx, model.EventAppointmentCancelled, apt, reason)
	s.auditor.Log(ctx, actorID, "cancel", "appointment", id, model.JSONMap{
		"cancel_reason": reason,
	})

	return nil
}

// DeleteAppointment hard-deletes; only cancelled appointments qualify.
func (s *Service) DeleteAppointment(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return apperrors.NewNotFound("appointment", err)
	}

	if apt.Status != model.AppointmentStatusCancelled {
		return apperrors.NewConflict("can only delete cancelled appointments", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	s.auditor.Log(ctx, actorID, "delete", "appointment", id, nil)
	return nil
}

// OpenSlots lists free 30-minute slot starts for a therapist on a date.
func (s *Service) OpenSlots(ctx context.Context, therapistID uuid.UUID, date string) ([]string, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, apperrors.NewBadRequest("invalid date format", err)
	}

	day, err := s.availability.Get(ctx, therapistID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}

	existing, err := s.repo.ListByTherapistAndDates(ctx, therapistID, []string{date})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	return schedule.OpenSlots(
		schedule.Day{Enabled: day.Enabled, Ranges: day.Ranges},
		toBookings(existing),
		date,
	), nil
}

func (s *Service) validateFuture(date, startTime string) error {
	day, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return apperrors.NewBadRequest("invalid date format", err)
	}
	minutes, ok := schedule.MinutesOfClock(startTime)
	if !ok {
		return apperrors.NewBadRequest("invalid start time", nil)
	}

	start := day.Add(time.Duration(minutes) * time.Minute)
	if start.Before(time.Now()) {
		return apperrors.NewBadRequest("appointment cannot be scheduled in the past", nil)
	}
	return nil
}

func (s *Service) validateSlot(ctx context.Context, therapistID uuid.UUID, date, startTime string, excludeID uuid.UUID) error {
	cal := schedule.Calendar{}
	day, err := s.availability.Get(ctx, therapistID, date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to get availability: %w", err)
	}
	if day != nil {
		cal[date] = schedule.Day{Enabled: day.Enabled, Ranges: day.Ranges}
	}

	existing, err := s.repo.ListByTherapistAndDates(ctx, therapistID, []string{date})
	if err != nil {
		return fmt.Errorf("failed to list appointments: %w", err)
	}

	cand := schedule.Booking{ID: excludeID, Date: date, StartTime: startTime}
	if conflict := schedule.CheckBooking(cal, toBookings(existing), cand); conflict != nil {
		return conflictError(conflict.Reason)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, eventType string, apt *model.Appointment, patient *model.Patient, therapist *model.Therapist, reason string) {
	notice := &notification.AppointmentNotice{
		AppointmentID: apt.ID,
		PatientID:     patient.ID,
		PatientName:   patient.Name,
		PatientEmail:  patient.Email,
		TherapistID:   therapist.ID,
		TherapistName: therapist.Name,
		Date:          apt.Date,
		StartTime:     apt.StartTime,
		Reason:        reason,
	}

	if err := s.notifSvc.Enqueue(ctx, eventType, notice); err != nil {
		s.auditor.Log(ctx, apt.TherapistID, "notification_failed", "appointment", apt.ID, model.JSONMap{
			"error": err.Error(),
		})
	}
}

func (s *Service) notifyByIDs(ctx context.Context, eventType string, apt *model.Appointment, reason string) {
	patient, err := s.patients.Get(ctx, apt.PatientID)
	if err != nil {
		return
	}
	therapist, err := s.therapists.Get(ctx, apt.TherapistID)
	if err != nil {
		return
	}
	s.notify(ctx, eventType, apt, patient, therapist, reason)
}

func conflictError(reason model.ConflictReason) error {
	switch reason {
	case model.ConflictNoAvailability:
		return apperrors.NewConflict("no availability for this date", nil)
	case model.ConflictNoSlot:
		return apperrors.NewConflict("no available slot for this time", nil)
	case model.ConflictDoubleBooked:
		return apperrors.NewConflict("therapist already has an appointment at this time", nil)
	default:
		return apperrors.NewConflict(string(reason), nil)
	}
}

func toBookings(appointments []*model.Appointment) []schedule.Booking {
	bookings := make([]schedule.Booking, 0, len(appointments))
	for _, apt := range appointments {
		bookings = append(bookings, schedule.Booking{
			ID:        apt.ID,
			Date:      apt.Date,
			StartTime: apt.StartTime,
			Cancelled: apt.Status == model.AppointmentStatusCancelled,
		})
	}
	return bookings
}
