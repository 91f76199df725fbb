package transfer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/repository"
	"github.com/physioflow/practice-api/internal/schedule"
	"github.com/physioflow/practice-api/internal/service/audit"
	"github.com/physioflow/practice-api/internal/service/notification"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
	"github.com/physioflow/practice-api/pkg/metrics"
)

// Service evaluates and commits moving appointments between therapists.
// Evaluation is a pure check over a snapshot; the commit re-checks inside
// the transaction so concurrent transfers cannot both win a slot.
type Service struct {
	transfers    repository.TransferRepository
	appointments repository.AppointmentRepository
	availability repository.AvailabilityRepository
	therapists   repository.TherapistRepository
	patients     repository.PatientRepository
	auditor      *audit.Service
	metrics      *metrics.Metrics
}

func NewService(
	transfers repository.TransferRepository,
	appointments repository.AppointmentRepository,
	availability repository.AvailabilityRepository,
	therapists repository.TherapistRepository,
	patients repository.PatientRepository,
	auditor *audit.Service,
	m *metrics.Metrics,
) *Service {
	return &Service{
		transfers:    transfers,
		appointments: appointments,
		availability: availability,
		therapists:   therapists,
		patients:     patients,
		auditor:      auditor,
		metrics:      m,
	}
}

// Evaluate classifies each candidate appointment against the target
// therapist's declared availability and current bookings.
func (s *Service) Evaluate(ctx context.Context, req *model.TransferCheckRequest) (*model.TransferCheckResult, error) {
	targetID, candidates, err := s.loadCandidates(ctx, req.TherapistID, req.AppointmentIDs)
	if err != nil {
		return nil, err
	}

	conflicts, err := s.check(ctx, targetID, candidates)
	if err != nil {
		return nil, err
	}

	conflicted := make(map[uuid.UUID]bool, len(conflicts))
	for _, c := range conflicts {
		conflicted[c.AppointmentID] = true
		if s.metrics != nil {
			s.metrics.TransferConflicts.WithLabelValues(string(c.Reason)).Inc()
		}
	}

	result := &model.TransferCheckResult{
		TherapistID: targetID,
		Conflicts:   conflicts,
		Clear:       []uuid.UUID{},
	}
	for _, apt := range candidates {
		if !conflicted[apt.ID] {
			result.Clear = append(result.Clear, apt.ID)
		}
	}
	return result, nil
}

// Execute commits the transfer. Replacement slots override the original
// date/time of conflicting appointments. Any remaining conflict aborts the
// whole transfer; nothing is partially applied.
func (s *Service) Execute(ctx context.Context, actorID uuid.UUID, req *model.ExecuteTransferRequest) (*model.TransferResult, []model.TransferConflict, error) {
	targetID, candidates, err := s.loadCandidates(ctx, req.TherapistID, req.AppointmentIDs)
	if err != nil {
		return nil, nil, err
	}

	target, err := s.therapists.Get(ctx, targetID)
	if err != nil {
		return nil, nil, apperrors.NewNotFound("therapist", err)
	}

	replacements := make(map[uuid.UUID]model.SlotReplacement, len(req.Replacements))
	for _, rep := range req.Replacements {
		id, err := uuid.Parse(rep.AppointmentID)
		if err != nil {
			return nil, nil, apperrors.NewBadRequest("invalid replacement appointment ID", err)
		}
		replacements[id] = rep
	}

	// Apply replacements before the final check.
	moved := make([]*model.Appointment, 0, len(candidates))
	for _, apt := range candidates {
		slot := *apt
		if rep, ok := replacements[apt.ID]; ok {
			slot.Date = rep.Date
			slot.StartTime = rep.StartTime
		}
		moved = append(moved, &slot)
	}

	conflicts, err := s.check(ctx, targetID, moved)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, conflicts, apperrors.NewConflict("transfer has unresolved conflicts", nil)
	}

	moves, events, err := s.buildCommit(ctx, targetID, target.Name, moved)
	if err != nil {
		return nil, nil, err
	}

	reportsMoved, err := s.transfers.ExecuteTransfer(ctx, targetID, moves, events)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute transfer: %w", err)
	}

	if s.metrics != nil {
		s.metrics.TransfersCommitted.Inc()
	}

	result := &model.TransferResult{
		TherapistID: targetID,
		Moved:       make([]uuid.UUID, 0, len(moved)),
		ReportsKept: reportsMoved,
	}
	for _, apt := range moved {
		result.Moved = append(result.Moved, apt.ID)
		s.auditor.Log(ctx, actorID, "transfer", "appointment", apt.ID, model.JSONMap{
			"to_therapist_id": targetID,
			"date":            apt.Date,
			"start_time":      apt.StartTime,
		})
	}
	return result, nil, nil
}

func (s *Service) loadCandidates(ctx context.Context, therapistID string, appointmentIDs []string) (uuid.UUID, []*model.Appointment, error) {
	targetID, err := uuid.Parse(therapistID)
	if err != nil {
		return uuid.Nil, nil, apperrors.NewBadRequest("invalid therapist ID", err)
	}

	ids := make([]uuid.UUID, 0, len(appointmentIDs))
	for _, raw := range appointmentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, nil, apperrors.NewBadRequest("invalid appointment ID", err)
		}
		ids = append(ids, id)
	}

	candidates, err := s.appointments.GetMany(ctx, ids)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	if len(candidates) != len(ids) {
		return uuid.Nil, nil, apperrors.NewNotFound("appointment", nil)
	}

	for _, apt := range candidates {
		if apt.Status == model.AppointmentStatusCancelled || apt.Status == model.AppointmentStatusCompleted {
			return uuid.Nil, nil, apperrors.NewConflict(
				fmt.Sprintf("appointment %s is %s and cannot be transferred", apt.ID, apt.Status), nil)
		}
		if apt.TherapistID == targetID {
			return uuid.Nil, nil, apperrors.NewConflict(
				fmt.Sprintf("appointment %s is already assigned to this therapist", apt.ID), nil)
		}
	}
	return targetID, candidates, nil
}

// check runs the pure conflict checker against a snapshot of the target's
// calendar and bookings on the candidate dates.
func (s *Service) check(ctx context.Context, targetID uuid.UUID, candidates []*model.Appointment) ([]model.TransferConflict, error) {
	dates := uniqueDates(candidates)

	days, err := s.availability.ListByDates(ctx, targetID, dates)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	cal := schedule.Calendar{}
	for _, day := range days {
		cal[day.Date] = schedule.Day{Enabled: day.Enabled, Ranges: day.Ranges}
	}

	existing, err := s.appointments.ListByTherapistAndDates(ctx, targetID, dates)
	if err != nil {
		return nil, fmt.Errorf("failed to load target appointments: %w", err)
	}

	cands := make([]schedule.Booking, 0, len(candidates))
	for _, apt := range candidates {
		cands = append(cands, schedule.Booking{
			ID:        apt.ID,
			Date:      apt.Date,
			StartTime: apt.StartTime,
		})
	}

	existingBookings := make([]schedule.Booking, 0, len(existing))
	for _, apt := range existing {
		existingBookings = append(existingBookings, schedule.Booking{
			ID:        apt.ID,
			Date:      apt.Date,
			StartTime: apt.StartTime,
			Cancelled: apt.Status == model.AppointmentStatusCancelled,
		})
	}

	return schedule.CheckAll(cal, existingBookings, cands), nil
}

func (s *Service) buildCommit(ctx context.Context, targetID uuid.UUID, targetName string, moved []*model.Appointment) ([]repository.AppointmentMove, []*model.OutboxEvent, error) {
	moves := make([]repository.AppointmentMove, 0, len(moved))
	events := make([]*model.OutboxEvent, 0, len(moved))

	for _, apt := range moved {
		moves = append(moves, repository.AppointmentMove{
			AppointmentID:   apt.ID,
			PatientID:       apt.PatientID,
			FromTherapistID: apt.TherapistID,
			Date:            apt.Date,
			StartTime:       apt.StartTime,
		})

		patient, err := s.patients.Get(ctx, apt.PatientID)
		if err != nil {
			return nil, nil, apperrors.NewNotFound("patient", err)
		}

		event, err := notification.BuildEvent(model.EventAppointmentTransferred, &notification.AppointmentNotice{
			AppointmentID: apt.ID,
			PatientID:     patient.ID,
			PatientName:   patient.Name,
			PatientEmail:  patient.Email,
			TherapistID:   targetID,
			TherapistName: targetName,
			Date:          apt.Date,
			StartTime:     apt.StartTime,
		})
		if err != nil {
			return nil, nil, err
		}
		events = append(events, event)
	}
	return moves, events, nil
}

func uniqueDates(appointments []*model.Appointment) []string {
	seen := make(map[string]bool, len(appointments))
	var dates []string
	for _, apt := range appointments {
		if !seen[apt.Date] {
			seen[apt.Date] = true
			dates = append(dates, apt.Date)
		}
	}
	return dates
}
