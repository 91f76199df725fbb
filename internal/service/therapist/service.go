package therapist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/repository"
	"github.com/physioflow/practice-api/internal/schedule"
	"github.com/physioflow/practice-api/internal/service/audit"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
	"github.com/physioflow/practice-api/pkg/security"
)

const dateLayout = "2006-01-02"

type Service struct {
	repo         repository.TherapistRepository
	availability repository.AvailabilityRepository
	hasher       security.PasswordHasher
	auditor      *audit.Service
}

func NewService(
	repo repository.TherapistRepository,
	availability repository.AvailabilityRepository,
	hasher security.PasswordHasher,
	auditor *audit.Service,
) *Service {
	return &Service{
		repo:         repo,
		availability: availability,
		hasher:       hasher,
		auditor:      auditor,
	}
}

func (s *Service) CreateTherapist(ctx context.Context, actorID uuid.UUID, req *model.CreateTherapistRequest) (*model.Therapist, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid password", err)
	}

	therapist := &model.Therapist{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Specialty:    req.Specialty,
		Status:       "active",
	}

	if err := s.repo.Create(ctx, therapist); err != nil {
		return nil, fmt.Errorf("failed to create therapist: %w", err)
	}

	s.auditor.Log(ctx, actorID, "create", "therapist", therapist.ID, model.JSONMap{
		"name": therapist.Name,
		"role": therapist.Role,
	})
	return therapist, nil
}

func (s *Service) GetTherapist(ctx context.Context, id uuid.UUID) (*model.Therapist, error) {
	therapist, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("therapist", err)
	}
	return therapist, nil
}

func (s *Service) ListTherapists(ctx context.Context, filters *model.TherapistFilters) ([]*model.Therapist, error) {
	therapists, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list therapists: %w", err)
	}
	return therapists, nil
}

func (s *Service) UpdateTherapist(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *model.UpdateTherapistRequest) (*model.Therapist, error) {
	therapist, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("therapist", err)
	}

	if req.Name != nil {
		therapist.Name = *req.Name
	}
	if req.Email != nil {
		therapist.Email = *req.Email
	}
	if req.Specialty != nil {
		therapist.Specialty = *req.Specialty
	}
	if req.Status != nil {
		therapist.Status = *req.Status
	}

	if err := s.repo.Update(ctx, therapist); err != nil {
		return nil, fmt.Errorf("failed to update therapist: %w", err)
	}

	s.auditor.Log(ctx, actorID, "update", "therapist", therapist.ID, nil)
	return therapist, nil
}

func (s *Service) DeleteTherapist(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete therapist: %w", err)
	}
	s.auditor.Log(ctx, actorID, "delete", "therapist", id, nil)
	return nil
}

// SetAvailability replaces the therapist's declared schedule for one date.
func (s *Service) SetAvailability(ctx context.Context, actorID, therapistID uuid.UUID, req *model.UpsertAvailabilityRequest) (*model.DayAvailability, error) {
	if _, err := s.repo.Get(ctx, therapistID); err != nil {
		return nil, apperrors.NewNotFound("therapist", err)
	}
	if err := validateRanges(req.Ranges); err != nil {
		return nil, err
	}

	day := &model.DayAvailability{
		TherapistID: therapistID,
		Date:        req.Date,
		Enabled:     req.Enabled,
		Ranges:      req.Ranges,
	}

	if err := s.availability.Upsert(ctx, day); err != nil {
		return nil, fmt.Errorf("failed to save availability: %w", err)
	}

	s.auditor.Log(ctx, actorID, "set_availability", "therapist", therapistID, model.JSONMap{
		"date":    day.Date,
		"enabled": day.Enabled,
	})
	return day, nil
}

// GetAvailability returns declared day schedules for an inclusive date range.
func (s *Service) GetAvailability(ctx context.Context, therapistID uuid.UUID, from, to string) ([]*model.DayAvailability, error) {
	for _, date := range []string{from, to} {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return nil, apperrors.NewBadRequest("invalid date format", err)
		}
	}

	days, err := s.availability.ListRange(ctx, therapistID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return days, nil
}

// validateRanges rejects malformed clocks, inverted ranges and overlaps.
func validateRanges(ranges []model.TimeRange) error {
	for i, r := range ranges {
		start, ok := schedule.MinutesOfClock(r.Start)
		if !ok {
			return apperrors.NewBadRequest(fmt.Sprintf("invalid start time %q", r.Start), nil)
		}
		end, ok := schedule.MinutesOfClock(r.End)
		if !ok {
			return apperrors.NewBadRequest(fmt.Sprintf("invalid end time %q", r.End), nil)
		}
		if start >= end {
			return apperrors.NewBadRequest(fmt.Sprintf("range %s-%s is empty", r.Start, r.End), nil)
		}

		for _, prev := range ranges[:i] {
			prevStart, _ := schedule.MinutesOfClock(prev.Start)
			prevEnd, _ := schedule.MinutesOfClock(prev.End)
			if start < prevEnd && prevStart < end {
				return apperrors.NewBadRequest(
					fmt.Sprintf("range %s-%s overlaps %s-%s", r.Start, r.End, prev.Start, prev.End), nil)
			}
		}
	}
	return nil
}
