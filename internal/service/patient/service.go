package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/repository"
	"github.com/physioflow/practice-api/internal/service/audit"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
)

type Service struct {
	repo       repository.PatientRepository
	therapists repository.TherapistRepository
	auditor    *audit.Service
}

func NewService(repo repository.PatientRepository, therapists repository.TherapistRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, therapists: therapists, auditor: auditor}
}

func (s *Service) CreatePatient(ctx context.Context, actorID uuid.UUID, req *model.CreatePatientRequest) (*model.Patient, error) {
	therapistID, err := uuid.Parse(req.TherapistID)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid therapist ID", err)
	}
	if _, err := s.therapists.Get(ctx, therapistID); err != nil {
		return nil, apperrors.NewNotFound("therapist", err)
	}

	patient := &model.Patient{
		TherapistID: therapistID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Address:     req.Address,
		Status:      model.PatientStatusActive,
		Notes:       req.Notes,
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.auditor.Log(ctx, actorID, "create", "patient", patient.ID, model.JSONMap{
		"therapist_id": patient.TherapistID,
		"name":         patient.Name,
	})
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("patient", err)
	}
	return patient, nil
}

// ListPatients filters strictly: an unknown therapist filter is an error,
// never an unfiltered listing.
func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	if filters.TherapistID != uuid.Nil {
		if _, err := s.therapists.Get(ctx, filters.TherapistID); err != nil {
			return nil, apperrors.NewNotFound("therapist", err)
		}
	}

	patients, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (s *Service) UpdatePatient(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("patient", err)
	}

	if req.TherapistID != nil {
		therapistID, err := uuid.Parse(*req.TherapistID)
		if err != nil {
			return nil, apperrors.NewBadRequest("invalid therapist ID", err)
		}
		if _, err := s.therapists.Get(ctx, therapistID); err != nil {
			return nil, apperrors.NewNotFound("therapist", err)
		}
		patient.TherapistID = therapistID
	}
	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.Status != nil {
		patient.Status = *req.Status
	}
	if req.Notes != nil {
		patient.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	s.auditor.Log(ctx, actorID, "update", "patient", patient.ID, nil)
	return patient, nil
}

func (s *Service) DeletePatient(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	s.auditor.Log(ctx, actorID, "delete", "patient", id, nil)
	return nil
}
