package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/repository"
	"github.com/physioflow/practice-api/internal/service/audit"
	"github.com/physioflow/practice-api/internal/service/notification"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
)

type Service struct {
	repo       repository.ReportRepository
	patients   repository.PatientRepository
	therapists repository.TherapistRepository
	notifSvc   *notification.Service
	auditor    *audit.Service
}

func NewService(
	repo repository.ReportRepository,
	patients repository.PatientRepository,
	therapists repository.TherapistRepository,
	notifSvc *notification.Service,
	auditor *audit.Service,
) *Service {
	return &Service{
		repo:       repo,
		patients:   patients,
		therapists: therapists,
		notifSvc:   notifSvc,
		auditor:    auditor,
	}
}

func (s *Service) CreateReport(ctx context.Context, therapistID uuid.UUID, req *model.CreateReportRequest) (*model.Report, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.NewBadRequest("invalid patient ID", err)
	}
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, apperrors.NewNotFound("patient", err)
	}

	report := &model.Report{
		PatientID:   patientID,
		TherapistID: therapistID,
		Type:        req.Type,
		Title:       req.Title,
		Content:     req.Content,
		Status:      model.ReportStatusDraft,
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.auditor.Log(ctx, therapistID, "create", "report", report.ID, model.JSONMap{
		"patient_id": report.PatientID,
		"type":       report.Type,
	})
	return report, nil
}

// GetReport enforces the access grants; admins bypass them.
func (s *Service) GetReport(ctx context.Context, requesterID uuid.UUID, isAdmin bool, id uuid.UUID) (*model.Report, error) {
	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NewNotFound("report", err)
	}

	if !isAdmin {
		has, err := s.repo.HasAccess(ctx, id, requesterID)
		if err != nil {
			return nil, fmt.Errorf("failed to check report access: %w", err)
		}
		if !has {
			return nil, apperrors.Unauthorized(fmt.Errorf("no access to report %s", id))
		}
	}
	return report, nil
}

func (s *Service) ListReports(ctx context.Context, filters *model.ReportFilters) ([]*model.Report, error) {
	reports, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// UpdateReport edits a draft. Finalized reports are immutable.
func (s *Service) UpdateReport(ctx context.Context, requesterID uuid.UUID, isAdmin bool, id uuid.UUID, req *model.UpdateReportRequest) (*model.Report, error) {
	report, err := s.GetReport(ctx, requesterID, isAdmin, id)
	if err != nil {
		return nil, err
	}

	if report.Status == model.ReportStatusFinal {
		return nil, apperrors.NewConflict("finalized reports cannot be edited", nil)
	}

	if req.Title != nil {
		report.Title = *req.Title
	}
	if req.Content != nil {
		report.Content = req.Content
	}

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	s.auditor.Log(ctx, requesterID, "update", "report", report.ID, nil)
	return report, nil
}

// FinalizeReport locks the report and notifies the patient's therapist.
func (s *Service) FinalizeReport(ctx context.Context, requesterID uuid.UUID, isAdmin bool, id uuid.UUID) (*model.Report, error) {
	report, err := s.GetReport(ctx, requesterID, isAdmin, id)
	if err != nil {
		return nil, err
	}

	if report.Status == model.ReportStatusFinal {
		return nil, apperrors.NewConflict("report is already finalized", nil)
	}

	report.Status = model.ReportStatusFinal
	if err := s.repo.Update(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to finalize report: %w", err)
	}

	if patient, err := s.patients.Get(ctx, report.PatientID); err == nil {
		if therapist, err := s.therapists.Get(ctx, report.TherapistID); err == nil {
			notice := &notification.AppointmentNotice{
				PatientID:     patient.ID,
				PatientName:   patient.Name,
				PatientEmail:  patient.Email,
				TherapistID:   therapist.ID,
				TherapistName: therapist.Name,
				Reason:        report.Title,
			}
			if err := s.notifSvc.Enqueue(ctx, model.EventReportFinalized, notice); err != nil {
				s.auditor.Log(ctx, requesterID, "notification_failed", "report", report.ID, model.JSONMap{
					"error": err.Error(),
				})
			}
		}
	}

	s.auditor.Log(ctx, requesterID, "finalize", "report", report.ID, nil)
	return report, nil
}

func (s *Service) DeleteReport(ctx context.Context, requesterID uuid.UUID, isAdmin bool, id uuid.UUID) error {
	report, err := s.GetReport(ctx, requesterID, isAdmin, id)
	if err != nil {
		return err
	}
	if report.Status == model.ReportStatusFinal && !isAdmin {
		return apperrors.NewConflict("only admins can delete finalized reports", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	s.auditor.Log(ctx, requesterID, "delete", "report", id, nil)
	return nil
}

func (s *Service) GrantAccess(ctx context.Context, actorID, reportID, therapistID uuid.UUID) error {
	if _, err := s.repo.Get(ctx, reportID); err != nil {
		return apperrors.NewNotFound("report", err)
	}
	if _, err := s.therapists.Get(ctx, therapistID); err != nil {
		return apperrors.NewNotFound("therapist", err)
	}

	if err := s.repo.GrantAccess(ctx, reportID, therapistID); err != nil {
		return fmt.Errorf("failed to grant access: %w", err)
	}

	s.auditor.Log(ctx, actorID, "grant_access", "report", reportID, model.JSONMap{
		"therapist_id": therapistID,
	})
	return nil
}

func (s *Service) RevokeAccess(ctx context.Context, actorID, reportID, therapistID uuid.UUID) error {
	if err := s.repo.RevokeAccess(ctx, reportID, therapistID); err != nil {
		return fmt.Errorf("failed to revoke access: %w", err)
	}

	s.auditor.Log(ctx, actorID, "revoke_access", "report", reportID, model.JSONMap{
		"therapist_id": therapistID,
	})
	return nil
}

func (s *Service) ListAccess(ctx context.Context, reportID uuid.UUID) ([]*model.ReportAccess, error) {
	grants, err := s.repo.ListAccess(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access: %w", err)
	}
	return grants, nil
}
