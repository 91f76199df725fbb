package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/repository"
)

type reportRepository struct {
	BaseRepository
}

func NewReportRepository(db *sqlx.DB) repository.ReportRepository {
	return &reportRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	report.ID = uuid.New()
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO reports (
				id, patient_id, therapist_id, type, title, content,
				status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		_, err := tx.ExecContext(ctx, query,
			report.ID,
			report.PatientID,
			report.TherapistID,
			report.Type,
			report.Title,
			report.Content,
			report.Status,
			report.CreatedAt,
			report.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}

		// The authoring therapist always holds a grant.
		accessQuery := `
			INSERT INTO report_access (id, report_id, therapist_id, granted_at)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, accessQuery, uuid.New(), report.ID, report.TherapistID, time.Now()); err != nil {
			return fmt.Errorf("failed to grant report access: %w", err)
		}
		return nil
	})
}

func (r *reportRepository) Get(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	query := `
		SELECT id, patient_id, therapist_id, type, title, content,
			   status, created_at, updated_at
		FROM reports
		WHERE id = $1
	`
	var report model.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

func (r *reportRepository) Update(ctx context.Context, report *model.Report) error {
	query := `
		UPDATE reports
		SET title = $1, content = $2, status = $3, updated_at = $4
		WHERE id = $5
	`
	report.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		report.Title,
		report.Content,
		report.Status,
		report.UpdatedAt,
		report.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("report not found")
	}
	return nil
}

func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM report_access WHERE report_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete report access: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete report: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("report not found")
		}
		return nil
	})
}

func (r *reportRepository) List(ctx context.Context, filters *model.ReportFilters) ([]*model.Report, error) {
	query := `
		SELECT id, patient_id, therapist_id, type, title, content,
			   status, created_at, updated_at
		FROM reports
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}

	if filters.TherapistID != uuid.Nil {
		query += fmt.Sprintf(
			" AND id IN (SELECT report_id FROM report_access WHERE therapist_id = $%d)", argCount)
		args = append(args, filters.TherapistID)
		argCount++
	}

	if filters.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argCount)
		args = append(args, filters.Type)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	var reports []*model.Report
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) GrantAccess(ctx context.Context, reportID, therapistID uuid.UUID) error {
	query := `
		INSERT INTO report_access (id, report_id, therapist_id, granted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (report_id, therapist_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, uuid.New(), reportID, therapistID, time.Now()); err != nil {
		return fmt.Errorf("failed to grant report access: %w", err)
	}
	return nil
}

func (r *reportRepository) RevokeAccess(ctx context.Context, reportID, therapistID uuid.UUID) error {
	query := `DELETE FROM report_access WHERE report_id = $1 AND therapist_id = $2`
	if _, err := r.db.ExecContext(ctx, query, reportID, therapistID); err != nil {
		return fmt.Errorf("failed to revoke report access: %w", err)
	}
	return nil
}

func (r *reportRepository) ListAccess(ctx context.Context, reportID uuid.UUID) ([]*model.ReportAccess, error) {
	query := `
		SELECT id, report_id, therapist_id, granted_at
		FROM report_access
		WHERE report_id = $1
		ORDER BY granted_at ASC
	`
	var grants []*model.ReportAccess
	if err := r.db.SelectContext(ctx, &grants, query, reportID); err != nil {
		return nil, fmt.Errorf("failed to list report access: %w", err)
	}
	return grants, nil
}

func (r *reportRepository) HasAccess(ctx context.Context, reportID, therapistID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM report_access
			WHERE report_id = $1 AND therapist_id = $2
		)
	`
	var has bool
	if err := r.db.GetContext(ctx, &has, query, reportID, therapistID); err != nil {
		return false, fmt.Errorf("failed to check report access: %w", err)
	}
	return has, nil
}
