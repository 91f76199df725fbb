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

type therapistRepository struct {
	BaseRepository
}

func NewTherapistRepository(db *sqlx.DB) repository.TherapistRepository {
	return &therapistRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *therapistRepository) Create(ctx context.Context, therapist *model.Therapist) error {
	query := `
		INSERT INTO therapists (
			id, name, email, password_hash, role, specialty,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	therapist.ID = uuid.New()
	therapist.CreatedAt = time.Now()
	therapist.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		therapist.ID,
		therapist.Name,
		therapist.Email,
		therapist.PasswordHash,
		therapist.Role,
		therapist.Specialty,
		therapist.Status,
		therapist.CreatedAt,
		therapist.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create therapist: %w", err)
	}
	return nil
}

func (r *therapistRepository) Get(ctx context.Context, id uuid.UUID) (*model.Therapist, error) {
	query := `
		SELECT id, name, email, password_hash, role, specialty,
			   status, created_at, updated_at
		FROM therapists
		WHERE id = $1 AND deleted_at IS NULL
	`
	var therapist model.Therapist
	if err := r.db.GetContext(ctx, &therapist, query, id); err != nil {
		return nil, fmt.Errorf("failed to get therapist: %w", err)
	}
	return &therapist, nil
}

func (r *therapistRepository) GetByEmail(ctx context.Context, email string) (*model.Therapist, error) {
	query := `
		SELECT id, name, email, password_hash, role, specialty,
			   status, created_at, updated_at
		FROM therapists
		WHERE email = $1 AND deleted_at IS NULL
	`
	var therapist model.Therapist
	if err := r.db.GetContext(ctx, &therapist, query, email); err != nil {
		return nil, fmt.Errorf("failed to get therapist by email: %w", err)
	}
	return &therapist, nil
}

func (r *therapistRepository) Update(ctx context.Context, therapist *model.Therapist) error {
	query := `
		UPDATE therapists
		SET name = $1, email = $2, specialty = $3, status = $4, updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL
	`
	therapist.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		therapist.Name,
		therapist.Email,
		therapist.Specialty,
		therapist.Status,
		therapist.UpdatedAt,
		therapist.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update therapist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("therapist not found")
	}
	return nil
}

func (r *therapistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE therapists
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete therapist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("therapist not found")
	}
	return nil
}

func (r *therapistRepository) List(ctx context.Context, filters *model.TherapistFilters) ([]*model.Therapist, error) {
	query := `
		SELECT id, name, email, password_hash, role, specialty,
			   status, created_at, updated_at
		FROM therapists
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	argCount := 1

	if filters.Role != "" {
		query += fmt.Sprintf(" AND role = $%d", argCount)
		args = append(args, filters.Role)
		argCount++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}

	query += " ORDER BY name ASC"

	var therapists []*model.Therapist
	if err := r.db.SelectContext(ctx, &therapists, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list therapists: %w", err)
	}
	return therapists, nil
}
