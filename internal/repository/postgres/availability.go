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

const availabilityColumns = `
	id, therapist_id, to_char(day, 'YYYY-MM-DD') AS day,
	enabled, slots, updated_at
`

type availabilityRepository struct {
	BaseRepository
}

func NewAvailabilityRepository(db *sqlx.DB) repository.AvailabilityRepository {
	return &availabilityRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *availabilityRepository) Upsert(ctx context.Context, day *model.DayAvailability) error {
	query := `
		INSERT INTO therapist_availability (
			id, therapist_id, day, enabled, slots, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (therapist_id, day)
		DO UPDATE SET enabled = EXCLUDED.enabled,
					  slots = EXCLUDED.slots,
					  updated_at = EXCLUDED.updated_at
	`
	if day.ID == uuid.Nil {
		day.ID = uuid.New()
	}
	day.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		day.ID,
		day.TherapistID,
		day.Date,
		day.Enabled,
		day.Ranges,
		day.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert availability: %w", err)
	}
	return nil
}

func (r *availabilityRepository) Get(ctx context.Context, therapistID uuid.UUID, date string) (*model.DayAvailability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM therapist_availability
		WHERE therapist_id = $1 AND day = $2
	`
	var day model.DayAvailability
	if err := r.db.GetContext(ctx, &day, query, therapistID, date); err != nil {
		return nil, fmt.Errorf("failed to get availability: %w", err)
	}
	return &day, nil
}

func (r *availabilityRepository) ListByDates(ctx context.Context, therapistID uuid.UUID, dates []string) ([]*model.DayAvailability, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`SELECT `+availabilityColumns+`
		 FROM therapist_availability
		 WHERE therapist_id = ? AND day IN (?)`, therapistID, dates)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	query = r.db.Rebind(query)

	var days []*model.DayAvailability
	if err := r.db.SelectContext(ctx, &days, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	return days, nil
}

func (r *availabilityRepository) ListRange(ctx context.Context, therapistID uuid.UUID, from, to string) ([]*model.DayAvailability, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM therapist_availability
		WHERE therapist_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day ASC
	`
	var days []*model.DayAvailability
	if err := r.db.SelectContext(ctx, &days, query, therapistID, from, to); err != nil {
		return nil, fmt.Errorf("failed to list availability range: %w", err)
	}
	return days, nil
}
