package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/repository"
)

// ErrSlotTaken is returned when a transfer loses the race for a slot.
var ErrSlotTaken = errors.New("slot already booked for therapist")

const uniqueViolation = "23505"

type transferRepository struct {
	BaseRepository
}

func NewTransferRepository(db *sqlx.DB) repository.TransferRepository {
	return &transferRepository{BaseRepository: NewBaseRepository(db)}
}

// ExecuteTransfer reassigns the given appointments to the target therapist,
// moves the related report-access grants and records the outbox events, all
// in one transaction. Slot occupancy is re-checked here so that two
// concurrent transfers cannot both win the same slot; the partial unique
// index on (therapist_id, visit_date, start_time) backs this up.
func (r *transferRepository) ExecuteTransfer(ctx context.Context, targetID uuid.UUID, moves []repository.AppointmentMove, events []*model.OutboxEvent) (int, error) {
	reportsMoved := 0

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, m := range moves {
			var taken bool
			err := tx.GetContext(ctx, &taken, `
				SELECT EXISTS (
					SELECT 1 FROM appointments
					WHERE therapist_id = $1
					AND visit_date = $2
					AND start_time = $3
					AND status NOT IN ('cancelled', 'completed')
					AND id != $4
				)
			`, targetID, m.Date, m.StartTime, m.AppointmentID)
			if err != nil {
				return fmt.Errorf("failed to check slot: %w", err)
			}
			if taken {
				return fmt.Errorf("appointment %s at %s %s: %w", m.AppointmentID, m.Date, m.StartTime, ErrSlotTaken)
			}

			result, err := tx.ExecContext(ctx, `
				UPDATE appointments
				SET therapist_id = $1, visit_date = $2, start_time = $3, updated_at = $4
				WHERE id = $5 AND status NOT IN ('cancelled', 'completed')
			`, targetID, m.Date, m.StartTime, time.Now(), m.AppointmentID)
			if err != nil {
				if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
					return fmt.Errorf("appointment %s: %w", m.AppointmentID, ErrSlotTaken)
				}
				return fmt.Errorf("failed to reassign appointment: %w", err)
			}
			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rows == 0 {
				return fmt.Errorf("appointment %s not found or not transferable", m.AppointmentID)
			}

			moved, err := r.moveReportAccess(ctx, tx, m, targetID)
			if err != nil {
				return err
			}
			reportsMoved += moved
		}

		for _, e := range events {
			if err := insertOutboxEvent(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return reportsMoved, nil
}

func (r *transferRepository) moveReportAccess(ctx context.Context, tx *sqlx.Tx, m repository.AppointmentMove, targetID uuid.UUID) (int, error) {
	var reportIDs []uuid.UUID
	err := tx.SelectContext(ctx, &reportIDs, `
		DELETE FROM report_access ra
		USING reports rep
		WHERE ra.report_id = rep.id
		AND rep.patient_id = $1
		AND ra.therapist_id = $2
		RETURNING ra.report_id
	`, m.PatientID, m.FromTherapistID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke report access: %w", err)
	}

	for _, reportID := range reportIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO report_access (id, report_id, therapist_id, granted_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (report_id, therapist_id) DO NOTHING
		`, uuid.New(), reportID, targetID, time.Now())
		if err != nil {
			return 0, fmt.Errorf("failed to regrant report access: %w", err)
		}
	}
	return len(reportIDs), nil
}
