package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/repository"
)

// AppointmentNotice is the payload published for appointment lifecycle
// events. It carries enough context for the worker to send mail without
// further lookups.
type AppointmentNotice struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	PatientName   string    `json:"patient_name"`
	PatientEmail  string    `json:"patient_email"`
	TherapistID   uuid.UUID `json:"therapist_id"`
	TherapistName string    `json:"therapist_name"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	Reason        string    `json:"reason,omitempty"`
}

// Service enqueues notification events through the outbox so they commit
// with the triggering write.
type Service struct {
	outbox repository.OutboxRepository
}

func NewService(outbox repository.OutboxRepository) *Service {
	return &Service{outbox: outbox}
}

// BuildEvent marshals a notice into an outbox event without persisting it;
// transactional flows hand the events to the repository layer.
func BuildEvent(eventType string, notice *AppointmentNotice) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(notice)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notice: %w", err)
	}
	return &model.OutboxEvent{
		EventType: eventType,
		Payload:   payload,
	}, nil
}

// Enqueue persists a standalone notification event.
func (s *Service) Enqueue(ctx context.Context, eventType string, notice *AppointmentNotice) error {
	event, err := BuildEvent(eventType, notice)
	if err != nil {
		return err
	}
	if err := s.outbox.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}
