package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/physioflow/practice-api/internal/email"
	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/repository"
	"github.com/physioflow/practice-api/internal/service/notification"
	"github.com/physioflow/practice-api/pkg/logger"
	"github.com/physioflow/practice-api/pkg/messaging"
	"github.com/physioflow/practice-api/pkg/metrics"
)

// EventsChannel is the broker channel all domain events publish to.
const EventsChannel = "practice.events"

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxRetries   int
}

// OutboxProcessor drains pending outbox events: each event is published to
// the broker and, when it carries a patient email, also mailed.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	mailer  email.Sender
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	mailer email.Sender,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		mailer:  mailer,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processEvents(ctx); err != nil {
				p.logger.Error(err, "failed to process events")
			}
		}
	}
}

func (p *OutboxProcessor) processEvents(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingEventsWithLock(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}

	for _, event := range events {
		if err := p.handleEvent(ctx, event); err != nil {
			p.metrics.OutboxEventsFailed.Inc()
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
			errMsg := err.Error()

			status := model.OutboxStatusPending
			if event.RetryCount+1 >= p.config.MaxRetries {
				status = model.OutboxStatusFailed
				p.logger.Error(err, "outbox event exceeded retries",
					"event_id", event.ID, "event_type", event.EventType)
			}
			if updateErr := p.repo.UpdateStatus(ctx, event.ID, status, &errMsg); updateErr != nil {
				p.logger.Error(updateErr, "failed to update event status", "event_id", event.ID)
			}
			continue
		}

		p.metrics.OutboxEventsProcessed.Inc()
		if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil); err != nil {
			p.logger.Error(err, "failed to mark event processed", "event_id", event.ID)
		}
	}
	return nil
}

func (p *OutboxProcessor) handleEvent(ctx context.Context, event *model.OutboxEvent) error {
	msg := messaging.Message{
		Type:    event.EventType,
		Payload: json.RawMessage(event.Payload),
	}
	if err := p.broker.Publish(ctx, EventsChannel, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if p.mailer == nil {
		return nil
	}

	var notice notification.AppointmentNotice
	if err := json.Unmarshal(event.Payload, &notice); err != nil || notice.PatientEmail == "" {
		// Not every event is mailable.
		return nil
	}

	subject, body := composeMail(event.EventType, &notice)
	if subject == "" {
		return nil
	}
	if err := p.mailer.Send(notice.PatientEmail, subject, body); err != nil {
		p.metrics.EmailsSent.WithLabelValues("error").Inc()
		return err
	}
	p.metrics.EmailsSent.WithLabelValues("ok").Inc()
	return nil
}

func composeMail(eventType string, n *notification.AppointmentNotice) (string, string) {
	switch eventType {
	case model.EventAppointmentCreated:
		return "Appointment confirmed",
			fmt.Sprintf("Hi %s,\n\nYour appointment with %s is booked for %s at %s.\n",
				n.PatientName, n.TherapistName, n.Date, n.StartTime)
	case model.EventAppointmentRescheduled:
		return "Appointment rescheduled",
			fmt.Sprintf("Hi %s,\n\nYour appointment with %s has moved to %s at %s.\n",
				n.PatientName, n.TherapistName, n.Date, n.StartTime)
	case model.EventAppointmentCancelled:
		return "Appointment cancelled",
			fmt.Sprintf("Hi %s,\n\nYour appointment on %s at %s was cancelled. Reason: %s\n",
				n.PatientName, n.Date, n.StartTime, n.Reason)
	case model.EventAppointmentTransferred:
		return "Appointment update",
			fmt.Sprintf("Hi %s,\n\nYour appointment on %s at %s is now with %s.\n",
				n.PatientName, n.Date, n.StartTime, n.TherapistName)
	case model.EventReportFinalized:
		return "Your assessment report is ready",
			fmt.Sprintf("Hi %s,\n\n%s has finalized your report: %s\n",
				n.PatientName, n.TherapistName, n.Reason)
	default:
		return "", ""
	}
}
