package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physioflow/practice-api/internal/email"
	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/service/notification"
	"github.com/physioflow/practice-api/pkg/logger"
	"github.com/physioflow/practice-api/pkg/messaging"
	"github.com/physioflow/practice-api/pkg/metrics"
)

// promauto registers into the default registry, so the whole test binary
// shares one Metrics instance.
var testMetrics = metrics.NewMetrics("practice_worker_test")

type memOutbox struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

// GetPendingEventsWithLock mirrors the repository's claim: pending events
// flip to processing in the same call, so a second poller gets nothing.
func (m *memOutbox) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var claimed []*model.OutboxEvent
	for _, e := range m.events {
		if len(claimed) >= limit {
			break
		}
		if e.Status == model.OutboxStatusPending {
			e.Status = model.OutboxStatusProcessing
			claimed = append(claimed, e)
		}
	}
	return claimed, nil
}

func (m *memOutbox) Create(ctx context.Context, event *model.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Status = model.OutboxStatusPending
	m.events = append(m.events, event)
	return nil
}

func (m *memOutbox) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, lastError *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Status = status
			e.LastError = lastError
			if lastError != nil {
				e.RetryCount++
			}
			if status == model.OutboxStatusProcessed {
				now := time.Now()
				e.ProcessedAt = &now
			}
			return nil
		}
	}
	return errors.New("event not found")
}

func (m *memOutbox) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (m *memOutbox) get(id uuid.UUID) *model.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

type memBroker struct {
	mu        sync.Mutex
	published []messaging.Message
	err       error
}

func (b *memBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, message.(messaging.Message))
	return nil
}

func (b *memBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *memBroker) Close() error { return nil }

type memMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *memMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func newTestProcessor(t *testing.T, repo *memOutbox, broker *memBroker, mailer email.Sender, maxRetries int) *OutboxProcessor {
	t.Helper()
	log := logger.NewLogger(&logger.Config{
		Level:      logger.ErrorLevel,
		TimeFormat: time.RFC3339,
		Output:     io.Discard,
	})
	cfg := OutboxProcessorConfig{BatchSize: 10, PollInterval: time.Second, MaxRetries: maxRetries}
	return NewOutboxProcessor(repo, broker, mailer, cfg, log, testMetrics)
}

func enqueueNotice(t *testing.T, repo *memOutbox, eventType, email string) uuid.UUID {
	t.Helper()
	payload, err := json.Marshal(&notification.AppointmentNotice{
		AppointmentID: uuid.New(),
		PatientName:   "Jordan Avery",
		PatientEmail:  email,
		TherapistName: "Dana Kim",
		Date:          "2026-09-01",
		StartTime:     "09:30",
	})
	require.NoError(t, err)
	event := &model.OutboxEvent{EventType: eventType, Payload: payload}
	require.NoError(t, repo.Create(context.Background(), event))
	return event.ID
}

func TestProcessEventsPublishesAndMails(t *testing.T) {
	repo := &memOutbox{}
	broker := &memBroker{}
	mailer := &memMailer{}
	id := enqueueNotice(t, repo, model.EventAppointmentCreated, "jordan@example.com")

	p := newTestProcessor(t, repo, broker, mailer, 3)
	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, broker.published, 1)
	assert.Equal(t, model.EventAppointmentCreated, broker.published[0].Type)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "jordan@example.com", mailer.sent[0])

	event := repo.get(id)
	require.NotNil(t, event)
	assert.Equal(t, model.OutboxStatusProcessed, event.Status)
	assert.NotNil(t, event.ProcessedAt)
}

func TestProcessEventsClaimPreventsDoubleDelivery(t *testing.T) {
	repo := &memOutbox{}
	enqueueNotice(t, repo, model.EventAppointmentCreated, "jordan@example.com")

	// Two pollers against the same table: the claim flips the event out of
	// pending, so only one of them sees it.
	first, _ := repo.GetPendingEventsWithLock(context.Background(), 10)
	second, _ := repo.GetPendingEventsWithLock(context.Background(), 10)
	require.Len(t, first, 1)
	assert.Empty(t, second)
	assert.Equal(t, model.OutboxStatusProcessing, first[0].Status)
}

func TestProcessEventsRetriesThenFails(t *testing.T) {
	repo := &memOutbox{}
	broker := &memBroker{err: errors.New("redis down")}
	id := enqueueNotice(t, repo, model.EventAppointmentCancelled, "jordan@example.com")

	p := newTestProcessor(t, repo, broker, nil, 2)

	// First failure goes back to pending for another attempt.
	require.NoError(t, p.processEvents(context.Background()))
	event := repo.get(id)
	require.NotNil(t, event)
	assert.Equal(t, model.OutboxStatusPending, event.Status)
	assert.Equal(t, 1, event.RetryCount)
	require.NotNil(t, event.LastError)

	// Second failure exhausts the budget.
	require.NoError(t, p.processEvents(context.Background()))
	assert.Equal(t, model.OutboxStatusFailed, event.Status)
	assert.Equal(t, 2, event.RetryCount)

	// Failed events are not picked up again.
	require.NoError(t, p.processEvents(context.Background()))
	assert.Equal(t, model.OutboxStatusFailed, event.Status)
	assert.Equal(t, 2, event.RetryCount)
}

func TestProcessEventsWithoutMailerStillPublishes(t *testing.T) {
	repo := &memOutbox{}
	broker := &memBroker{}
	id := enqueueNotice(t, repo, model.EventAppointmentRescheduled, "jordan@example.com")

	p := newTestProcessor(t, repo, broker, nil, 3)
	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, broker.published, 1)
	assert.Equal(t, model.OutboxStatusProcessed, repo.get(id).Status)
}

func TestProcessEventsSkipsMailWithoutRecipient(t *testing.T) {
	repo := &memOutbox{}
	broker := &memBroker{}
	mailer := &memMailer{}
	id := enqueueNotice(t, repo, model.EventAppointmentCreated, "")

	p := newTestProcessor(t, repo, broker, mailer, 3)
	require.NoError(t, p.processEvents(context.Background()))

	assert.Empty(t, mailer.sent)
	assert.Equal(t, model.OutboxStatusProcessed, repo.get(id).Status)
}

func TestComposeMailCoversEventTypes(t *testing.T) {
	notice := &notification.AppointmentNotice{
		PatientName:   "Jordan Avery",
		TherapistName: "Dana Kim",
		Date:          "2026-09-01",
		StartTime:     "09:30",
		Reason:        "schedule change",
	}

	for _, eventType := range []string{
		model.EventAppointmentCreated,
		model.EventAppointmentRescheduled,
		model.EventAppointmentCancelled,
		model.EventAppointmentTransferred,
		model.EventReportFinalized,
	} {
		subject, body := composeMail(eventType, notice)
		assert.NotEmpty(t, subject, eventType)
		assert.Contains(t, body, "Jordan Avery", eventType)
	}

	subject, _ := composeMail("unknown.event", notice)
	assert.Empty(t, subject)
}
