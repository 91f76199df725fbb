package appointment

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/service/audit"
	"github.com/physioflow/practice-api/internal/service/notification"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
)

type memAppointments struct {
	byID map[uuid.UUID]*model.Appointment
}

func (m *memAppointments) Create(ctx context.Context, a *model.Appointment) error {
	a.ID = uuid.New()
	m.byID[a.ID] = a
	return nil
}
func (m *memAppointments) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}
func (m *memAppointments) GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}
func (m *memAppointments) Update(ctx context.Context, a *model.Appointment) error {
	m.byID[a.ID] = a
	return nil
}
func (m *memAppointments) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.byID, id)
	return nil
}
func (m *memAppointments) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}
func (m *memAppointments) ListByTherapistAndDates(ctx context.Context, therapistID uuid.UUID, dates []string) ([]*model.Appointment, error) {
	inDates := make(map[string]bool, len(dates))
	for _, d := range dates {
		inDates[d] = true
	}
	var out []*model.Appointment
	for _, a := range m.byID {
		if a.TherapistID == therapistID && inDates[a.Date] {
			out = append(out, a)
		}
	}
	return out, nil
}

type memAvailability struct {
	days map[string]*model.DayAvailability
}

func memKey(id uuid.UUID, date string) string { return id.String() + "|" + date }

func (m *memAvailability) Upsert(ctx context.Context, day *model.DayAvailability) error { return nil }
func (m *memAvailability) Get(ctx context.Context, therapistID uuid.UUID, date string) (*model.DayAvailability, error) {
	d, ok := m.days[memKey(therapistID, date)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}
func (m *memAvailability) ListByDates(ctx context.Context, therapistID uuid.UUID, dates []string) ([]*model.DayAvailability, error) {
	return nil, nil
}
func (m *memAvailability) ListRange(ctx context.Context, therapistID uuid.UUID, from, to string) ([]*model.DayAvailability, error) {
	return nil, nil
}

type memPatients struct{ byID map[uuid.UUID]*model.Patient }

func (m *memPatients) Create(ctx context.Context, p *model.Patient) error { return nil }
func (m *memPatients) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}
func (m *memPatients) Update(ctx context.Context, p *model.Patient) error { return nil }
func (m *memPatients) Delete(ctx context.Context, id uuid.UUID) error     { return nil }
func (m *memPatients) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}

type memTherapists struct{ byID map[uuid.UUID]*model.Therapist }

func (m *memTherapists) Create(ctx context.Context, t *model.Therapist) error { return nil }
func (m *memTherapists) Get(ctx context.Context, id uuid.UUID) (*model.Therapist, error) {
	t, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}
func (m *memTherapists) GetByEmail(ctx context.Context, email string) (*model.Therapist, error) {
	return nil, sql.ErrNoRows
}
func (m *memTherapists) Update(ctx context.Context, t *model.Therapist) error { return nil }
func (m *memTherapists) Delete(ctx context.Context, id uuid.UUID) error       { return nil }
func (m *memTherapists) List(ctx context.Context, filters *model.TherapistFilters) ([]*model.Therapist, error) {
	return nil, nil
}

type memOutbox struct{ events []*model.OutboxEvent }

func (m *memOutbox) Create(ctx context.Context, e *model.OutboxEvent) error {
	m.events = append(m.events, e)
	return nil
}
func (m *memOutbox) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (m *memOutbox) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, lastError *string) error {
	return nil
}
func (m *memOutbox) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type memAudit struct{}

func (m *memAudit) Create(ctx context.Context, log *model.AuditLog) error { return nil }
func (m *memAudit) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	return nil, nil
}
func (m *memAudit) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type testEnv struct {
	svc       *Service
	apts      *memAppointments
	outbox    *memOutbox
	therapist *model.Therapist
	patient   *model.Patient
	date      string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	therapist := &model.Therapist{Name: "Sam", Role: model.TherapistRoleTherapist}
	therapist.ID = uuid.New()
	patient := &model.Patient{Name: "Pat", Email: "pat@example.com"}
	patient.ID = uuid.New()

	// Tomorrow, so future validation always passes.
	date := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	apts := &memAppointments{byID: map[uuid.UUID]*model.Appointment{}}
	availability := &memAvailability{days: map[string]*model.DayAvailability{
		memKey(therapist.ID, date): {
			TherapistID: therapist.ID,
			Date:        date,
			Enabled:     true,
			Ranges:      model.TimeRanges{{Start: "09:00", End: "12:00"}},
		},
	}}
	outbox := &memOutbox{}

	svc := NewService(
		apts,
		availability,
		&memPatients{byID: map[uuid.UUID]*model.Patient{patient.ID: patient}},
		&memTherapists{byID: map[uuid.UUID]*model.Therapist{therapist.ID: therapist}},
		notification.NewService(outbox),
		audit.NewService(&memAudit{}),
	)

	return &testEnv{svc: svc, apts: apts, outbox: outbox, therapist: therapist, patient: patient, date: date}
}

func requireConflict(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestCreateAppointmentBooksFreeSlot(t *testing.T) {
	env := newTestEnv(t)

	apt, err := env.svc.CreateAppointment(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   env.patient.ID.String(),
		TherapistID: env.therapist.ID.String(),
		Date:        env.date,
		StartTime:   "09:30",
	})
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.NotEqual(t, uuid.Nil, apt.ID)
	require.Len(t, env.outbox.events, 1)
	assert.Equal(t, model.EventAppointmentCreated, env.outbox.events[0].EventType)
}

func TestCreateAppointmentRejectsTakenSlot(t *testing.T) {
	env := newTestEnv(t)

	req := &model.CreateAppointmentRequest{
		PatientID:   env.patient.ID.String(),
		TherapistID: env.therapist.ID.String(),
		Date:        env.date,
		StartTime:   "09:30",
	}
	_, err := env.svc.CreateAppointment(context.Background(), uuid.New(), req)
	require.NoError(t, err)

	_, err = env.svc.CreateAppointment(context.Background(), uuid.New(), req)
	requireConflict(t, err)
}

func TestCreateAppointmentRejectsOutsideAvailability(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateAppointment(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   env.patient.ID.String(),
		TherapistID: env.therapist.ID.String(),
		Date:        env.date,
		StartTime:   "13:00",
	})
	requireConflict(t, err)
}

func TestCancelledSlotCanBeRebooked(t *testing.T) {
	env := newTestEnv(t)

	apt, err := env.svc.CreateAppointment(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   env.patient.ID.String(),
		TherapistID: env.therapist.ID.String(),
		Date:        env.date,
		StartTime:   "09:30",
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.CancelAppointment(context.Background(), uuid.New(), apt.ID, "patient request"))

	_, err = env.svc.CreateAppointment(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   env.patient.ID.String(),
		TherapistID: env.therapist.ID.String(),
		Date:        env.date,
		StartTime:   "09:30",
	})
	assert.NoError(t, err)
}

func TestRescheduleIgnoresOwnSlot(t *testing.T) {
	env := newTestEnv(t)

	apt, err := env.svc.CreateAppointment(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   env.patient.ID.String(),
		TherapistID: env.therapist.ID.String(),
		Date:        env.date,
		StartTime:   "09:30",
	})
	require.NoError(t, err)

	// Same slot, only notes change: must not collide with itself.
	notes := "bring previous scans"
	updated, err := env.svc.UpdateAppointment(context.Background(), uuid.New(), apt.ID, &model.UpdateAppointmentRequest{
		Notes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)

	// Moving to a new time within hours also works.
	newTime := "10:30"
	_, err = env.svc.UpdateAppointment(context.Background(), uuid.New(), apt.ID, &model.UpdateAppointmentRequest{
		StartTime: &newTime,
	})
	assert.NoError(t, err)
}

func TestUpdateCompletedAppointmentFails(t *testing.T) {
	env := newTestEnv(t)

	apt := &model.Appointment{
		PatientID:   env.patient.ID,
		TherapistID: env.therapist.ID,
		Date:        env.date,
		StartTime:   "09:00",
		Status:      model.AppointmentStatusCompleted,
	}
	apt.ID = uuid.New()
	env.apts.byID[apt.ID] = apt

	// Completed appointments are immutable, including their status.
	cancelled := model.AppointmentStatusCancelled
	_, err := env.svc.UpdateAppointment(context.Background(), uuid.New(), apt.ID, &model.UpdateAppointmentRequest{
		Status: &cancelled,
	})
	requireConflict(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, env.apts.byID[apt.ID].Status)

	notes := "late edit"
	_, err = env.svc.UpdateAppointment(context.Background(), uuid.New(), apt.ID, &model.UpdateAppointmentRequest{
		Notes: &notes,
	})
	requireConflict(t, err)
}

func TestUpdateCannotCancelAppointment(t *testing.T) {
	env := newTestEnv(t)

	apt, err := env.svc.CreateAppointment(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   env.patient.ID.String(),
		TherapistID: env.therapist.ID.String(),
		Date:        env.date,
		StartTime:   "09:30",
	})
	require.NoError(t, err)

	cancelled := model.AppointmentStatusCancelled
	_, err = env.svc.UpdateAppointment(context.Background(), uuid.New(), apt.ID, &model.UpdateAppointmentRequest{
		Status: &cancelled,
	})
	requireConflict(t, err)
	assert.Equal(t, model.AppointmentStatusPending, env.apts.byID[apt.ID].Status)

	// The dedicated cancel flow still works.
	require.NoError(t, env.svc.CancelAppointment(context.Background(), uuid.New(), apt.ID, "patient request"))
}

func TestCancelCompletedAppointmentFails(t *testing.T) {
	env := newTestEnv(t)

	apt := &model.Appointment{
		PatientID:   env.patient.ID,
		TherapistID: env.therapist.ID,
		Date:        env.date,
		StartTime:   "09:00",
		Status:      model.AppointmentStatusCompleted,
	}
	apt.ID = uuid.New()
	env.apts.byID[apt.ID] = apt

	err := env.svc.CancelAppointment(context.Background(), uuid.New(), apt.ID, "too late")
	requireConflict(t, err)
}

func TestOpenSlotsExcludeBookedTimes(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateAppointment(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   env.patient.ID.String(),
		TherapistID: env.therapist.ID.String(),
		Date:        env.date,
		StartTime:   "09:30",
	})
	require.NoError(t, err)

	slots, err := env.svc.OpenSlots(context.Background(), env.therapist.ID, env.date)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "10:30", "11:00", "11:30"}, slots)
}

func TestOpenSlotsNoAvailabilityIsEmpty(t *testing.T) {
	env := newTestEnv(t)

	otherDate := time.Now().AddDate(0, 0, 2).Format("2006-01-02")
	slots, err := env.svc.OpenSlots(context.Background(), env.therapist.ID, otherDate)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestCreateAppointmentUnknownTherapist(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateAppointment(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   env.patient.ID.String(),
		TherapistID: uuid.New().String(),
		Date:        env.date,
		StartTime:   "09:30",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "therapist not found")
}

func TestCreateAppointmentInPastFails(t *testing.T) {
	env := newTestEnv(t)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	_, err := env.svc.CreateAppointment(context.Background(), uuid.New(), &model.CreateAppointmentRequest{
		PatientID:   env.patient.ID.String(),
		TherapistID: env.therapist.ID.String(),
		Date:        yesterday,
		StartTime:   "09:30",
	})
	require.Error(t, err)
	assert.Contains(t, fmt.Sprint(err), "past")
}
