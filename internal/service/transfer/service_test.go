package transfer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/repository"
	"github.com/physioflow/practice-api/internal/service/audit"
)

type fakeAppointments struct {
	byID map[uuid.UUID]*model.Appointment
}

func (f *fakeAppointments) Create(ctx context.Context, a *model.Appointment) error { return nil }
func (f *fakeAppointments) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return a, nil
}
func (f *fakeAppointments) GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, id := range ids {
		if a, ok := f.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}
func (f *fakeAppointments) Update(ctx context.Context, a *model.Appointment) error { return nil }
func (f *fakeAppointments) Delete(ctx context.Context, id uuid.UUID) error         { return nil }
func (f *fakeAppointments) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointments) ListByTherapistAndDates(ctx context.Context, therapistID uuid.UUID, dates []string) ([]*model.Appointment, error) {
	inDates := make(map[string]bool, len(dates))
	for _, d := range dates {
		inDates[d] = true
	}
	var out []*model.Appointment
	for _, a := range f.byID {
		if a.TherapistID == therapistID && inDates[a.Date] {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeAvailability struct {
	days map[string]*model.DayAvailability // key therapistID|date
}

func availKey(therapistID uuid.UUID, date string) string {
	return therapistID.String() + "|" + date
}

func (f *fakeAvailability) Upsert(ctx context.Context, day *model.DayAvailability) error { return nil }
func (f *fakeAvailability) Get(ctx context.Context, therapistID uuid.UUID, date string) (*model.DayAvailability, error) {
	d, ok := f.days[availKey(therapistID, date)]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return d, nil
}
func (f *fakeAvailability) ListByDates(ctx context.Context, therapistID uuid.UUID, dates []string) ([]*model.DayAvailability, error) {
	var out []*model.DayAvailability
	for _, date := range dates {
		if d, ok := f.days[availKey(therapistID, date)]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}
func (f *fakeAvailability) ListRange(ctx context.Context, therapistID uuid.UUID, from, to string) ([]*model.DayAvailability, error) {
	return nil, nil
}

type fakeTherapists struct {
	byID map[uuid.UUID]*model.Therapist
}

func (f *fakeTherapists) Create(ctx context.Context, t *model.Therapist) error { return nil }
func (f *fakeTherapists) Get(ctx context.Context, id uuid.UUID) (*model.Therapist, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return t, nil
}
func (f *fakeTherapists) GetByEmail(ctx context.Context, email string) (*model.Therapist, error) {
	return nil, fmt.Errorf("not found")
}
func (f *fakeTherapists) Update(ctx context.Context, t *model.Therapist) error { return nil }
func (f *fakeTherapists) Delete(ctx context.Context, id uuid.UUID) error       { return nil }
func (f *fakeTherapists) List(ctx context.Context, filters *model.TherapistFilters) ([]*model.Therapist, error) {
	return nil, nil
}

type fakePatients struct {
	byID map[uuid.UUID]*model.Patient
}

func (f *fakePatients) Create(ctx context.Context, p *model.Patient) error { return nil }
func (f *fakePatients) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}
func (f *fakePatients) Update(ctx context.Context, p *model.Patient) error { return nil }
func (f *fakePatients) Delete(ctx context.Context, id uuid.UUID) error     { return nil }
func (f *fakePatients) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return nil, nil
}

type fakeTransfers struct {
	calls  int
	moves  []repository.AppointmentMove
	events []*model.OutboxEvent
}

func (f *fakeTransfers) ExecuteTransfer(ctx context.Context, targetID uuid.UUID, moves []repository.AppointmentMove, events []*model.OutboxEvent) (int, error) {
	f.calls++
	f.moves = moves
	f.events = events
	return len(moves), nil
}

type fakeAudit struct{}

func (f *fakeAudit) Create(ctx context.Context, log *model.AuditLog) error { return nil }
func (f *fakeAudit) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	return nil, nil
}
func (f *fakeAudit) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fixture struct {
	svc       *Service
	transfers *fakeTransfers

	source     *model.Therapist
	target     *model.Therapist
	patient    *model.Patient
	booked     *model.Appointment // candidate colliding with the target's 09:30
	clear      *model.Appointment // candidate at a free slot
	offHours   *model.Appointment // candidate outside declared ranges
	targetOwn  *model.Appointment // target's own booking at 09:30
	noDayAppt  *model.Appointment // candidate on a date without availability
	aptsByID   map[uuid.UUID]*model.Appointment
	therapists *fakeTherapists
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	source := &model.Therapist{Name: "Alex", Role: model.TherapistRoleTherapist}
	source.ID = uuid.New()
	target := &model.Therapist{Name: "Sam", Role: model.TherapistRoleTherapist}
	target.ID = uuid.New()

	patient := &model.Patient{Name: "Pat", Email: "pat@example.com", TherapistID: source.ID}
	patient.ID = uuid.New()

	mk := func(therapistID uuid.UUID, date, start string, status model.AppointmentStatus) *model.Appointment {
		a := &model.Appointment{
			PatientID:   patient.ID,
			TherapistID: therapistID,
			Date:        date,
			StartTime:   start,
			Status:      status,
		}
		a.ID = uuid.New()
		return a
	}

	f := &fixture{
		source:  source,
		target:  target,
		patient: patient,
	}
	f.booked = mk(source.ID, "2024-03-04", "09:30", model.AppointmentStatusPending)
	f.clear = mk(source.ID, "2024-03-04", "10:00", model.AppointmentStatusPending)
	f.offHours = mk(source.ID, "2024-03-04", "13:00", model.AppointmentStatusPending)
	f.noDayAppt = mk(source.ID, "2024-03-05", "09:00", model.AppointmentStatusPending)
	f.targetOwn = mk(target.ID, "2024-03-04", "09:30", model.AppointmentStatusPending)

	f.aptsByID = map[uuid.UUID]*model.Appointment{
		f.booked.ID:    f.booked,
		f.clear.ID:     f.clear,
		f.offHours.ID:  f.offHours,
		f.noDayAppt.ID: f.noDayAppt,
		f.targetOwn.ID: f.targetOwn,
	}

	availability := &fakeAvailability{days: map[string]*model.DayAvailability{
		availKey(target.ID, "2024-03-04"): {
			TherapistID: target.ID,
			Date:        "2024-03-04",
			Enabled:     true,
			Ranges:      model.TimeRanges{{Start: "09:00", End: "12:00"}},
		},
	}}

	f.therapists = &fakeTherapists{byID: map[uuid.UUID]*model.Therapist{
		source.ID: source,
		target.ID: target,
	}}
	f.transfers = &fakeTransfers{}

	f.svc = NewService(
		f.transfers,
		&fakeAppointments{byID: f.aptsByID},
		availability,
		f.therapists,
		&fakePatients{byID: map[uuid.UUID]*model.Patient{patient.ID: patient}},
		audit.NewService(&fakeAudit{}),
		nil,
	)
	return f
}

func TestEvaluateClassifiesCandidates(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Evaluate(context.Background(), &model.TransferCheckRequest{
		TherapistID: f.target.ID.String(),
		AppointmentIDs: []string{
			f.booked.ID.String(),
			f.clear.ID.String(),
			f.offHours.ID.String(),
			f.noDayAppt.ID.String(),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, f.target.ID, result.TherapistID)
	assert.Equal(t, []uuid.UUID{f.clear.ID}, result.Clear)
	require.Len(t, result.Conflicts, 3)

	reasons := map[uuid.UUID]model.ConflictReason{}
	for _, c := range result.Conflicts {
		reasons[c.AppointmentID] = c.Reason
	}
	assert.Equal(t, model.ConflictDoubleBooked, reasons[f.booked.ID])
	assert.Equal(t, model.ConflictNoSlot, reasons[f.offHours.ID])
	assert.Equal(t, model.ConflictNoAvailability, reasons[f.noDayAppt.ID])
}

func TestExecuteAbortsOnUnresolvedConflict(t *testing.T) {
	f := newFixture(t)

	result, conflicts, err := f.svc.Execute(context.Background(), uuid.New(), &model.ExecuteTransferRequest{
		TherapistID:    f.target.ID.String(),
		AppointmentIDs: []string{f.booked.ID.String(), f.clear.ID.String()},
	})

	require.Error(t, err)
	assert.Nil(t, result)
	require.Len(t, conflicts, 1)
	assert.Equal(t, f.booked.ID, conflicts[0].AppointmentID)
	assert.Equal(t, model.ConflictDoubleBooked, conflicts[0].Reason)
	assert.Zero(t, f.transfers.calls, "nothing must be committed")
}

func TestExecuteWithReplacementCommitsAtomically(t *testing.T) {
	f := newFixture(t)

	result, conflicts, err := f.svc.Execute(context.Background(), uuid.New(), &model.ExecuteTransferRequest{
		TherapistID:    f.target.ID.String(),
		AppointmentIDs: []string{f.booked.ID.String(), f.clear.ID.String()},
		Replacements: []model.SlotReplacement{
			{AppointmentID: f.booked.ID.String(), Date: "2024-03-04", StartTime: "11:00"},
		},
	})

	require.NoError(t, err)
	assert.Empty(t, conflicts)
	require.NotNil(t, result)
	assert.Equal(t, 1, f.transfers.calls)
	assert.ElementsMatch(t, []uuid.UUID{f.booked.ID, f.clear.ID}, result.Moved)

	require.Len(t, f.transfers.moves, 2)
	for _, move := range f.transfers.moves {
		if move.AppointmentID == f.booked.ID {
			assert.Equal(t, "11:00", move.StartTime)
		}
		assert.Equal(t, f.source.ID, move.FromTherapistID)
	}
	// One transfer notice per moved appointment rides in the same commit.
	assert.Len(t, f.transfers.events, 2)
}

func TestExecuteRejectsCancelledCandidates(t *testing.T) {
	f := newFixture(t)
	f.booked.Status = model.AppointmentStatusCancelled

	_, _, err := f.svc.Execute(context.Background(), uuid.New(), &model.ExecuteTransferRequest{
		TherapistID:    f.target.ID.String(),
		AppointmentIDs: []string{f.booked.ID.String()},
	})
	require.Error(t, err)
	assert.Zero(t, f.transfers.calls)
}

func TestEvaluateRejectsCandidatesAlreadyWithTarget(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Evaluate(context.Background(), &model.TransferCheckRequest{
		TherapistID:    f.target.ID.String(),
		AppointmentIDs: []string{f.targetOwn.ID.String()},
	})
	require.Error(t, err)
}

func TestEvaluateUnknownAppointmentIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Evaluate(context.Background(), &model.TransferCheckRequest{
		TherapistID:    f.target.ID.String(),
		AppointmentIDs: []string{uuid.New().String()},
	})
	require.Error(t, err)
}
