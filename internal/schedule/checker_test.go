package schedule

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physioflow/practice-api/internal/model"
)

func workday(ranges ...model.TimeRange) Day {
	return Day{Enabled: true, Ranges: ranges}
}

func booking(date, start string) Booking {
	return Booking{ID: uuid.New(), Date: date, StartTime: start}
}

func TestMinutesOfClock(t *testing.T) {
	tests := []struct {
		clock   string
		minutes int
		ok      bool
	}{
		{"00:00", 0, true},
		{"09:30", 570, true},
		{"23:59", 1439, true},
		{"9:15", 555, true},
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"12", 0, false},
		{"", 0, false},
		{"ab:cd", 0, false},
	}

	for _, tt := range tests {
		m, ok := MinutesOfClock(tt.clock)
		assert.Equal(t, tt.ok, ok, "clock %q", tt.clock)
		if tt.ok {
			assert.Equal(t, tt.minutes, m, "clock %q", tt.clock)
		}
	}
}

func TestCheckBookingNoAvailability(t *testing.T) {
	cal := Calendar{
		"2024-03-05": {Enabled: false, Ranges: []model.TimeRange{{Start: "09:00", End: "12:00"}}},
	}

	// Missing date.
	c := CheckBooking(cal, nil, booking("2024-03-04", "09:00"))
	require.NotNil(t, c)
	assert.Equal(t, model.ConflictNoAvailability, c.Reason)

	// Disabled date.
	c = CheckBooking(cal, nil, booking("2024-03-05", "09:00"))
	require.NotNil(t, c)
	assert.Equal(t, model.ConflictNoAvailability, c.Reason)
}

func TestCheckBookingOutsideEveryRange(t *testing.T) {
	cal := Calendar{
		"2024-03-04": workday(
			model.TimeRange{Start: "09:00", End: "12:00"},
			model.TimeRange{Start: "14:00", End: "17:00"},
		),
	}

	for _, start := range []string{"08:30", "12:30", "13:00", "17:00", "20:00"} {
		c := CheckBooking(cal, nil, booking("2024-03-04", start))
		require.NotNil(t, c, "start %s", start)
		assert.Equal(t, model.ConflictNoSlot, c.Reason, "start %s", start)
	}
}

func TestCheckBookingHalfOpenBoundaries(t *testing.T) {
	cal := Calendar{"2024-03-04": workday(model.TimeRange{Start: "09:00", End: "12:00"})}

	// Exactly at range start is accepted.
	assert.Nil(t, CheckBooking(cal, nil, booking("2024-03-04", "09:00")))

	// Exactly at range end is rejected.
	c := CheckBooking(cal, nil, booking("2024-03-04", "12:00"))
	require.NotNil(t, c)
	assert.Equal(t, model.ConflictNoSlot, c.Reason)
}

func TestCheckBookingDoubleBooked(t *testing.T) {
	cal := Calendar{"2024-03-04": workday(model.TimeRange{Start: "09:00", End: "12:00"})}
	existing := []Booking{booking("2024-03-04", "09:30")}

	c := CheckBooking(cal, existing, booking("2024-03-04", "09:30"))
	require.NotNil(t, c)
	assert.Equal(t, model.ConflictDoubleBooked, c.Reason)

	// Cancelled appointments do not occupy slots.
	cancelled := existing
	cancelled[0].Cancelled = true
	assert.Nil(t, CheckBooking(cal, cancelled, booking("2024-03-04", "09:30")))
}

func TestCheckBookingIgnoresSelf(t *testing.T) {
	cal := Calendar{"2024-03-04": workday(model.TimeRange{Start: "09:00", End: "12:00"})}
	cand := booking("2024-03-04", "10:00")

	// The candidate already being in the existing set (a reschedule to the
	// same slot) is not a double booking.
	assert.Nil(t, CheckBooking(cal, []Booking{cand}, cand))
}

func TestCheckBookingMalformedExistingSkipped(t *testing.T) {
	cal := Calendar{"2024-03-04": workday(model.TimeRange{Start: "09:00", End: "12:00"})}
	existing := []Booking{booking("2024-03-04", "garbage")}

	assert.Nil(t, CheckBooking(cal, existing, booking("2024-03-04", "09:30")))
}

// Scenario from the transfer workflow: 09:00-12:00 declared, 09:30 taken.
func TestCheckBookingScenario(t *testing.T) {
	cal := Calendar{"2024-03-04": workday(model.TimeRange{Start: "09:00", End: "12:00"})}
	existing := []Booking{booking("2024-03-04", "09:30")}

	c := CheckBooking(cal, existing, booking("2024-03-04", "09:30"))
	require.NotNil(t, c)
	assert.Equal(t, model.ConflictDoubleBooked, c.Reason)

	assert.Nil(t, CheckBooking(cal, existing, booking("2024-03-04", "10:00")))

	c = CheckBooking(cal, existing, booking("2024-03-04", "13:00"))
	require.NotNil(t, c)
	assert.Equal(t, model.ConflictNoSlot, c.Reason)
}

func TestCheckAllLaterCandidateLoses(t *testing.T) {
	cal := Calendar{"2024-03-04": workday(model.TimeRange{Start: "09:00", End: "12:00"})}

	first := booking("2024-03-04", "10:00")
	second := booking("2024-03-04", "10:00")

	conflicts := CheckAll(cal, nil, []Booking{first, second})
	require.Len(t, conflicts, 1)
	assert.Equal(t, second.ID, conflicts[0].AppointmentID)
	assert.Equal(t, model.ConflictDoubleBooked, conflicts[0].Reason)
}

func TestCheckAllIdempotent(t *testing.T) {
	cal := Calendar{
		"2024-03-04": workday(model.TimeRange{Start: "09:00", End: "12:00"}),
	}
	existing := []Booking{booking("2024-03-04", "09:30")}
	cands := []Booking{
		booking("2024-03-04", "09:30"),
		booking("2024-03-04", "10:00"),
		booking("2024-03-05", "10:00"),
	}

	first := CheckAll(cal, existing, cands)
	second := CheckAll(cal, existing, cands)
	assert.Equal(t, first, second)
	require.Len(t, first, 2)
}

func TestOpenSlots(t *testing.T) {
	day := workday(model.TimeRange{Start: "09:00", End: "11:00"})
	existing := []Booking{booking("2024-03-04", "09:30")}

	slots := OpenSlots(day, existing, "2024-03-04")
	assert.Equal(t, []string{"09:00", "10:00", "10:30"}, slots)
}

func TestOpenSlotsSnapsOddRangeStart(t *testing.T) {
	day := workday(model.TimeRange{Start: "09:10", End: "10:35"})

	slots := OpenSlots(day, nil, "2024-03-04")
	assert.Equal(t, []string{"09:30", "10:00", "10:30"}, slots)
}

func TestOpenSlotsDisabledDay(t *testing.T) {
	day := Day{Enabled: false, Ranges: []model.TimeRange{{Start: "09:00", End: "17:00"}}}
	assert.Empty(t, OpenSlots(day, nil, "2024-03-04"))
}
